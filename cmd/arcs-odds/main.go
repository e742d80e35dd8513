package main

import "github.com/MJE43/arcs-odds/cmd/arcs-odds/cmd"

func main() {
	cmd.Execute()
}
