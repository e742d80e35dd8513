package scripting

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

var (
	ErrCompile = errors.New("script compile error")
	ErrRuntime = errors.New("script runtime error")
	ErrTimeout = errors.New("script timed out")
)

// DefaultTimeout bounds a whole predicate evaluation.
const DefaultTimeout = 2 * time.Second

// LogEntry represents a single log message from the script.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// VM wraps a goja runtime with sandbox restrictions. A VM is not safe for
// concurrent use; create one per evaluation.
type VM struct {
	runtime *goja.Runtime
	timeout time.Duration

	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int
}

// NewVM creates a sandboxed runtime. timeout <= 0 uses DefaultTimeout.
func NewVM(timeout time.Duration) *VM {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	vm := &VM{
		runtime: goja.New(),
		timeout: timeout,
		maxLogs: 100,
	}
	vm.injectGlobalFunctions()
	return vm
}

// injectGlobalFunctions registers log and console.log and blocks anything
// that reaches outside the sandbox.
func (vm *VM) injectGlobalFunctions() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		vm.logsMu.Lock()
		if len(vm.logs) >= vm.maxLogs {
			vm.logs = vm.logs[1:]
		}
		vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: strings.Join(parts, " ")})
		vm.logsMu.Unlock()

		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("fetch", goja.Undefined())
	vm.runtime.Set("XMLHttpRequest", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

// Run evaluates source and returns its completion value.
func (vm *VM) Run(source string) (goja.Value, error) {
	prog, err := goja.Compile("script", source, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	var out goja.Value
	err = vm.runWithTimeout(func() error {
		v, err := vm.runtime.RunProgram(prog)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRuntime, err)
		}
		out = v
		return nil
	})
	return out, err
}

// Logs returns a copy of the log buffer.
func (vm *VM) Logs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

func (vm *VM) runWithTimeout(fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(vm.timeout):
		vm.runtime.Interrupt("script execution timeout")
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
		return fmt.Errorf("%w after %s", ErrTimeout, vm.timeout)
	}
}
