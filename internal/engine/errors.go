package engine

import (
	"errors"

	"github.com/MJE43/arcs-odds/internal/dice"
)

var (
	ErrNegativeDice          = dice.ErrNegativeDice
	ErrNegativeFreshTargets  = dice.ErrNegativeFreshTargets
	ErrTooManyDice           = errors.New("too many dice: microstate count overflows uint64")
	ErrUnconvertedIntercepts = errors.New("max damage needs intercept conversion for pools that can roll intercepts")
	ErrInvalidConstraint     = errors.New("invalid constraint")
	ErrUnknownVariable       = errors.New("unknown outcome variable")
	ErrSameAxis              = errors.New("heatmap axes must differ")
)
