package api

import (
	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/export"
	"github.com/MJE43/arcs-odds/internal/roll"
	"github.com/MJE43/arcs-odds/internal/rng"
	"github.com/MJE43/arcs-odds/internal/scripting"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types
const (
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"
	ErrTypeScript        = "script_error"
	ErrTypeNotFound      = "not_found"
	ErrTypeTimeout       = "timeout"
	ErrTypeInternal      = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryScript     ErrorCategory = "script"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeValidation, ErrTypeNotFound:
		return CategoryValidation
	case ErrTypeScript:
		return CategoryScript
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// DiceResponse lists the registered dice and their faces.
type DiceResponse struct {
	Dice          []dice.DieSpec `json:"dice"`
	EngineVersion string         `json:"engine_version"`
}

// TableResponse carries a joint table with exact probabilities.
type TableResponse struct {
	Table         export.TableDocument `json:"table"`
	EngineVersion string               `json:"engine_version"`
}

// MacrostatesResponse is the labelled distribution of a pool.
type MacrostatesResponse struct {
	Pool          dice.Pool           `json:"pool"`
	Total         int                 `json:"total"`
	Macrostates   []engine.Macrostate `json:"macrostates"`
	EngineVersion string              `json:"engine_version"`
}

// MarginalsResponse holds one marginal per outcome column.
type MarginalsResponse struct {
	Pool          dice.Pool                                  `json:"pool"`
	Cumulative    bool                                       `json:"cumulative"`
	Marginals     map[engine.Variable][]engine.MarginalPoint `json:"marginals"`
	EngineVersion string                                     `json:"engine_version"`
}

// HeatmapResponse wraps a two-column pivot of the table.
type HeatmapResponse struct {
	Pool          dice.Pool      `json:"pool"`
	Cumulative    bool           `json:"cumulative"`
	Heatmap       engine.Heatmap `json:"heatmap"`
	EngineVersion string         `json:"engine_version"`
}

// OddsRequest asks for the probability that a set of bounds holds.
type OddsRequest struct {
	Pool        dice.Pool          `json:"pool"`
	Constraints engine.Constraints `json:"constraints"`
}

// OddsResponse is the answer to an OddsRequest.
type OddsResponse struct {
	engine.QueryResult
	EngineVersion string      `json:"engine_version"`
	Echo          OddsRequest `json:"echo"`
}

// PredicateRequest evaluates a JS predicate over the table.
type PredicateRequest struct {
	Pool      dice.Pool `json:"pool"`
	Predicate string    `json:"predicate" validate:"required,max=4096"`
	TimeoutMs int       `json:"timeout_ms,omitempty" validate:"min=0,max=10000"`
}

// PredicateResponse is the answer to a PredicateRequest.
type PredicateResponse struct {
	scripting.PredicateResult
	EngineVersion string           `json:"engine_version"`
	Echo          PredicateRequest `json:"echo"`
}

// RollRequest rolls a pool from a seed pair and nonce.
type RollRequest struct {
	Pool  dice.Pool `json:"pool"`
	Seeds rng.Seeds `json:"seeds"`
	Nonce uint64    `json:"nonce"`
}

// RollResponse is one seeded roll.
type RollResponse struct {
	Roll          *roll.Result `json:"roll"`
	EngineVersion string       `json:"engine_version"`
}
