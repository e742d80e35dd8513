package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MJE43/arcs-odds/internal/dice"
)

var errTooManyForServer = errors.New("too many dice for this server")

// Validator wraps the validator instance
type Validator struct {
	validate       *validator.Validate
	maxDicePerType int
}

// NewValidator builds a validator. maxDicePerType <= 0 disables the
// per-type dice limit.
func NewValidator(maxDicePerType int) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v, maxDicePerType: maxDicePerType}
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s any) error {
	return v.validate.Struct(s)
}

// ValidatePool checks counts are non-negative and within the server limit.
func (v *Validator) ValidatePool(p dice.Pool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if v.maxDicePerType <= 0 {
		return nil
	}
	for _, t := range dice.Types {
		if n := p.Count(t); n > v.maxDicePerType {
			return fmt.Errorf("%w: %s=%d exceeds %d", errTooManyForServer, t, n, v.maxDicePerType)
		}
	}
	return nil
}

// FormatValidationError maps validator failures to field messages.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		default:
			errs[field] = "Invalid value"
		}
	}
	return errs
}

// poolFromQuery reads skirmish, assault, raid, fresh_targets and
// convert_intercepts. Missing values are zero.
func poolFromQuery(r *http.Request) (dice.Pool, map[string]string) {
	q := r.URL.Query()
	var p dice.Pool
	bad := make(map[string]string)

	ints := []struct {
		name string
		dst  *int
	}{
		{"skirmish", &p.Skirmish},
		{"assault", &p.Assault},
		{"raid", &p.Raid},
		{"fresh_targets", &p.FreshTargets},
	}
	for _, f := range ints {
		s := q.Get(f.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			bad[f.name] = "Must be an integer"
			continue
		}
		*f.dst = n
	}

	if s := q.Get("convert_intercepts"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			bad["convert_intercepts"] = "Must be a boolean"
		}
		p.ConvertIntercepts = b
	}

	if len(bad) > 0 {
		return p, bad
	}
	return p, nil
}

// boolParam reads an optional boolean query parameter.
func boolParam(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return b, nil
}
