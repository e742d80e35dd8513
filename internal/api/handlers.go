package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/export"
	"github.com/MJE43/arcs-odds/internal/logger"
	"github.com/MJE43/arcs-odds/internal/metrics"
	"github.com/MJE43/arcs-odds/internal/roll"
	"github.com/MJE43/arcs-odds/internal/scripting"
)

func (s *Server) handleDice(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, DiceResponse{
		Dice:          dice.ListDice(),
		EngineVersion: EngineVersion,
	})
}

// queryPool parses and validates the pool in the query string.
func (s *Server) queryPool(w http.ResponseWriter, r *http.Request) (dice.Pool, bool) {
	pool, bad := poolFromQuery(r)
	if bad != nil {
		s.errorHandler.HandleValidationError(w, r, bad)
		return pool, false
	}
	if err := s.validator.ValidatePool(pool); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return pool, false
	}
	return pool, true
}

// tableFor validates pool and returns its (possibly cached) table.
func (s *Server) tableFor(w http.ResponseWriter, r *http.Request, pool dice.Pool) (*engine.Table, bool) {
	if err := s.validator.ValidatePool(pool); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	t, err := s.cache.Table(pool)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return t, true
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.queryPool(w, r)
	if !ok {
		return
	}
	t, ok := s.tableFor(w, r, pool)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, TableResponse{
		Table:         export.NewTableDocument(t),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleMacrostates(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.queryPool(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.errorHandler.HandleValidationError(w, r, map[string]string{"limit": "Must be a non-negative integer"})
			return
		}
		limit = n
	}

	states, err := engine.Macrostates(pool)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	total := len(states)
	if limit > 0 {
		states = engine.MostLikely(states, limit)
	}

	s.writeJSON(w, http.StatusOK, MacrostatesResponse{
		Pool:          pool,
		Total:         total,
		Macrostates:   states,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleMarginals(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.queryPool(w, r)
	if !ok {
		return
	}
	cumulative, err := boolParam(r, "cumulative")
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, map[string]string{"cumulative": err.Error()})
		return
	}
	t, ok := s.tableFor(w, r, pool)
	if !ok {
		return
	}

	marginals := make(map[engine.Variable][]engine.MarginalPoint, len(engine.Variables))
	for _, v := range engine.Variables {
		marginals[v] = t.Marginal(v, cumulative)
	}
	s.writeJSON(w, http.StatusOK, MarginalsResponse{
		Pool:          pool,
		Cumulative:    cumulative,
		Marginals:     marginals,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	pool, ok := s.queryPool(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	bad := make(map[string]string)
	x, err := engine.ParseVariable(q.Get("x"))
	if err != nil {
		bad["x"] = err.Error()
	}
	y, err := engine.ParseVariable(q.Get("y"))
	if err != nil {
		bad["y"] = err.Error()
	}
	cumulative, err := boolParam(r, "cumulative")
	if err != nil {
		bad["cumulative"] = err.Error()
	}
	if len(bad) > 0 {
		s.errorHandler.HandleValidationError(w, r, bad)
		return
	}

	t, ok := s.tableFor(w, r, pool)
	if !ok {
		return
	}
	hm, err := t.Heatmap(x, y, cumulative)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, HeatmapResponse{
		Pool:          pool,
		Cumulative:    cumulative,
		Heatmap:       *hm,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	var req OddsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	t, ok := s.tableFor(w, r, req.Pool)
	if !ok {
		return
	}
	res, err := t.Query(req.Constraints)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Debug("odds_computed",
		"pool", req.Pool.Key(),
		"description", res.Description,
		"probability", res.Probability,
	)
	s.writeJSON(w, http.StatusOK, OddsResponse{
		QueryResult:   res,
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}

func (s *Server) handlePredicate(w http.ResponseWriter, r *http.Request) {
	var req PredicateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	t, ok := s.tableFor(w, r, req.Pool)
	if !ok {
		return
	}

	timeout := s.cfg.ScriptTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	res, err := scripting.Probability(req.Predicate, t, timeout)
	if err != nil {
		metrics.ScriptEvaluations.WithLabelValues("error").Inc()
		s.errorHandler.HandleError(w, r, err)
		return
	}
	metrics.ScriptEvaluations.WithLabelValues("ok").Inc()

	logger.FromContext(r.Context()).Debug("predicate_evaluated",
		"pool", req.Pool.Key(),
		"matched_rows", res.Matched,
		"probability", res.Probability,
	)
	s.writeJSON(w, http.StatusOK, PredicateResponse{
		PredicateResult: *res,
		EngineVersion:   EngineVersion,
		Echo:            req,
	})
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	var req RollRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.validator.ValidatePool(req.Pool); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := roll.Roll(req.Pool, req.Seeds, req.Nonce)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RollResponse{
		Roll:          res,
		EngineVersion: EngineVersion,
	})
}
