package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmtruffa/xirr"
	"github.com/jmtruffa/xirr/internal/store"
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type xirrRequest struct {
	CashFlows []xirr.CashFlow `json:"cash_flows" binding:"required"`
	Guess     *float64        `json:"guess"`
}

type xnpvRequest struct {
	Rate      *float64        `json:"rate" binding:"required"`
	CashFlows []xirr.CashFlow `json:"cash_flows" binding:"required"`
}

type projectionRequest struct {
	CashFlows []xirr.CashFlow `json:"cash_flows" binding:"required"`
	Rate      *float64        `json:"rate"`
	Guess     *float64        `json:"guess"`
	EndDate   *xirr.Fecha     `json:"end_date"`
}

type portfolioRequest struct {
	Name      string          `json:"name" binding:"required,max=200"`
	Guess     *float64        `json:"guess"`
	CashFlows []xirr.CashFlow `json:"cash_flows"`
}

// rateResult carries a solved rate. Rate is null when none could be found.
type rateResult struct {
	Rate       *float64      `json:"rate"`
	Display    string        `json:"display"`
	Method     xirr.Method   `json:"method,omitempty"`
	Iterations int           `json:"iterations,omitempty"`
	Summary    *xirr.Summary `json:"summary,omitempty"`
}

type projectionResult struct {
	Rate        float64                 `json:"rate"`
	Display     string                  `json:"display"`
	Wealth      []xirr.WealthPoint      `json:"wealth"`
	Performance []xirr.PerformancePoint `json:"performance"`
}

func (s *Server) health(c *gin.Context) {
	backend := "disabled"
	if s.repo != nil {
		backend = s.repo.Driver()
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"store":  backend,
		"time":   time.Now().UTC(),
	})
}

// POST /api/v1/xirr
func (s *Server) solveXIRR(c *gin.Context) {
	var req xirrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	s.respondRate(c, req.CashFlows, req.Guess)
}

// POST /api/v1/xnpv
func (s *Server) presentValue(c *gin.Context) {
	var req xnpvRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	values := make([]float64, len(req.CashFlows))
	dates := make([]time.Time, len(req.CashFlows))
	for i, cf := range req.CashFlows {
		values[i] = cf.Amount
		dates[i] = cf.Date.Time()
	}
	npv, err := xirr.ScheduledNetPresentValue(*req.Rate, values, dates)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"npv": npv}})
}

// POST /api/v1/projection
func (s *Server) projection(c *gin.Context) {
	var req projectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	series, err := xirr.NewSeries(req.CashFlows)
	if err != nil {
		s.unsolved(c, err, nil)
		return
	}

	var rate float64
	if req.Rate != nil {
		rate = *req.Rate
	} else {
		res, err := s.solve(series, req.Guess)
		if err != nil {
			summary := xirr.Summarize(series)
			s.unsolved(c, err, &summary)
			return
		}
		rate = res.Rate
	}

	var end *time.Time
	if req.EndDate != nil && !req.EndDate.IsZero() {
		t := req.EndDate.Time()
		end = &t
	}
	wealth, err := xirr.WealthProjection(series, rate, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	perf, err := xirr.Performance(series, rate)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: projectionResult{
		Rate:        rate,
		Display:     xirr.FormatRate(rate),
		Wealth:      wealth,
		Performance: perf,
	}})
}

// GET /api/v1/portfolios
func (s *Server) listPortfolios(c *gin.Context) {
	portfolios, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if portfolios == nil {
		portfolios = []store.Portfolio{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: portfolios})
}

// POST /api/v1/portfolios
func (s *Server) savePortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := &store.Portfolio{
		Name:      req.Name,
		Guess:     s.config.Solver.Guess,
		CashFlows: req.CashFlows,
	}
	if req.Guess != nil {
		p.Guess = *req.Guess
	}
	if err := s.repo.Save(c.Request.Context(), p); err != nil {
		s.fail(c, err)
		return
	}

	s.log.WithField("portfolio_id", p.ID).WithField("name", p.Name).Info("portfolio saved")
	c.JSON(http.StatusCreated, Response{Success: true, Data: p})
}

// GET /api/v1/portfolios/:id
func (s *Server) getPortfolio(c *gin.Context) {
	p, err := s.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: p})
}

// DELETE /api/v1/portfolios/:id
func (s *Server) deletePortfolio(c *gin.Context) {
	if err := s.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// GET /api/v1/portfolios/:id/xirr
func (s *Server) portfolioXIRR(c *gin.Context) {
	p, err := s.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondRate(c, p.CashFlows, &p.Guess)
}

// respondRate solves flows and writes either the rate or the placeholder.
func (s *Server) respondRate(c *gin.Context, flows []xirr.CashFlow, guess *float64) {
	series, err := xirr.NewSeries(flows)
	if err != nil {
		s.metrics.ObserveSolve(xirr.Result{}, err, 0)
		s.unsolved(c, err, nil)
		return
	}
	summary := xirr.Summarize(series)

	res, err := s.solve(series, guess)
	if err != nil {
		s.unsolved(c, err, &summary)
		return
	}

	rate := res.Rate
	c.JSON(http.StatusOK, Response{Success: true, Data: rateResult{
		Rate:       &rate,
		Display:    xirr.FormatRate(rate),
		Method:     res.Method,
		Iterations: res.Iterations,
		Summary:    &summary,
	}})
}

// solve runs the solver with the configured options, overriding the guess
// when one is given.
func (s *Server) solve(series xirr.Series, guess *float64) (xirr.Result, error) {
	opts := s.config.Solver.Options()
	if guess != nil {
		opts.Guess = *guess
	}

	start := time.Now()
	res, err := xirr.Solve(series, opts)
	s.metrics.ObserveSolve(res, err, time.Since(start))
	return res, err
}

// unsolved writes the placeholder reply for input that has no rate. Other
// errors go through fail.
func (s *Server) unsolved(c *gin.Context, err error, summary *xirr.Summary) {
	if statusFor(err) != http.StatusUnprocessableEntity {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusUnprocessableEntity, Response{
		Success: false,
		Data: rateResult{
			Display: xirr.Placeholder,
			Summary: summary,
		},
		Error: err.Error(),
	})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), Response{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNameRequired),
		errors.Is(err, xirr.ErrInvalidOptions),
		errors.Is(err, xirr.ErrInvalidRate),
		errors.Is(err, xirr.ErrMissingDate):
		return http.StatusBadRequest
	case errors.Is(err, xirr.ErrNoSolution):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
