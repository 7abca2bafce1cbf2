package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/internal"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// Response is the body returned for a single player request.
type Response struct {
	Outcome whitelist.Outcome `json:"outcome"`
	XUID    string            `json:"xuid,omitempty"`
	Name    string            `json:"name"`
	Error   string            `json:"error,omitempty"`
}

// PlayerList is the body of GET /players.
type PlayerList struct {
	Players []whitelist.Profile `json:"players"`
}

// Enabled is the body of GET and PUT /enabled.
type Enabled struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// statusOf maps an outcome to the HTTP status it is served with.
func statusOf(o whitelist.Outcome) int {
	switch o {
	case whitelist.OutcomeNotFound:
		return http.StatusNotFound
	case whitelist.OutcomeStoreUnavailable:
		return http.StatusServiceUnavailable
	case whitelist.OutcomeInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}

// request serves a single player operation of the operator.
func (s *Server) request(fn func(*whitelist.Operator, context.Context, string) whitelist.Result) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), internal.CommandTimeout)
		defer cancel()

		res := fn(s.op, ctx, c.Param("query"))
		body := Response{
			Outcome: res.Outcome,
			XUID:    res.Profile.ID.String(),
			Name:    res.Name(),
		}
		if res.Err != nil {
			body.Error = res.Err.Error()
			if res.Outcome == whitelist.OutcomeStoreUnavailable {
				sentry.CaptureException(res.Err)
			}
		}
		c.JSON(statusOf(res.Outcome), body)
	}
}

// list ...
func (s *Server) list(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), internal.CommandTimeout)
	defer cancel()

	profiles, err := s.op.List(ctx)
	if err != nil {
		s.fail(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, PlayerList{Players: lo.Ternary(profiles == nil, []whitelist.Profile{}, profiles)})
}

// identity resolves a gamertag to an XUID.
func (s *Server) identity(c *gin.Context) {
	p, err := s.resolver.Resolve(c.Request.Context(), c.Param("name"))
	switch {
	case errors.Is(err, whitelist.ErrNotFound), errors.Is(err, whitelist.ErrInvalidIdentity):
		c.JSON(http.StatusNotFound, gin.H{"reason": "no player found"})
	case err != nil:
		s.fail(c, http.StatusServiceUnavailable, err)
	default:
		c.JSON(http.StatusOK, gin.H{"xuid": p.ID, "name": p.Name})
	}
}

// sweep ...
func (s *Server) sweep(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), internal.SweepTimeout)
	defer cancel()

	report, err := s.op.Sweep(ctx)
	if err != nil {
		s.fail(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// lastSweep ...
func (s *Server) lastSweep(c *gin.Context) {
	report, ok := s.sweeper.Last()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sweep has run yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// enabled ...
func (s *Server) enabled(c *gin.Context) {
	c.JSON(http.StatusOK, Enabled{Enabled: lo.ToPtr(s.op.Gate().Config().Enabled)})
}

// setEnabled ...
func (s *Server) setEnabled(c *gin.Context) {
	var body Enabled
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.op.Gate().SetEnabled(*body.Enabled)
	c.JSON(http.StatusOK, body)
}

// fail ...
func (s *Server) fail(c *gin.Context, status int, err error) {
	s.log.Error("API request failed", "path", c.FullPath(), "error", err)
	sentry.CaptureException(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
