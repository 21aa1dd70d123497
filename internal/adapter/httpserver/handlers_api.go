package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

type tallyResponse struct {
	Text        string         `json:"text"`
	Votes       map[string]int `json:"votes"`
	Winner      string         `json:"winner"`
	WinnerVotes int            `json:"winner_votes"`
	Total       int            `json:"total"`
}

type topResponse struct {
	Texts   int             `json:"texts"`
	Entries []tallyResponse `json:"entries"`
}

type statsResponse struct {
	Texts           int   `json:"texts"`
	Classifications int64 `json:"classifications"`
	CacheHits       int64 `json:"cache_hits"`
	Votes           int64 `json:"votes"`
}

func toTallyResponse(text string, tally domain.VoteTally) tallyResponse {
	votes := make(map[string]int, len(tally))
	for label, n := range tally {
		votes[label.String()] = n
	}
	winner, count, _ := tally.Winner()
	return tallyResponse{
		Text:        text,
		Votes:       votes,
		Winner:      winner.String(),
		WinnerVotes: count,
		Total:       tally.Total(),
	}
}

// handleTally looks up a text the same way the bot does: the query is normalized first.
func (s *Server) handleTally(c echo.Context) error {
	raw := c.QueryParam("text")
	if raw == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "text is required"})
	}

	text := domain.NormalizeText(raw)
	tally, ok := s.tallies.Lookup(text)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no votes for text"})
	}

	if err := c.JSON(http.StatusOK, toTallyResponse(text, tally)); err != nil {
		return fmt.Errorf("failed to write tally response: %w", err)
	}
	return nil
}

func (s *Server) handleTopTallies(c echo.Context) error {
	limit := defaultTopLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
		}
		limit = min(n, maxTopLimit)
	}

	top := s.tallies.Top(limit)
	resp := topResponse{Texts: s.tallies.Len(), Entries: make([]tallyResponse, 0, len(top))}
	for _, e := range top {
		resp.Entries = append(resp.Entries, toTallyResponse(e.Text, e.Tally))
	}

	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write top response: %w", err)
	}
	return nil
}

func (s *Server) handleStats(c echo.Context) error {
	v := s.stats.Values()
	resp := statsResponse{
		Texts:           s.tallies.Len(),
		Classifications: v.Classifications,
		CacheHits:       v.CacheHits,
		Votes:           v.Votes,
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write stats response: %w", err)
	}
	return nil
}
