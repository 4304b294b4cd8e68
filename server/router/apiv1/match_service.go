package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/JaCARYK/beartracks/store"
)

type Match struct {
	ID            string  `json:"id"`
	LostID        string  `json:"lost_id"`
	FoundID       string  `json:"found_id"`
	Score         float64 `json:"score"`
	AutoSuggested bool    `json:"auto_suggested"`
	CreatedTs     int64   `json:"created_ts"`
}

// ListLostItemMatches returns the ranked, non-dismissed matches for a
// lost report, best first.
func (s *APIV1Service) ListLostItemMatches(c echo.Context) error {
	ctx := c.Request().Context()
	lostID := c.Param("id")
	if _, err := s.Store.GetLostItem(ctx, lostID); err != nil {
		return errorResponse(c, err)
	}

	matches, err := s.Store.ListMatches(ctx, &store.FindMatch{LostID: &lostID})
	if err != nil {
		return errorResponse(c, err)
	}

	response := make([]*Match, 0, len(matches))
	for _, match := range matches {
		response = append(response, convertMatch(match))
	}
	return c.JSON(http.StatusOK, response)
}

// DismissMatch records "not a match" feedback. The pair stays
// suppressed through any later re-scoring.
func (s *APIV1Service) DismissMatch(c echo.Context) error {
	if err := s.Store.DismissMatch(c.Request().Context(), c.Param("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "match dismissed"})
}

func convertMatch(match *store.Match) *Match {
	return &Match{
		ID:            match.ID,
		LostID:        match.LostID,
		FoundID:       match.FoundID,
		Score:         match.Score,
		AutoSuggested: match.AutoSuggested,
		CreatedTs:     match.CreatedTs,
	}
}
