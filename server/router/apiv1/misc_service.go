package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Location struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Building string `json:"building"`
	Floor    string `json:"floor"`
}

func (s *APIV1Service) ListLocations(c echo.Context) error {
	locations, err := s.Store.ListLocations(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}

	response := make([]*Location, 0, len(locations))
	for _, location := range locations {
		response = append(response, &Location{
			ID:       location.ID,
			Name:     location.Name,
			Building: location.Building,
			Floor:    location.Floor,
		})
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetStats(c echo.Context) error {
	stats, err := s.Store.Stats(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
