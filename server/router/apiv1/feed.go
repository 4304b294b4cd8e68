package apiv1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/JaCARYK/beartracks/store"
)

const feedItemLimit = 50

// FoundItemsFeed publishes recent available found items as RSS so campus
// dashboards and mailing lists can follow the inventory without an API
// token.
func (s *APIV1Service) FoundItemsFeed(c echo.Context) error {
	ctx := c.Request().Context()
	status := store.ItemStatusAvailable
	limit := feedItemLimit
	items, err := s.Store.ListFoundItems(ctx, &store.FindFoundItem{Status: &status, Limit: &limit})
	if err != nil {
		return errorResponse(c, err)
	}

	baseURL := s.Profile.InstanceURL
	feed := &feeds.Feed{
		Title:       "BearTracks - Found Items",
		Link:        &feeds.Link{Href: baseURL + "/feed/found.rss"},
		Description: "Recently reported found items awaiting their owners.",
		Created:     time.Now(),
	}
	for _, item := range items {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          item.ID,
			Title:       item.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/found/%s", baseURL, item.ID)},
			Description: fmt.Sprintf("%s (category: %s)", item.Description, item.Category),
			Created:     time.Unix(item.FoundTs, 0),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Blob(http.StatusOK, "application/rss+xml", []byte(rss))
}
