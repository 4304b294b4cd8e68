// Package apiv1 exposes the REST surface: item intake, match listing,
// the claim workflow, auth, reference data and the RSS feed.
package apiv1

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/JaCARYK/beartracks/claims"
	"github.com/JaCARYK/beartracks/internal/metrics"
	"github.com/JaCARYK/beartracks/internal/profile"
	"github.com/JaCARYK/beartracks/matcher"
	"github.com/JaCARYK/beartracks/matcher/embedding"
	"github.com/JaCARYK/beartracks/plugin/notify"
	"github.com/JaCARYK/beartracks/store"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Secret   string
	Embedder embedding.Service
	Ranker   *matcher.Ranker
	Machine  *claims.Machine
	Notify   *notify.Dispatcher
	Metrics  *metrics.Exporter

	// photoSemaphore bounds concurrent photo decode/resize/embed work so
	// a burst of multipart uploads cannot exhaust memory.
	photoSemaphore *semaphore.Weighted
}

func NewAPIV1Service(
	secret string,
	instanceProfile *profile.Profile,
	storeInstance *store.Store,
	embedder embedding.Service,
	ranker *matcher.Ranker,
	machine *claims.Machine,
	dispatcher *notify.Dispatcher,
	exporter *metrics.Exporter,
) *APIV1Service {
	return &APIV1Service{
		Secret:         secret,
		Profile:        instanceProfile,
		Store:          storeInstance,
		Embedder:       embedder,
		Ranker:         ranker,
		Machine:        machine,
		Notify:         dispatcher,
		Metrics:        exporter,
		photoSemaphore: semaphore.NewWeighted(3), // limit concurrent photo processing
	}
}

// Register mounts all API routes on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	auth := e.Group("/api/auth")
	auth.POST("/register", s.RegisterUser)
	auth.POST("/login", s.Login)

	api := e.Group("/api", s.AuthMiddleware)
	api.POST("/found", s.CreateFoundItem)
	api.GET("/found", s.ListFoundItems)
	api.GET("/found/:id", s.GetFoundItem)
	api.PUT("/found/:id/status", s.UpdateFoundItemStatus, s.OfficeMiddleware)

	api.POST("/lost", s.CreateLostItem)
	api.PUT("/lost/:id", s.UpdateLostItem)
	api.GET("/lost/:id/matches", s.ListLostItemMatches)
	api.PUT("/matches/:id/dismiss", s.DismissMatch)

	api.POST("/claims", s.CreateClaim)
	api.GET("/claims", s.ListClaims)
	api.PUT("/claims/:id/verify", s.VerifyClaim, s.OfficeMiddleware)
	api.PUT("/claims/:id/pickup", s.ConfirmPickup, s.OfficeMiddleware)

	api.GET("/locations", s.ListLocations)
	api.GET("/stats", s.GetStats)

	e.GET("/feed/found.rss", s.FoundItemsFeed)
}

// dispatchSuggestions pushes auto-suggested matches out through the
// configured channels. No channels configured means no work.
func (s *APIV1Service) dispatchSuggestions(suggestions []*matcher.Suggestion) {
	if !s.Notify.HasChannels() {
		return
	}
	for _, suggestion := range suggestions {
		s.Notify.DispatchAsync(notify.EventFromMatch(suggestion.Match, suggestion.Lost, suggestion.Found))
	}
}
