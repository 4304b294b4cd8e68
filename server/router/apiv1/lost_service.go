package apiv1

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/matcher/phash"
	"github.com/JaCARYK/beartracks/store"
)

// maxRemotePhotoBytes caps the download of a referenced lost-item photo.
const maxRemotePhotoBytes = 10 << 20

type CreateLostItemRequest struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	Category           string `json:"category"`
	LastSeenLocationID int32  `json:"last_seen_location_id"`
	LastSeenAt         string `json:"last_seen_at"`
	ReporterName       string `json:"reporter_name"`
	ReporterEmail      string `json:"reporter_email"`
	PhotoURL           string `json:"photo_url"`

	// Aliases for clients that send ids and unix timestamps directly.
	LocationID int32 `json:"location_id"`
	LastSeenTs int64 `json:"last_seen_ts"`
}

// lastSeenAtLayouts are accepted for the last_seen_at field, tried in
// order.
var lastSeenAtLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

func (r *CreateLostItemRequest) locationID() int32 {
	if r.LastSeenLocationID != 0 {
		return r.LastSeenLocationID
	}
	return r.LocationID
}

func (r *CreateLostItemRequest) lastSeenTs() (int64, error) {
	if r.LastSeenAt != "" {
		for _, layout := range lastSeenAtLayouts {
			if ts, err := time.Parse(layout, r.LastSeenAt); err == nil {
				return ts.Unix(), nil
			}
		}
		return 0, errs.Validationf("last_seen_at", "unrecognized time %q", r.LastSeenAt)
	}
	if r.LastSeenTs != 0 {
		return r.LastSeenTs, nil
	}
	return time.Now().Unix(), nil
}

type LostItem struct {
	ID          string   `json:"id"`
	ReporterID  string   `json:"reporter_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	LocationID  int32    `json:"location_id"`
	PhotoURL    string   `json:"photo_url"`
	Resolved    bool     `json:"resolved"`
	LastSeenTs  int64    `json:"last_seen_ts"`
	CreatedTs   int64    `json:"created_ts"`
	Matches     []*Match `json:"matches,omitempty"`
}

// CreateLostItem records a lost report and immediately scans the open
// found inventory for it. The response carries any matches that cleared
// the suggest threshold so the reporter sees candidates right away.
func (s *APIV1Service) CreateLostItem(c echo.Context) error {
	ctx := c.Request().Context()
	request := &CreateLostItemRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	locationID := request.locationID()
	if _, err := s.Store.GetLocation(ctx, locationID); err != nil {
		return errorResponse(c, err)
	}
	lastSeenTs, err := request.lastSeenTs()
	if err != nil {
		return errorResponse(c, err)
	}
	reporterID, err := s.resolveReporter(ctx, c, request.ReporterEmail, request.ReporterName)
	if err != nil {
		return errorResponse(c, err)
	}

	item := &store.LostItem{
		ID:          uuid.NewString(),
		ReporterID:  reporterID,
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		LocationID:  locationID,
		PhotoURL:    request.PhotoURL,
		LastSeenTs:  lastSeenTs,
	}

	extractCtx, cancel := s.extractContext(ctx)
	vector, err := s.Embedder.EmbedText(extractCtx, item.Title+" "+item.Description)
	cancel()
	if err != nil {
		s.Metrics.ExtractionFailure("text")
		slog.Warn("text embedding failed, storing report without vector",
			slog.String("title", item.Title), slog.String("error", err.Error()))
	} else {
		item.TextEmbedding = vector
		item.EmbeddingModel = s.Embedder.Model()
	}

	if request.PhotoURL != "" {
		s.attachRemotePhoto(ctx, item)
	}

	created, err := s.Store.CreateLostItem(ctx, item)
	if err != nil {
		return errorResponse(c, err)
	}
	s.Metrics.ItemReported("lost")

	response := s.convertLostItem(created)
	suggestions, err := s.Ranker.OnLostItemCreated(ctx, created)
	if err != nil {
		slog.Error("match scan failed after lost intake",
			slog.String("lost", created.ID), slog.String("error", err.Error()))
	} else {
		s.dispatchSuggestions(suggestions)
		for _, suggestion := range suggestions {
			response.Matches = append(response.Matches, convertMatch(suggestion.Match))
		}
	}

	return c.JSON(http.StatusCreated, response)
}

type UpdateLostItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

// UpdateLostItem edits a report's text fields, recomputes the text
// embedding from the edited content and re-runs the match scan. Existing
// match rows are replaced rather than duplicated.
func (s *APIV1Service) UpdateLostItem(c echo.Context) error {
	ctx := c.Request().Context()
	request := &UpdateLostItemRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	item, err := s.Store.GetLostItem(ctx, c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	role, _ := c.Get(roleContextKey).(string)
	if item.ReporterID != currentUserID(c) && role != store.RoleOffice && role != store.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "only the reporter can edit this report")
	}

	title, description, category := item.Title, item.Description, item.Category
	if request.Title != nil {
		title = *request.Title
	}
	if request.Description != nil {
		description = *request.Description
	}
	if request.Category != nil {
		category = *request.Category
	}
	if title == "" {
		return errorResponse(c, errs.Validationf("title", "required"))
	}
	if !store.IsValidCategory(category) {
		return errorResponse(c, errs.Validationf("category", "unknown category %q", category))
	}

	update := &store.UpdateLostItem{
		ID:          item.ID,
		Title:       &title,
		Description: &description,
		Category:    &category,
	}
	extractCtx, cancel := s.extractContext(ctx)
	vector, err := s.Embedder.EmbedText(extractCtx, title+" "+description)
	cancel()
	if err != nil {
		s.Metrics.ExtractionFailure("text")
		slog.Warn("text embedding failed on edit, keeping report without vector",
			slog.String("lost", item.ID), slog.String("error", err.Error()))
	} else {
		update.TextEmbedding = vector
		model := s.Embedder.Model()
		update.EmbeddingModel = &model
	}

	updated, err := s.Store.UpdateLostItem(ctx, update)
	if err != nil {
		return errorResponse(c, err)
	}

	response := s.convertLostItem(updated)
	suggestions, err := s.Ranker.RescoreLost(ctx, updated)
	if err != nil {
		slog.Error("match rescan failed after edit",
			slog.String("lost", updated.ID), slog.String("error", err.Error()))
	} else {
		s.dispatchSuggestions(suggestions)
		for _, suggestion := range suggestions {
			response.Matches = append(response.Matches, convertMatch(suggestion.Match))
		}
	}
	return c.JSON(http.StatusOK, response)
}

// attachRemotePhoto fetches the referenced photo and derives its visual
// signals. Failures degrade to a text-only report.
func (s *APIV1Service) attachRemotePhoto(ctx context.Context, item *store.LostItem) {
	fetchCtx, cancel := s.extractContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, item.PhotoURL, nil)
	if err != nil {
		s.Metrics.ExtractionFailure("image")
		slog.Warn("bad photo url", slog.String("url", item.PhotoURL), slog.String("error", err.Error()))
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.Metrics.ExtractionFailure("image")
		slog.Warn("failed to fetch photo url", slog.String("url", item.PhotoURL), slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.Metrics.ExtractionFailure("image")
		slog.Warn("photo url returned non-200", slog.String("url", item.PhotoURL), slog.Int("status", resp.StatusCode))
		return
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemotePhotoBytes))
	if err != nil {
		s.Metrics.ExtractionFailure("image")
		return
	}

	if hash, err := phash.FromBytes(data); err != nil {
		s.Metrics.ExtractionFailure("phash")
	} else {
		item.PhotoHash = hash
		item.HasPhotoHash = true
	}
	if vector, err := s.Embedder.EmbedImage(fetchCtx, data); err != nil {
		s.Metrics.ExtractionFailure("image")
	} else {
		item.ImageEmbedding = vector
	}
}

func (s *APIV1Service) convertLostItem(item *store.LostItem) *LostItem {
	return &LostItem{
		ID:          item.ID,
		ReporterID:  item.ReporterID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		LocationID:  item.LocationID,
		PhotoURL:    item.PhotoURL,
		Resolved:    item.Resolved,
		LastSeenTs:  item.LastSeenTs,
		CreatedTs:   item.CreatedTs,
	}
}
