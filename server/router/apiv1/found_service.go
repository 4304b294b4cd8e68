package apiv1

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/matcher/phash"
	"github.com/JaCARYK/beartracks/store"
)

// maxPhotoDimension is the longest edge stored photos are resized to.
const maxPhotoDimension = 1024

type FoundItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	LocationID  int32    `json:"location_id"`
	ReporterID  string   `json:"reporter_id"`
	Status      string   `json:"status"`
	PhotoURLs   []string `json:"photo_urls"`
	FoundTs     int64    `json:"found_ts"`
	CreatedTs   int64    `json:"created_ts"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CreateFoundItem handles the multipart intake form: text fields plus up
// to a handful of photos. Photo extraction is bounded and degradable; a
// corrupt photo never fails the report.
func (s *APIV1Service) CreateFoundItem(c echo.Context) error {
	ctx := c.Request().Context()

	locationID, err := strconv.Atoi(c.FormValue("location_id"))
	if err != nil {
		return errorResponse(c, errs.Validationf("location_id", "must be an integer"))
	}
	if _, err := s.Store.GetLocation(ctx, int32(locationID)); err != nil {
		return errorResponse(c, err)
	}

	foundTs, err := parseFoundTimestamp(c)
	if err != nil {
		return errorResponse(c, err)
	}

	reporterID, err := s.resolveReporter(ctx, c, c.FormValue("reporter_email"), c.FormValue("reporter_name"))
	if err != nil {
		return errorResponse(c, err)
	}

	item := &store.FoundItem{
		ID:          uuid.NewString(),
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		LocationID:  int32(locationID),
		ReporterID:  reporterID,
		FoundTs:     foundTs,
	}

	// Text embedding is best effort. A degraded report still matches on
	// tokens and proximity.
	extractCtx, cancel := s.extractContext(ctx)
	vector, err := s.Embedder.EmbedText(extractCtx, item.Title+" "+item.Description)
	cancel()
	if err != nil {
		s.Metrics.ExtractionFailure("text")
		slog.Warn("text embedding failed, storing item without vector",
			slog.String("title", item.Title), slog.String("error", err.Error()))
	} else {
		item.TextEmbedding = vector
		item.EmbeddingModel = s.Embedder.Model()
	}

	form, err := c.MultipartForm()
	if err == nil && form != nil {
		for position, header := range form.File["photos"] {
			photo, err := s.processPhoto(c, header, position)
			if err != nil {
				return errorResponse(c, err)
			}
			item.Photos = append(item.Photos, photo)
		}
	}

	created, err := s.Store.CreateFoundItem(ctx, item)
	if err != nil {
		return errorResponse(c, err)
	}
	s.Metrics.ItemReported("found")

	suggestions, err := s.Ranker.OnFoundItemCreated(ctx, created)
	if err != nil {
		slog.Error("match scan failed after found intake",
			slog.String("found", created.ID), slog.String("error", err.Error()))
	} else {
		s.dispatchSuggestions(suggestions)
	}

	return c.JSON(http.StatusCreated, s.convertFoundItem(created))
}

// parseFoundTimestamp reads the intake form's found_date and found_time
// fields, falling back to a raw found_ts unix value, then to now.
func parseFoundTimestamp(c echo.Context) (int64, error) {
	if date := c.FormValue("found_date"); date != "" {
		layout, value := "2006-01-02", date
		if clock := c.FormValue("found_time"); clock != "" {
			layout, value = "2006-01-02 15:04", date+" "+clock
		}
		ts, err := time.Parse(layout, value)
		if err != nil {
			return 0, errs.Validationf("found_date", "want YYYY-MM-DD with an optional HH:MM found_time, got %q", value)
		}
		return ts.Unix(), nil
	}
	if raw := c.FormValue("found_ts"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, errs.Validationf("found_ts", "must be a unix timestamp")
		}
		return ts, nil
	}
	return time.Now().Unix(), nil
}

// resolveReporter attributes the report. Intake forms carry the name and
// email of whoever walked up to the desk; without them the report is
// attributed to the authenticated caller.
func (s *APIV1Service) resolveReporter(ctx context.Context, c echo.Context, email, name string) (string, error) {
	if email == "" {
		return currentUserID(c), nil
	}
	reporter, err := s.Store.GetOrCreateUser(ctx, &store.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Role:  store.RoleStudent,
	})
	if err != nil {
		return "", err
	}
	return reporter.ID, nil
}

// processPhoto stores one uploaded photo and derives its perceptual hash
// and embedding. Everything past the disk write is best effort.
func (s *APIV1Service) processPhoto(c echo.Context, header *multipart.FileHeader, position int) (*store.Photo, error) {
	ctx := c.Request().Context()
	if err := s.photoSemaphore.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.photoSemaphore.Release(1)

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	photo := &store.Photo{
		ID:       uuid.NewString(),
		Position: position,
	}

	filename, err := s.savePhoto(data)
	if err != nil {
		return nil, err
	}
	photo.Filename = filename

	if hash, err := phash.FromBytes(data); err != nil {
		s.Metrics.ExtractionFailure("phash")
		slog.Warn("perceptual hash failed", slog.String("photo", filename), slog.String("error", err.Error()))
	} else {
		photo.Phash = hash
		photo.HasPhash = true
	}

	extractCtx, cancel := s.extractContext(ctx)
	defer cancel()
	if vector, err := s.Embedder.EmbedImage(extractCtx, data); err != nil {
		s.Metrics.ExtractionFailure("image")
		slog.Warn("image embedding failed", slog.String("photo", filename), slog.String("error", err.Error()))
	} else {
		photo.ImageEmbedding = vector
	}

	return photo, nil
}

// savePhoto writes the photo to the uploads directory, re-encoded as a
// bounded JPEG. Undecodable bytes are kept verbatim so the office still
// sees whatever was submitted.
func (s *APIV1Service) savePhoto(data []byte) (string, error) {
	dir := s.Profile.UploadsDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		filename := shortuuid.New() + ".bin"
		return filename, os.WriteFile(filepath.Join(dir, filename), data, 0o640)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxPhotoDimension || bounds.Dy() > maxPhotoDimension {
		img = imaging.Fit(img, maxPhotoDimension, maxPhotoDimension, imaging.Lanczos)
	}
	filename := shortuuid.New() + ".jpg"
	return filename, imaging.Save(img, filepath.Join(dir, filename), imaging.JPEGQuality(85))
}

func (s *APIV1Service) ListFoundItems(c echo.Context) error {
	ctx := c.Request().Context()
	find := &store.FindFoundItem{WithPhotos: true}

	if status := c.QueryParam("status"); status != "" {
		find.Status = &status
	}
	if category := c.QueryParam("category"); category != "" {
		find.Category = &category
	}
	if raw := c.QueryParam("location_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return errorResponse(c, errs.Validationf("location_id", "must be an integer"))
		}
		locationID := int32(id)
		find.LocationID = &locationID
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return errorResponse(c, errs.Validationf("limit", "must be a non-negative integer"))
		}
		find.Limit = &limit
	}
	if raw := c.QueryParam("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return errorResponse(c, errs.Validationf("skip", "must be a non-negative integer"))
		}
		find.Offset = &skip
	}

	items, err := s.Store.ListFoundItems(ctx, find)
	if err != nil {
		return errorResponse(c, err)
	}

	response := make([]*FoundItem, 0, len(items))
	for _, item := range items {
		response = append(response, s.convertFoundItem(item))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetFoundItem(c echo.Context) error {
	item, err := s.Store.GetFoundItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, s.convertFoundItem(item))
}

// UpdateFoundItemStatus is the office path for donation and disposal.
// Hold and claim transitions go through the claim workflow instead.
func (s *APIV1Service) UpdateFoundItemStatus(c echo.Context) error {
	request := &UpdateStatusRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Status == store.ItemStatusOnHold || request.Status == store.ItemStatusClaimed {
		return errorResponse(c, errs.Validationf("status", "use the claim workflow for %s", request.Status))
	}

	item, err := s.Store.UpdateFoundItemStatus(c.Request().Context(), &store.UpdateFoundItemStatus{
		ID:             c.Param("id"),
		Status:         request.Status,
		ExpectedStatus: []string{store.ItemStatusAvailable},
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, s.convertFoundItem(item))
}

func (s *APIV1Service) convertFoundItem(item *store.FoundItem) *FoundItem {
	response := &FoundItem{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		LocationID:  item.LocationID,
		ReporterID:  item.ReporterID,
		Status:      item.Status,
		PhotoURLs:   []string{},
		FoundTs:     item.FoundTs,
		CreatedTs:   item.CreatedTs,
	}
	for _, photo := range item.Photos {
		response.PhotoURLs = append(response.PhotoURLs, "/uploads/"+photo.Filename)
	}
	return response
}

// extractContext bounds one extraction call by the configured timeout.
func (s *APIV1Service) extractContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.Profile.ExtractTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
