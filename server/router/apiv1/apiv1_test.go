package apiv1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/JaCARYK/beartracks/claims"
	"github.com/JaCARYK/beartracks/internal/metrics"
	"github.com/JaCARYK/beartracks/internal/profile"
	"github.com/JaCARYK/beartracks/matcher"
	"github.com/JaCARYK/beartracks/matcher/embedding"
	"github.com/JaCARYK/beartracks/plugin/notify"
	"github.com/JaCARYK/beartracks/store"
	"github.com/JaCARYK/beartracks/store/db/sqlite"
)

type testEnv struct {
	echo    *echo.Echo
	service *APIV1Service
	store   *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	p := &profile.Profile{
		Mode:                  "dev",
		Data:                  dir,
		Driver:                "sqlite",
		DSN:                   filepath.Join(dir, "test.db"),
		Secret:                "test-secret",
		EmbeddingDim:          64,
		MatchTextWeight:       0.5,
		MatchImageWeight:      0.2,
		MatchProximityWeight:  0.3,
		MatchCategoryRequired: true,
		MatchTimeWindowDays:   30,
		MatchProximityDecay:   3,
		MatchSuggestThreshold: 0.55,
		MatchStoreThreshold:   0.30,
		MatchPhashCutoff:      16,
		ExtractTimeoutSeconds: 5,
		HoldCodeLength:        6,
	}

	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	embedder, err := embedding.NewService(embedding.Config{Provider: "local", Dimension: p.EmbeddingDim})
	require.NoError(t, err)

	exporter := metrics.New()
	ranker := matcher.NewRanker(st, matcher.WeightsFromProfile(p), exporter)
	machine := claims.NewMachine(st, exporter, p.HoldCodeLength)

	service := NewAPIV1Service(p.Secret, p, st, embedder, ranker, machine, notify.NewDispatcher(), exporter)
	e := echo.New()
	service.Register(e)

	return &testEnv{echo: e, service: service, store: st}
}

func (env *testEnv) register(t *testing.T, email, name string) string {
	t.Helper()
	body, _ := json.Marshal(&RegisterRequest{Email: email, Name: name})
	rec := env.do(t, http.MethodPost, "/api/auth/register", "", "application/json", bytes.NewReader(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	response := &AuthResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), response))
	return response.Token
}

func (env *testEnv) officeToken(t *testing.T, email string) string {
	t.Helper()
	user, err := env.store.GetOrCreateUser(context.Background(), &store.User{
		ID:    email,
		Email: email,
		Name:  "Office Staff",
		Role:  store.RoleOffice,
	})
	require.NoError(t, err)
	token, err := env.service.signToken(user)
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token, contentType string, body *bytes.Reader) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return env.do(t, method, path, token, "application/json", bytes.NewReader(body))
}

// multipartFoundItem builds a found-item intake form, optionally with
// photo payloads.
func multipartFoundItem(t *testing.T, fields map[string]string, photos map[string][]byte) (*bytes.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for name, data := range photos {
		part, err := writer.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return bytes.NewReader(buf.Bytes()), writer.FormDataContentType()
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, c)
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/found", "", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "josie@ucla.edu", "Josie Bruin")
	require.NotEmpty(t, token)

	rec := env.doJSON(t, http.MethodPost, "/api/auth/login", "", &LoginRequest{Email: "josie@ucla.edu"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.doJSON(t, http.MethodPost, "/api/auth/login", "", &LoginRequest{Email: "nobody@ucla.edu"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateFoundItemWithPhoto(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "finder@ucla.edu", "Finder")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Blue Hydro Flask",
		"description": "32oz blue bottle with stickers",
		"category":    "bottles",
		"location_id": "1",
	}, map[string][]byte{"bottle.png": pngBytes(t, color.RGBA{R: 20, G: 60, B: 200, A: 255})})

	rec := env.do(t, http.MethodPost, "/api/found", token, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	item := &FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), item))
	require.Equal(t, store.ItemStatusAvailable, item.Status)
	require.Len(t, item.PhotoURLs, 1)
	require.True(t, strings.HasPrefix(item.PhotoURLs[0], "/uploads/"))
}

func TestCreateFoundItemCorruptPhotoStillCreated(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "finder@ucla.edu", "Finder")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Black Umbrella",
		"category":    "accessories",
		"location_id": "1",
	}, map[string][]byte{"broken.jpg": []byte("not an image at all")})

	rec := env.do(t, http.MethodPost, "/api/found", token, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	item := &FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), item))
	require.Len(t, item.PhotoURLs, 1)
}

func TestCreateFoundItemUnknownLocation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "finder@ucla.edu", "Finder")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Laptop",
		"category":    "electronics",
		"location_id": "9999",
	}, nil)

	rec := env.do(t, http.MethodPost, "/api/found", token, contentType, body)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLostItemIntakeReturnsMatches(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "student@ucla.edu", "Student")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Blue Hydro Flask",
		"description": "32oz blue bottle covered in stickers",
		"category":    "bottles",
		"location_id": "1",
	}, nil)
	rec := env.do(t, http.MethodPost, "/api/found", token, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.doJSON(t, http.MethodPost, "/api/lost", token, &CreateLostItemRequest{
		Title:       "Blue Hydro Flask",
		Description: "32oz blue bottle covered in stickers",
		Category:    "bottles",
		LocationID:  1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	lost := &LostItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), lost))
	require.NotEmpty(t, lost.Matches, "identical report should match")

	rec = env.do(t, http.MethodGet, "/api/lost/"+lost.ID+"/matches", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	matches := []*Match{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
}

func TestDismissMatchSuppressed(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "student@ucla.edu", "Student")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Silver MacBook",
		"description": "13 inch laptop with a UCLA sticker",
		"category":    "electronics",
		"location_id": "2",
	}, nil)
	rec := env.do(t, http.MethodPost, "/api/found", token, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/lost", token, &CreateLostItemRequest{
		Title:       "Silver MacBook",
		Description: "13 inch laptop with a UCLA sticker",
		Category:    "electronics",
		LocationID:  2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	lost := &LostItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), lost))
	require.NotEmpty(t, lost.Matches)

	rec = env.doJSON(t, http.MethodPut, "/api/matches/"+lost.Matches[0].ID+"/dismiss", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/lost/"+lost.ID+"/matches", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	matches := []*Match{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Empty(t, matches)
}

func TestIntakeAcceptsFrontEndFieldNames(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "deskworker@ucla.edu", "Desk Worker")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":          "Casio Watch",
		"category":       "accessories",
		"location_id":    "1",
		"found_date":     "2026-08-30",
		"found_time":     "14:30",
		"reporter_name":  "Walk In",
		"reporter_email": "walkin@ucla.edu",
	}, nil)
	rec := env.do(t, http.MethodPost, "/api/found", token, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	item := &FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), item))
	wantFound, err := time.Parse("2006-01-02 15:04", "2026-08-30 14:30")
	require.NoError(t, err)
	require.Equal(t, wantFound.Unix(), item.FoundTs)

	// The report belongs to the walk-in finder, not the desk account.
	email := "walkin@ucla.edu"
	walkIn, err := env.store.GetUser(context.Background(), &store.FindUser{Email: &email})
	require.NoError(t, err)
	require.NotNil(t, walkIn)
	require.Equal(t, walkIn.ID, item.ReporterID)

	rec = env.doJSON(t, http.MethodPost, "/api/lost", token, &CreateLostItemRequest{
		Title:              "Casio Watch",
		Category:           "accessories",
		LastSeenLocationID: 1,
		LastSeenAt:         "2026-08-29 09:15",
		ReporterName:       "Owner",
		ReporterEmail:      "owner@ucla.edu",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	lost := &LostItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), lost))
	require.Equal(t, int32(1), lost.LocationID)
	wantSeen, err := time.Parse("2006-01-02 15:04", "2026-08-29 09:15")
	require.NoError(t, err)
	require.Equal(t, wantSeen.Unix(), lost.LastSeenTs)
	require.NotEqual(t, item.ReporterID, lost.ReporterID)

	// A malformed date is rejected before anything is stored.
	body, contentType = multipartFoundItem(t, map[string]string{
		"title":       "Casio Watch",
		"category":    "accessories",
		"location_id": "1",
		"found_date":  "yesterday",
	}, nil)
	rec = env.do(t, http.MethodPost, "/api/found", token, contentType, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLostItemRescores(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "student@ucla.edu", "Student")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Blue Hydro Flask",
		"description": "32oz blue bottle covered in stickers",
		"category":    "bottles",
		"location_id": "1",
	}, nil)
	rec := env.do(t, http.MethodPost, "/api/found", token, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	// The initial report describes something else entirely.
	rec = env.doJSON(t, http.MethodPost, "/api/lost", token, &CreateLostItemRequest{
		Title:       "Ceramic Mug",
		Description: "white mug with a chipped handle",
		Category:    "bottles",
		LocationID:  1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	lost := &LostItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), lost))
	require.Empty(t, lost.Matches)

	// Another student cannot edit the report.
	other := env.register(t, "other@ucla.edu", "Other Student")
	title := "Blue Hydro Flask"
	description := "32oz blue bottle covered in stickers"
	rec = env.doJSON(t, http.MethodPut, "/api/lost/"+lost.ID, other, &UpdateLostItemRequest{Title: &title})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The reporter corrects the description and the scan finds the bottle.
	rec = env.doJSON(t, http.MethodPut, "/api/lost/"+lost.ID, token, &UpdateLostItemRequest{
		Title:       &title,
		Description: &description,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := &LostItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), updated))
	require.NotEmpty(t, updated.Matches)

	// Re-scoring replaced the pair's row instead of duplicating it.
	rec = env.do(t, http.MethodGet, "/api/lost/"+lost.ID+"/matches", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	matches := []*Match{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
}

func TestClaimWorkflow(t *testing.T) {
	env := newTestEnv(t)
	student := env.register(t, "student@ucla.edu", "Student")
	office := env.officeToken(t, "office@ucla.edu")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Black Umbrella",
		"category":    "accessories",
		"location_id": "1",
	}, nil)
	rec := env.do(t, http.MethodPost, "/api/found", student, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	item := &FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), item))

	// Claim it.
	rec = env.doJSON(t, http.MethodPost, "/api/claims", student, &CreateClaimRequest{FoundID: item.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	claim := &Claim{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), claim))
	require.Equal(t, store.ClaimStatusRequested, claim.Status)
	require.Len(t, claim.HoldCode, 6)

	// A second claim conflicts and reports the current status.
	other := env.register(t, "other@ucla.edu", "Other Student")
	rec = env.doJSON(t, http.MethodPost, "/api/claims", other, &CreateClaimRequest{FoundID: item.ID})
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflict))
	require.Equal(t, store.ItemStatusOnHold, conflict["current_status"])

	// Students cannot verify.
	rec = env.doJSON(t, http.MethodPut, "/api/claims/"+claim.ID+"/verify", student, &VerifyClaimRequest{Decision: "verified"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Office verifies and confirms pickup.
	rec = env.doJSON(t, http.MethodPut, "/api/claims/"+claim.ID+"/verify", office, &VerifyClaimRequest{Decision: "verified"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.doJSON(t, http.MethodPut, "/api/claims/"+claim.ID+"/pickup", office, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	picked := &Claim{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), picked))
	require.Equal(t, store.ClaimStatusPickedUp, picked.Status)

	rec = env.do(t, http.MethodGet, "/api/found/"+item.ID, student, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := &FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), fetched))
	require.Equal(t, store.ItemStatusClaimed, fetched.Status)
}

func TestVerifyUnknownDecision(t *testing.T) {
	env := newTestEnv(t)
	office := env.officeToken(t, "office@ucla.edu")
	rec := env.doJSON(t, http.MethodPut, "/api/claims/whatever/verify", office, &VerifyClaimRequest{Decision: "maybe"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPickupBeforeVerifyRejected(t *testing.T) {
	env := newTestEnv(t)
	student := env.register(t, "student@ucla.edu", "Student")
	office := env.officeToken(t, "office@ucla.edu")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Keys",
		"category":    "keys",
		"location_id": "1",
	}, nil)
	rec := env.do(t, http.MethodPost, "/api/found", student, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	item := &FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), item))

	rec = env.doJSON(t, http.MethodPost, "/api/claims", student, &CreateClaimRequest{FoundID: item.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	claim := &Claim{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), claim))

	rec = env.doJSON(t, http.MethodPut, "/api/claims/"+claim.ID+"/pickup", office, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	response := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, store.ClaimStatusRequested, response["current_state"])
}

func TestOfficeStatusUpdate(t *testing.T) {
	env := newTestEnv(t)
	student := env.register(t, "student@ucla.edu", "Student")
	office := env.officeToken(t, "office@ucla.edu")

	body, contentType := multipartFoundItem(t, map[string]string{
		"title":       "Old Textbook",
		"category":    "books",
		"location_id": "1",
	}, nil)
	rec := env.do(t, http.MethodPost, "/api/found", student, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	item := &FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), item))

	// Students cannot change status.
	rec = env.doJSON(t, http.MethodPut, "/api/found/"+item.ID+"/status", student, &UpdateStatusRequest{Status: store.ItemStatusDonated})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Hold and claim go through the workflow, not this endpoint.
	rec = env.doJSON(t, http.MethodPut, "/api/found/"+item.ID+"/status", office, &UpdateStatusRequest{Status: store.ItemStatusOnHold})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(t, http.MethodPut, "/api/found/"+item.ID+"/status", office, &UpdateStatusRequest{Status: store.ItemStatusDonated})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := &FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), updated))
	require.Equal(t, store.ItemStatusDonated, updated.Status)
}

func TestListLocations(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "student@ucla.edu", "Student")

	rec := env.do(t, http.MethodGet, "/api/locations", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	locations := []*Location{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &locations))
	require.NotEmpty(t, locations)
}

func TestStatsAgreeWithListings(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "student@ucla.edu", "Student")

	for i := 0; i < 3; i++ {
		body, contentType := multipartFoundItem(t, map[string]string{
			"title":       fmt.Sprintf("Water Bottle %d", i),
			"category":    "bottles",
			"location_id": "1",
		}, nil)
		rec := env.do(t, http.MethodPost, "/api/found", token, contentType, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/stats", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := &store.Stats{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), stats))
	require.Equal(t, 3, stats.TotalItems)
	require.Equal(t, 3, stats.AvailableItems)

	rec = env.do(t, http.MethodGet, "/api/found?status=available", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := []*FoundItem{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, stats.AvailableItems)

	// A new lost report shows up in stats right away, cache or not.
	rec = env.doJSON(t, http.MethodPost, "/api/lost", token, &CreateLostItemRequest{
		Title:              "Calculus Textbook",
		Category:           "books",
		LastSeenLocationID: 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stats", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), stats))
	require.Equal(t, 1, stats.OpenLostItems)
}

func TestFoundItemsFeedOnlyAvailable(t *testing.T) {
	env := newTestEnv(t)
	student := env.register(t, "student@ucla.edu", "Student")
	office := env.officeToken(t, "office@ucla.edu")

	titles := []string{"Red Scarf", "Green Jacket"}
	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		body, contentType := multipartFoundItem(t, map[string]string{
			"title":       title,
			"category":    "clothing",
			"location_id": "1",
		}, nil)
		rec := env.do(t, http.MethodPost, "/api/found", student, contentType, body)
		require.Equal(t, http.StatusCreated, rec.Code)
		item := &FoundItem{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), item))
		ids = append(ids, item.ID)
	}

	rec := env.doJSON(t, http.MethodPut, "/api/found/"+ids[0]+"/status", office, &UpdateStatusRequest{Status: store.ItemStatusDisposed})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/feed/found.rss", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := rec.Body.String()
	require.Contains(t, feed, "Green Jacket")
	require.NotContains(t, feed, "Red Scarf")
}
