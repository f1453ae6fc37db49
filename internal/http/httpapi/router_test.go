package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"styleai/internal/domain"
	"styleai/internal/enhance"
	"styleai/internal/http/handlers"
	"styleai/internal/middleware"
	"styleai/internal/storage"
)

const testSecret = "router-secret"

type memImages struct {
	mu   sync.Mutex
	rows map[string]domain.ProcessedImage
}

func (m *memImages) Create(ctx context.Context, img *domain.ProcessedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img.CreatedAt = time.Now().UTC()
	m.rows[img.ID] = *img
	return nil
}

func (m *memImages) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ProcessedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ProcessedImage
	for _, img := range m.rows {
		if img.UserID == userID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memImages) GetByID(ctx context.Context, userID, id string) (*domain.ProcessedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.rows[id]
	if !ok || img.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &img, nil
}

type memPrompts struct {
	mu   sync.Mutex
	rows map[string]domain.SavedPrompt
}

func (m *memPrompts) Create(ctx context.Context, p *domain.SavedPrompt) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	m.rows[p.ID] = *p
	return nil
}

func (m *memPrompts) ListByUser(ctx context.Context, userID string) ([]domain.SavedPrompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.SavedPrompt{}
	for _, p := range m.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPrompts) GetByID(ctx context.Context, userID, id string) (*domain.SavedPrompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memPrompts) Update(ctx context.Context, p *domain.SavedPrompt) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = *p
	return nil
}

func (m *memPrompts) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memUsage struct {
	mu     sync.Mutex
	events []domain.UsageEvent
}

func (m *memUsage) Record(ctx context.Context, ev domain.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

type fixture struct {
	handler http.Handler
	images  *memImages
	usage   *memUsage
	store   *storage.FileStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		images: &memImages{rows: map[string]domain.ProcessedImage{}},
		usage:  &memUsage{},
		store:  store,
	}
	app := &handlers.App{
		Logger:   zerolog.Nop(),
		Enhancer: enhance.NewService(enhance.Options{Concurrency: 2, Logger: zerolog.Nop()}),
		Images:   f.images,
		Prompts:  &memPrompts{rows: map[string]domain.SavedPrompt{}},
		Usage:    f.usage,
		Store:    store,
		Model:    "gemini-test",
	}
	f.handler = NewRouter(app, Options{
		JWTSecret:         testSecret,
		CORSOrigins:       []string{"*"},
		IPRateLimitPerMin: 100,
		CountryLookup:     func(string) (string, error) { return "id", nil },
		Logger:            zerolog.Nop(),
	})
	return f
}

func token(t *testing.T, sub string) string {
	t.Helper()
	tok, err := middleware.SignJWT(testSecret, middleware.TokenClaims{Sub: sub, Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (f *fixture) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:4000"
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func testPNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(15 * y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/v1/healthz", "/v1/styles", "/v1/rate-limit"} {
		if rec := f.do(t, http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
	if rec := f.do(t, http.MethodGet, "/v1/images", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /v1/images status = %d", rec.Code)
	}
}

func TestEnhanceDownloadAndArchive(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/images/enhance", "user-1", map[string]string{
		"image":       testPNG(t),
		"filename":    "street.png",
		"instruction": "more dramatic lighting",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("enhance status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Image struct {
			ID          string `json:"id"`
			Engine      string `json:"engine"`
			Width       int    `json:"width"`
			Height      int    `json:"height"`
			Country     string `json:"country"`
			DownloadURL string `json:"download_url"`
		} `json:"image"`
		ProcessedImage string `json:"processed_image"`
		Mode           string `json:"mode"`
		Stages         []struct {
			Stage  string `json:"stage"`
			Status string `json:"status"`
		} `json:"stages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Image.Engine != "cinematic" || resp.Image.Width != 24 || resp.Image.Height != 16 || resp.Image.Country != "ID" {
		t.Fatalf("unexpected image %+v", resp.Image)
	}
	if resp.Mode != "prompt_guided" || len(resp.Stages) != 6 {
		t.Fatalf("mode=%s stages=%d", resp.Mode, len(resp.Stages))
	}
	if !strings.HasPrefix(resp.ProcessedImage, "data:image/png;base64,") {
		t.Fatalf("processed image prefix: %.40s", resp.ProcessedImage)
	}
	if len(f.usage.events) != 1 || !f.usage.events[0].Success {
		t.Fatalf("usage events = %+v", f.usage.events)
	}

	dl := f.do(t, http.MethodGet, resp.Image.DownloadURL, "user-1", nil)
	if dl.Code != http.StatusOK || dl.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("download status=%d type=%s", dl.Code, dl.Header().Get("Content-Type"))
	}
	if !strings.Contains(dl.Header().Get("Content-Disposition"), "enhanced_street.png") {
		t.Fatalf("disposition = %s", dl.Header().Get("Content-Disposition"))
	}
	if _, err := png.Decode(bytes.NewReader(dl.Body.Bytes())); err != nil {
		t.Fatalf("download is not a png: %v", err)
	}

	if other := f.do(t, http.MethodGet, resp.Image.DownloadURL, "user-2", nil); other.Code != http.StatusNotFound {
		t.Fatalf("other user download status = %d", other.Code)
	}

	ar := f.do(t, http.MethodGet, "/v1/images/archive?ids="+resp.Image.ID, "user-1", nil)
	if ar.Code != http.StatusOK {
		t.Fatalf("archive status = %d body=%s", ar.Code, ar.Body.String())
	}
	zr, err := zip.NewReader(bytes.NewReader(ar.Body.Bytes()), int64(ar.Body.Len()))
	if err != nil || len(zr.File) != 1 || zr.File[0].Name != "enhanced_street.png" {
		t.Fatalf("archive entries: %v", err)
	}

	if missing := f.do(t, http.MethodGet, "/v1/images/archive?ids="+resp.Image.ID+","+uuid.NewString(), "user-1", nil); missing.Code != http.StatusNotFound {
		t.Fatalf("archive with unknown id status = %d", missing.Code)
	}

	list := f.do(t, http.MethodGet, "/v1/images", "user-1", nil)
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), resp.Image.ID) {
		t.Fatalf("list status=%d body=%s", list.Code, list.Body.String())
	}
}

func TestEnhanceRejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		body map[string]string
		code int
	}{
		{name: "missing image", body: map[string]string{}, code: http.StatusBadRequest},
		{name: "not an image", body: map[string]string{"image": base64.StdEncoding.EncodeToString([]byte("hello"))}, code: http.StatusBadRequest},
		{name: "unknown style", body: map[string]string{"image": testPNG(t), "style": "sketch"}, code: http.StatusBadRequest},
		{name: "unknown mode", body: map[string]string{"image": testPNG(t), "mode": "turbo"}, code: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := f.do(t, http.MethodPost, "/v1/images/enhance", "user-1", tc.body); rec.Code != tc.code {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.code, rec.Body.String())
			}
		})
	}
}

func TestPromptCRUD(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/prompts", "user-1", map[string]any{"title": "Noir", "prompt_text": "deep shadows"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		Prompt domain.SavedPrompt `json:"prompt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Prompt.StyleType != "custom" {
		t.Fatalf("style type = %q", created.Prompt.StyleType)
	}

	if bad := f.do(t, http.MethodPost, "/v1/prompts", "user-1", map[string]any{"title": "x"}); bad.Code != http.StatusBadRequest {
		t.Fatalf("invalid prompt status = %d", bad.Code)
	}

	upd := f.do(t, http.MethodPut, "/v1/prompts/"+created.Prompt.ID, "user-1", map[string]any{"is_favorite": true})
	if upd.Code != http.StatusOK || !strings.Contains(upd.Body.String(), `"is_favorite":true`) || !strings.Contains(upd.Body.String(), "deep shadows") {
		t.Fatalf("update status=%d body=%s", upd.Code, upd.Body.String())
	}

	if other := f.do(t, http.MethodDelete, "/v1/prompts/"+created.Prompt.ID, "user-2", nil); other.Code != http.StatusNotFound {
		t.Fatalf("cross-user delete status = %d", other.Code)
	}
	if del := f.do(t, http.MethodDelete, "/v1/prompts/"+created.Prompt.ID, "user-1", nil); del.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", del.Code)
	}
	list := f.do(t, http.MethodGet, "/v1/prompts", "user-1", nil)
	if list.Code != http.StatusOK || strings.Contains(list.Body.String(), created.Prompt.ID) {
		t.Fatalf("list after delete: %s", list.Body.String())
	}
}

func TestIPRateLimitOnEnhance(t *testing.T) {
	f := newFixture(t)
	f.handler = NewRouter(&handlers.App{Logger: zerolog.Nop()}, Options{
		JWTSecret:         testSecret,
		IPRateLimitPerMin: 1,
		Logger:            zerolog.Nop(),
	})
	// The first call fails validation but still counts against the limit.
	_ = f.do(t, http.MethodPost, "/v1/images/enhance", "user-1", map[string]string{})
	if rec := f.do(t, http.MethodPost, "/v1/images/enhance", "user-1", map[string]string{}); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}
