package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"styleai/internal/cinematic"
	"styleai/internal/domain"
	"styleai/internal/enhance"
	"styleai/internal/middleware"
	"styleai/pkg/zip"
)

const maxArchiveItems = 50

type stageJSON struct {
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type imageJSON struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Style            string    `json:"style"`
	Engine           string    `json:"engine"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	CameraMake       string    `json:"camera_make,omitempty"`
	CameraModel      string    `json:"camera_model,omitempty"`
	Country          string    `json:"country,omitempty"`
	DownloadURL      string    `json:"download_url"`
	CreatedAt        time.Time `json:"created_at"`
}

type enhanceResponse struct {
	Image          imageJSON   `json:"image"`
	ProcessedImage string      `json:"processed_image"`
	Engine         string      `json:"engine"`
	Model          string      `json:"model,omitempty"`
	Fallback       string      `json:"fallback,omitempty"`
	Mode           string      `json:"mode,omitempty"`
	Stages         []stageJSON `json:"stages,omitempty"`
	ProcessingMS   int64       `json:"processing_ms"`
}

func toImageJSON(img domain.ProcessedImage) imageJSON {
	return imageJSON{
		ID:               img.ID,
		Filename:         img.Filename,
		OriginalFilename: img.OriginalFilename,
		Style:            img.Style,
		Engine:           string(img.Engine),
		Width:            img.Width,
		Height:           img.Height,
		CameraMake:       img.CameraMake,
		CameraModel:      img.CameraModel,
		Country:          img.Country,
		DownloadURL:      "/v1/images/" + img.ID + "/download",
		CreatedAt:        img.CreatedAt,
	}
}

// EnhanceImage runs one upload through the enhancement service, stores the
// original and the result, and records the outcome.
func (a *App) EnhanceImage(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	in, err := a.parseEnhanceInput(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	mode, err := cinematic.ParseMode(in.Mode)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_mode", err.Error())
		return
	}
	if strings.TrimSpace(in.Mode) == "" {
		mode = ""
	}

	ctx := r.Context()
	requestID := middleware.RequestIDFromContext(ctx)
	started := time.Now()
	out, err := a.Enhancer.Process(ctx, enhance.Request{
		Image:       in.Image,
		Style:       in.Style,
		Mode:        mode,
		Instruction: in.Instruction,
		RequestID:   requestID,
	})
	if err != nil {
		a.recordUsage(ctx, userID, requestID, domain.EventEnhance, false, time.Since(started), map[string]any{"style": in.Style, "error": err.Error()})
		a.fail(w, r, err)
		return
	}

	id := uuid.NewString()
	origKey, err := a.Store.Write(ctx, originalKey(userID, id, in.Filename), in.Image, mime.TypeByExtension(path.Ext(in.Filename)))
	if err != nil {
		a.fail(w, r, fmt.Errorf("store original: %w", err))
		return
	}
	key, err := a.Store.Write(ctx, fmt.Sprintf("processed/%s/%s.%s", userID, id, out.Ext), out.Data, out.ContentType)
	if err != nil {
		a.discardBlobs(ctx, requestID, origKey)
		a.fail(w, r, fmt.Errorf("store processed: %w", err))
		return
	}

	record := &domain.ProcessedImage{
		ID:               id,
		UserID:           userID,
		Filename:         key,
		OriginalFilename: in.Filename,
		Style:            in.Style,
		Engine:           out.Engine,
		Width:            out.Width,
		Height:           out.Height,
		CameraMake:       out.CameraMake,
		CameraModel:      out.CameraModel,
		Country:          middleware.CountryFromContext(ctx),
	}
	if err := a.Images.Create(ctx, record); err != nil {
		a.discardBlobs(ctx, requestID, origKey, key)
		a.fail(w, r, fmt.Errorf("insert processed image: %w", err))
		return
	}

	event := domain.EventEnhance
	if out.Fallback != "" {
		event = domain.EventEnhanceFallback
	}
	a.recordUsage(ctx, userID, requestID, event, true, time.Since(started), map[string]any{
		"style":    in.Style,
		"engine":   string(out.Engine),
		"fallback": out.Fallback,
		"width":    out.Width,
		"height":   out.Height,
	})

	resp := enhanceResponse{
		Image:          toImageJSON(*record),
		ProcessedImage: "data:" + out.ContentType + ";base64," + base64.StdEncoding.EncodeToString(out.Data),
		Engine:         string(out.Engine),
		Model:          out.Model,
		Fallback:       out.Fallback,
		Mode:           string(out.Mode),
		ProcessingMS:   out.Took.Milliseconds(),
	}
	for _, st := range out.Stages {
		sj := stageJSON{Stage: string(st.Stage), Status: string(st.Status), DurationMS: st.Duration.Milliseconds()}
		if st.Err != nil {
			sj.Error = st.Err.Error()
		}
		resp.Stages = append(resp.Stages, sj)
	}
	a.json(w, http.StatusCreated, resp)
}

func originalKey(userID, id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("originals/%s/%s%s", userID, id, ext)
}

// recordUsage is best effort; a failed insert only logs.
// discardBlobs removes blobs written for a request that did not produce a
// record. It runs even when the request context is already cancelled.
func (a *App) discardBlobs(ctx context.Context, requestID string, keys ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := a.Store.Delete(ctx, key); err != nil {
			a.Logger.Warn().Err(err).
				Str("request_id", requestID).
				Str("key", key).
				Msg("handler: orphaned blob not removed")
		}
	}
}

func (a *App) recordUsage(ctx context.Context, userID, requestID, event string, success bool, took time.Duration, props map[string]any) {
	if a.Usage == nil {
		return
	}
	err := a.Usage.Record(ctx, domain.UsageEvent{
		UserID:     userID,
		RequestID:  requestID,
		EventType:  event,
		Success:    success,
		LatencyMS:  int(took.Milliseconds()),
		Properties: props,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Str("request_id", requestID).Msg("handler: usage event not recorded")
	}
}

func (a *App) ListImages(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	images, err := a.Images.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]imageJSON, 0, len(images))
	for _, img := range images {
		items = append(items, toImageJSON(img))
	}
	a.json(w, http.StatusOK, map[string]any{"images": items})
}

func (a *App) GetImage(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	img, err := a.Images.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"image": toImageJSON(*img)})
}

func (a *App) DownloadImage(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	img, err := a.Images.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	data, err := a.Store.Read(r.Context(), img.Filename)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ext := path.Ext(img.Filename)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": downloadName(*img)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// downloadName is "enhanced_<original stem><processed ext>".
func downloadName(img domain.ProcessedImage) string {
	stem := strings.TrimSuffix(img.OriginalFilename, path.Ext(img.OriginalFilename))
	if stem == "" {
		stem = img.ID
	}
	return "enhanced_" + stem + path.Ext(img.Filename)
}

// ArchiveImages zips the processed images named in ?ids=a,b,c.
func (a *App) ArchiveImages(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "ids required")
		return
	}
	if len(ids) > maxArchiveItems {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("at most %d ids per archive", maxArchiveItems))
		return
	}

	assets := make([]zip.Asset, len(ids))
	eg, egCtx := errgroup.WithContext(r.Context())
	eg.SetLimit(4)
	for i, id := range ids {
		eg.Go(func() error {
			img, err := a.Images.GetByID(egCtx, userID, id)
			if err != nil {
				return err
			}
			data, err := a.Store.Read(egCtx, img.Filename)
			if err != nil {
				return err
			}
			assets[i] = zip.Asset{Filename: downloadName(*img), Data: data}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		a.fail(w, r, err)
		return
	}

	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "enhanced_images.zip"}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
