package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"styleai/internal/domain"
	"styleai/internal/sqlinline"
)

var fixedTime = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

func imageRow(id, user string) []any {
	return []any{id, user, "processed/a.jpg", "a.jpg", "cinematic", "cinematic", 640, 480, "Canon", "EOS R5", "ID", fixedTime}
}

func TestProcessedImageCreate(t *testing.T) {
	exec := &fakeExecutor{row: []any{fixedTime}}
	repo := NewProcessedImageRepository(exec)
	img := &domain.ProcessedImage{UserID: "u1", Filename: "processed/a.jpg", Engine: domain.EngineGenerative, Width: 10, Height: 20}
	if err := repo.Create(context.Background(), img); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := uuid.Parse(img.ID); err != nil {
		t.Fatalf("id not assigned: %q", img.ID)
	}
	if !img.CreatedAt.Equal(fixedTime) {
		t.Fatalf("CreatedAt = %v", img.CreatedAt)
	}
	if exec.lastQuery != sqlinline.QInsertProcessedImage || len(exec.lastArgs) != 11 {
		t.Fatalf("unexpected statement %d args", len(exec.lastArgs))
	}
	if exec.lastArgs[5] != "generative" {
		t.Fatalf("engine arg = %v", exec.lastArgs[5])
	}
}

func TestProcessedImageList(t *testing.T) {
	id1, id2 := uuid.NewString(), uuid.NewString()
	exec := &fakeExecutor{rows: [][]any{imageRow(id1, "u1"), imageRow(id2, "u1")}}
	repo := NewProcessedImageRepository(exec)

	got, err := repo.ListByUser(context.Background(), "u1", 0, -5)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != id1 || got[1].CameraModel != "EOS R5" || got[0].Engine != domain.EngineCinematic {
		t.Fatalf("unexpected rows %+v", got)
	}
	if exec.lastArgs[1] != 50 || exec.lastArgs[2] != 0 {
		t.Fatalf("paging args = %v", exec.lastArgs)
	}
}

func TestProcessedImageGetByID(t *testing.T) {
	id := uuid.NewString()
	exec := &fakeExecutor{row: imageRow(id, "u1")}
	repo := NewProcessedImageRepository(exec)

	img, err := repo.GetByID(context.Background(), "u1", id)
	if err != nil || img.ID != id || img.Country != "ID" {
		t.Fatalf("GetByID = %+v, %v", img, err)
	}

	if _, err := NewProcessedImageRepository(&fakeExecutor{}).GetByID(context.Background(), "u1", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing row err = %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "u1", "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bad id err = %v", err)
	}
}

func promptRow(id string, fav bool) []any {
	return []any{id, "u1", "Moody", "darker shadows", "custom", fav, fixedTime, fixedTime}
}

func TestPromptCreateValidates(t *testing.T) {
	exec := &fakeExecutor{row: []any{fixedTime, fixedTime}}
	repo := NewPromptRepository(exec)

	p := &domain.SavedPrompt{UserID: "u1", Title: "  Moody ", PromptText: "darker shadows"}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Title != "Moody" || p.StyleType != "custom" || p.ID == "" {
		t.Fatalf("prompt not normalized: %+v", p)
	}

	exec.lastQuery = ""
	if err := repo.Create(context.Background(), &domain.SavedPrompt{UserID: "u1", Title: "x"}); !errors.Is(err, domain.ErrInvalidPrompt) {
		t.Fatalf("err = %v", err)
	}
	if exec.lastQuery != "" {
		t.Fatal("invalid prompt reached the database")
	}
}

func TestPromptList(t *testing.T) {
	a, b := uuid.NewString(), uuid.NewString()
	exec := &fakeExecutor{rows: [][]any{promptRow(a, true), promptRow(b, false)}}
	got, err := NewPromptRepository(exec).ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || !got[0].IsFavorite || got[1].ID != b {
		t.Fatalf("unexpected prompts %+v", got)
	}
}

func TestPromptUpdateAndDelete(t *testing.T) {
	id := uuid.NewString()
	later := fixedTime.Add(time.Hour)
	exec := &fakeExecutor{row: []any{later}}
	repo := NewPromptRepository(exec)

	p := &domain.SavedPrompt{ID: id, UserID: "u1", Title: "t", PromptText: "p"}
	if err := repo.Update(context.Background(), p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !p.UpdatedAt.Equal(later) {
		t.Fatalf("UpdatedAt = %v", p.UpdatedAt)
	}
	if err := NewPromptRepository(&fakeExecutor{}).Update(context.Background(), p); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update missing err = %v", err)
	}

	exec.tag = pgconn.NewCommandTag("DELETE 1")
	if err := repo.Delete(context.Background(), "u1", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exec.tag = pgconn.NewCommandTag("DELETE 0")
	if err := repo.Delete(context.Background(), "u1", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete missing err = %v", err)
	}
}

func TestUsageRecord(t *testing.T) {
	exec := &fakeExecutor{}
	repo := NewUsageRepository(exec)
	err := repo.Record(context.Background(), domain.UsageEvent{
		UserID:     "u1",
		RequestID:  "r1",
		EventType:  domain.EventEnhance,
		Success:    true,
		LatencyMS:  120,
		Properties: map[string]any{"engine": "cinematic"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	var props map[string]string
	if err := json.Unmarshal(exec.lastArgs[5].([]byte), &props); err != nil || props["engine"] != "cinematic" {
		t.Fatalf("properties = %s (%v)", exec.lastArgs[5], err)
	}

	if err := repo.Record(context.Background(), domain.UsageEvent{UserID: "u1", EventType: domain.EventEnhance}); err != nil {
		t.Fatalf("Record without properties: %v", err)
	}
	if exec.lastArgs[5].([]byte) != nil {
		t.Fatalf("expected nil properties, got %s", exec.lastArgs[5])
	}
}
