package infra

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"styleai/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		marker  string
		wantErr bool
	}{
		{
			name:   "valid",
			query:  "\n  --sql 58cb40bd-d38d-4fb0-bc37-48b35878a91f\nselect 1;\n",
			marker: "58cb40bd-d38d-4fb0-bc37-48b35878a91f",
		},
		{name: "missing", query: "select 1;", wantErr: true},
		{name: "uppercase uuid", query: "--sql 58CB40BD-D38D-4FB0-BC37-48B35878A91F\nselect 1;", wantErr: true},
		{name: "empty", query: "   ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := extractMarker(tc.query)
			if tc.wantErr {
				if !errors.Is(err, ErrMissingMarker) {
					t.Fatalf("expected ErrMissingMarker, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if marker != tc.marker {
				t.Fatalf("marker = %q, want %q", marker, tc.marker)
			}
			if strings.Contains(body, "--sql") {
				t.Fatalf("marker line leaked into body: %q", body)
			}
		})
	}
}

func TestInlineQueriesCarryMarkers(t *testing.T) {
	queries := map[string]string{
		"QInsertProcessedImage":      sqlinline.QInsertProcessedImage,
		"QListProcessedImagesByUser": sqlinline.QListProcessedImagesByUser,
		"QSelectProcessedImage":      sqlinline.QSelectProcessedImage,
		"QInsertSavedPrompt":         sqlinline.QInsertSavedPrompt,
		"QListSavedPromptsByUser":    sqlinline.QListSavedPromptsByUser,
		"QSelectSavedPrompt":         sqlinline.QSelectSavedPrompt,
		"QUpdateSavedPrompt":         sqlinline.QUpdateSavedPrompt,
		"QDeleteSavedPrompt":         sqlinline.QDeleteSavedPrompt,
		"QInsertUsageEvent":          sqlinline.QInsertUsageEvent,
		"QSelectIntegrationToken":    sqlinline.QSelectIntegrationToken,
		"QUpsertIntegrationToken":    sqlinline.QUpsertIntegrationToken,
		"QSchema":                    sqlinline.QSchema,
	}
	seen := map[string]string{}
	for name, q := range queries {
		marker, _, err := extractMarker(q)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if other, dup := seen[marker]; dup {
			t.Fatalf("%s reuses the marker of %s", name, other)
		}
		seen[marker] = name
	}
}

func TestRunnerRejectsUnmarkedQueries(t *testing.T) {
	r := NewSQLRunner(nil, zerolog.Nop())
	if _, err := r.Exec(context.Background(), "delete from saved_prompts"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Exec err = %v", err)
	}
	if _, err := r.Query(context.Background(), "select 1"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Query err = %v", err)
	}
	var v int
	if err := r.QueryRow(context.Background(), "select 1").Scan(&v); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("QueryRow err = %v", err)
	}
}
