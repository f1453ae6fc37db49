package domain

import "context"

// UsageEvent records the outcome of one enhancement request for analytics.
type UsageEvent struct {
	UserID     string
	RequestID  string
	EventType  string
	Success    bool
	LatencyMS  int
	Properties map[string]any
}

const (
	EventEnhance         = "image.enhance"
	EventEnhanceFallback = "image.enhance.fallback"
)

// UsageRepository stores usage events.
type UsageRepository interface {
	Record(ctx context.Context, ev UsageEvent) error
}
