package domain

import "time"

// Engine names the component that produced a processed image.
type Engine string

const (
	EngineGenerative Engine = "generative"
	EngineCinematic  Engine = "cinematic"
)

// ProcessedImage is the persisted record of one enhancement.
type ProcessedImage struct {
	ID               string
	UserID           string
	Filename         string
	OriginalFilename string
	Style            string
	Engine           Engine
	Width            int
	Height           int
	CameraMake       string
	CameraModel      string
	Country          string
	CreatedAt        time.Time
}
