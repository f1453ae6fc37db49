package cinematic

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// State is a step of a pipeline run.
type State string

const (
	StateIdle          State = "idle"
	StatePreprocessing State = "preprocessing"
	StateLighting      State = "lighting"
	StateComposition   State = "composition"
	StateColorGrading  State = "color_grading"
	StateDetail        State = "detail"
	StatePolish        State = "polish"
	StateStageError    State = "stage_error"
	StateDone          State = "done"
)

var stageStates = map[StageName]State{
	StagePreprocess:   StatePreprocessing,
	StageLighting:     StateLighting,
	StageComposition:  StateComposition,
	StageColorGrading: StateColorGrading,
	StageDetail:       StateDetail,
	StagePolish:       StatePolish,
}

// StageStatus is the outcome of one stage in a run.
type StageStatus string

const (
	StatusApplied StageStatus = "applied"
	StatusSkipped StageStatus = "skipped"
	StatusFailed  StageStatus = "failed"
)

// StageResult describes what happened to one stage. Failed stages carry a
// *StageError and contributed no change.
type StageResult struct {
	Stage    StageName
	Status   StageStatus
	Err      error
	Duration time.Duration
}

// Result is the output of a run.
type Result struct {
	Raster    Raster
	Mode      Mode
	Selection Selection
	Groups    []string
	Stages    []StageResult
}

// Failed returns the stages that degraded to pass-through.
func (r Result) Failed() []StageName {
	var out []StageName
	for _, s := range r.Stages {
		if s.Status == StatusFailed {
			out = append(out, s.Stage)
		}
	}
	return out
}

// Observer is notified of state transitions and stage outcomes. It is
// called synchronously from Run.
type Observer interface {
	OnTransition(from, to State)
	OnStage(StageResult)
}

type nopObserver struct{}

func (nopObserver) OnTransition(State, State) {}
func (nopObserver) OnStage(StageResult)       {}

// Pipeline threads a frame through the stages in canonical order. It holds
// no per-run state and is safe for concurrent use.
type Pipeline struct {
	stages   map[StageName]Stage
	logger   zerolog.Logger
	observer Observer
}

type Option func(*Pipeline)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithStage replaces the stage registered under s.Name().
func WithStage(s Stage) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.stages[s.Name()] = s
		}
	}
}

// New builds a pipeline from params. Params are not validated here; see
// Params.Validate.
func New(params Params, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages: map[StageName]Stage{
			StagePreprocess:   NewPreprocess(params.Preprocess),
			StageLighting:     NewLighting(params.Lighting),
			StageComposition:  NewComposition(params.Composition),
			StageColorGrading: NewColorGrading(params.ColorGrading),
			StageDetail:       NewDetail(params.Detail),
			StagePolish:       NewPolish(params.Polish),
		},
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPipeline = New(DefaultParams())

// Enhance runs the default pipeline.
func Enhance(src Raster, mode Mode, instruction string) (Raster, error) {
	return defaultPipeline.Enhance(src, mode, instruction)
}

// Enhance runs the pipeline and returns only the final raster.
func (p *Pipeline) Enhance(src Raster, mode Mode, instruction string) (Raster, error) {
	res, err := p.Run(src, mode, instruction)
	if err != nil {
		return Raster{}, err
	}
	return res.Raster, nil
}

// Run executes the selected stages. The only error is ErrInvalidInput; any
// stage failure is recorded in the result and the pre-stage frame carries on.
func (p *Pipeline) Run(src Raster, mode Mode, instruction string) (Result, error) {
	if !src.Valid() {
		return Result{}, fmt.Errorf("%w: %dx%d with %d samples", ErrInvalidInput, src.Width, src.Height, len(src.Pix))
	}
	if mode != ModePromptGuided {
		mode = ModeComprehensive
	}
	sel, groups := selectWithGroups(mode, instruction)
	res := Result{
		Mode:      mode,
		Selection: sel,
		Groups:    groups,
		Stages:    make([]StageResult, 0, len(CanonicalOrder)),
	}
	if mode == ModePromptGuided && groups == nil {
		p.logger.Debug().Msg("pipeline: no instruction keywords matched, running every stage")
	}

	frame := src.Frame()
	state := StateIdle
	for _, name := range CanonicalOrder {
		if !sel.Has(name) {
			res.Stages = append(res.Stages, StageResult{Stage: name, Status: StatusSkipped})
			continue
		}
		next := stageStates[name]
		p.observer.OnTransition(state, next)
		state = next

		started := time.Now()
		out, err := p.runStage(name, frame)
		sr := StageResult{Stage: name, Duration: time.Since(started)}
		if err != nil {
			sr.Status = StatusFailed
			sr.Err = err
			p.logger.Warn().Err(err).Str("stage", string(name)).Msg("pipeline: stage failed, keeping previous frame")
			p.observer.OnTransition(state, StateStageError)
			state = StateStageError
		} else {
			sr.Status = StatusApplied
			frame = out
			p.logger.Debug().Str("stage", string(name)).Dur("took", sr.Duration).Msg("pipeline: stage applied")
		}
		p.observer.OnStage(sr)
		res.Stages = append(res.Stages, sr)
	}
	p.observer.OnTransition(state, StateDone)

	res.Raster = frame.Raster()
	return res, nil
}

// runStage isolates one stage: panics, errors and outputs that break the
// shape or range invariants all become a *StageError.
func (p *Pipeline) runStage(name StageName, in Frame) (out Frame, err error) {
	stage, ok := p.stages[name]
	if !ok {
		return in, &StageError{Stage: name, Err: fmt.Errorf("stage not registered")}
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = in, &StageError{Stage: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	got, err := stage.Apply(in.Clone())
	if err != nil {
		return in, &StageError{Stage: name, Err: err}
	}
	if !got.sameShape(in) {
		return in, &StageError{Stage: name, Err: ErrMalformedFrame}
	}
	if !got.finite() {
		return in, &StageError{Stage: name, Err: ErrNumeric}
	}
	return Clamp(got), nil
}
