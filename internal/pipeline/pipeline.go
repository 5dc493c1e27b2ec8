// Package pipeline orchestrates a full extraction run: segmentation,
// the model escalation ladder, postprocessing, safety splitting, and
// the deterministic fallback. Each run is single-threaded; the only
// suspension point is the model HTTP call.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/braindump/internal/extraction"
	"github.com/fyrsmithlabs/braindump/internal/logging"
	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// Mode selects how model and deterministic extraction combine.
type Mode string

const (
	// ModeLLMFirst runs the model ladder and falls back to the
	// deterministic extractor on degenerate output. Default.
	ModeLLMFirst Mode = "llm_first"
	// ModeDeterministicFirst skips the model entirely.
	ModeDeterministicFirst Mode = "deterministic_first"
	// ModeLLMOnly never falls back; all_failed yields an empty list.
	ModeLLMOnly Mode = "llm_only"
)

// ParseMode validates a mode string. Empty selects the default.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeLLMFirst, nil
	case ModeLLMFirst, ModeDeterministicFirst, ModeLLMOnly:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown extraction mode %q", s)
	}
}

// Input is one extraction request. Spans take precedence over Text when
// both are set; Mode overrides the pipeline default when non-empty.
type Input struct {
	Text  string            `json:"text"`
	Spans []transcript.Span `json:"spans,omitempty"`
	Mode  string            `json:"mode,omitempty"`
}

// Options wires a Pipeline.
type Options struct {
	Segmenter   *transcript.Segmenter
	Client      extraction.Client
	Model       string
	Temperature float64
	Upgrades    map[string]string
	Mode        Mode
	Logger      *logging.Logger
	Meter       metric.Meter
}

// Pipeline is the per-request orchestrator. Safe for concurrent use:
// all per-run state lives on the stack.
type Pipeline struct {
	segmenter *transcript.Segmenter
	escalator *extraction.Escalator
	processor *extraction.Processor
	heuristic *extraction.Heuristic
	model     string
	mode      Mode
	logger    *logging.Logger

	runs       metric.Int64Counter
	finalTasks metric.Int64Histogram
}

// New creates a Pipeline from options. A nil Meter disables metrics; a
// nil Logger disables logging.
func New(opts Options) (*Pipeline, error) {
	if opts.Client == nil {
		opts.Client = &extraction.NoOpClient{}
	}
	if opts.Segmenter == nil {
		opts.Segmenter = transcript.NewSegmenter(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Meter == nil {
		opts.Meter = noop.NewMeterProvider().Meter("braindump")
	}
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}

	runs, err := opts.Meter.Int64Counter("braindump.extraction.runs_total",
		metric.WithDescription("Extraction runs by final method"))
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	finalTasks, err := opts.Meter.Int64Histogram("braindump.extraction.tasks_final",
		metric.WithDescription("Final task count per extraction run"))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks histogram: %w", err)
	}

	logger := opts.Logger.Named("pipeline")
	return &Pipeline{
		segmenter:  opts.Segmenter,
		escalator:  extraction.NewEscalator(opts.Client, opts.Upgrades, opts.Temperature, opts.Logger),
		processor:  extraction.NewProcessor(opts.Logger),
		heuristic:  extraction.NewHeuristic(opts.Segmenter, opts.Logger),
		model:      opts.Model,
		mode:       mode,
		logger:     logger,
		runs:       runs,
		finalTasks: finalTasks,
	}, nil
}

// Run executes one extraction over the input and returns the ordered
// task list. Empty input yields an empty result with method "none",
// never an error.
func (p *Pipeline) Run(ctx context.Context, in Input) (extraction.Result, error) {
	mode := p.mode
	if in.Mode != "" {
		parsed, err := ParseMode(in.Mode)
		if err != nil {
			return extraction.Result{}, err
		}
		mode = parsed
	}

	var segments []transcript.Segment
	if len(in.Spans) > 0 {
		segments = p.segmenter.SegmentSpans(in.Spans)
	} else {
		segments = p.segmenter.SegmentText(in.Text)
	}
	if len(segments) == 0 {
		return p.finish(ctx, extraction.Result{
			Items:    []extraction.Task{},
			Segments: []transcript.Segment{},
			Method:   extraction.MethodNone,
		}), nil
	}

	var result extraction.Result
	switch mode {
	case ModeDeterministicFirst:
		result = p.runDeterministic(ctx, segments)
	case ModeLLMOnly:
		result = p.runModel(ctx, segments, false)
	default:
		result = p.runModel(ctx, segments, true)
	}
	return p.finish(ctx, result), nil
}

// runDeterministic is the model-free path.
func (p *Pipeline) runDeterministic(ctx context.Context, segments []transcript.Segment) extraction.Result {
	tasks := p.heuristic.Extract(ctx, segments)
	tasks = extraction.SafetySplit(ctx, p.logger, tasks)
	return extraction.Result{
		Items:      nonNil(tasks),
		Segments:   segments,
		RawCount:   0,
		FinalCount: len(tasks),
		Method:     extraction.MethodDeterministic,
	}
}

// runModel runs the escalation ladder and postprocessing. With fallback
// enabled, degenerate model output routes the affected segments through
// the deterministic extractor and merges the results.
func (p *Pipeline) runModel(ctx context.Context, segments []transcript.Segment, fallback bool) extraction.Result {
	items, method := p.escalator.Run(ctx, segments, p.model)
	tasks := p.processor.Run(ctx, items, segments)
	tasks = extraction.SafetySplit(ctx, p.logger, tasks)

	if fallback {
		if fbSegs := p.fallbackSegments(items, tasks, segments); len(fbSegs) > 0 {
			p.logger.Info(ctx, "deterministic fallback engaged",
				zap.String("model_method", string(method)),
				zap.Int("segments", len(fbSegs)))
			extra := p.heuristic.Extract(ctx, fbSegs)
			tasks = mergeTasks(tasks, extra)
			method = extraction.MethodDeterministic
		}
	}

	return extraction.Result{
		Items:      nonNil(tasks),
		Segments:   segments,
		RawCount:   len(items),
		FinalCount: len(tasks),
		Method:     method,
	}
}

// fallbackSegments decides whether the model output is degenerate and
// which segments the deterministic extractor should rework: all of them
// on zero items or a single blob item, otherwise only action-bearing
// segments no item covered.
func (p *Pipeline) fallbackSegments(items []extraction.RawItem, tasks []extraction.Task, segments []transcript.Segment) []transcript.Segment {
	if len(items) == 0 {
		return segments
	}
	if len(items) == 1 && extraction.LooksLikeBlob(items[0].Title) {
		return segments
	}

	covered := make(map[int]bool, len(items))
	for _, it := range items {
		covered[it.SegmentIndex] = true
	}
	var uncovered []transcript.Segment
	for _, seg := range segments {
		if covered[seg.Index] {
			continue
		}
		if transcript.IsFillerOnly(seg.Text) || extraction.IsStandaloneDuration(seg.Text) {
			continue
		}
		if extraction.HasActionIndicator(seg.Text) {
			uncovered = append(uncovered, seg)
		}
	}
	return uncovered
}

// mergeTasks combines model and fallback output, deduplicating on the
// normalized lowercase title. The existing task wins unless the new one
// carries a duration the existing one lacks. Stable order by
// (segment_index, order_in_segment).
func mergeTasks(existing, extra []extraction.Task) []extraction.Task {
	seen := make(map[string]int, len(existing))
	out := make([]extraction.Task, 0, len(existing)+len(extra))
	for _, t := range existing {
		seen[strings.ToLower(strings.TrimSpace(t.Title))] = len(out)
		out = append(out, t)
	}
	for _, t := range extra {
		key := strings.ToLower(strings.TrimSpace(t.Title))
		if j, dup := seen[key]; dup {
			if t.DurationMinutes != nil && out[j].DurationMinutes == nil {
				out[j].DurationMinutes = t.DurationMinutes
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SegmentIndex != out[j].SegmentIndex {
			return out[i].SegmentIndex < out[j].SegmentIndex
		}
		return out[i].OrderInSegment < out[j].OrderInSegment
	})
	return out
}

// finish records metrics and the run summary log line.
func (p *Pipeline) finish(ctx context.Context, result extraction.Result) extraction.Result {
	p.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", string(result.Method))))
	p.finalTasks.Record(ctx, int64(result.FinalCount))

	p.logger.Info(logging.WithMethod(ctx, string(result.Method)), "extraction complete",
		zap.Int("segments", len(result.Segments)),
		zap.Int("raw_items", result.RawCount),
		zap.Int("tasks", result.FinalCount))
	return result
}

func nonNil(tasks []extraction.Task) []extraction.Task {
	if tasks == nil {
		return []extraction.Task{}
	}
	return tasks
}
