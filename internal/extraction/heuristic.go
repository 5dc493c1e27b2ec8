// internal/extraction/heuristic.go
package extraction

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/braindump/internal/logging"
	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// Heuristic is the model-free extractor. It reimplements the splitting
// and validation rules directly against raw text: the pipeline invokes
// it when the model path degenerates, and it is the whole path in
// deterministic_first mode.
type Heuristic struct {
	segmenter *transcript.Segmenter
	logger    *logging.Logger
}

// NewHeuristic creates a Heuristic extractor. A nil segmenter gets
// default thresholds; a nil logger disables logging.
func NewHeuristic(segmenter *transcript.Segmenter, logger *logging.Logger) *Heuristic {
	if segmenter == nil {
		segmenter = transcript.NewSegmenter(0)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Heuristic{
		segmenter: segmenter,
		logger:    logger.Named("heuristic"),
	}
}

var (
	// Closing acknowledgements that end a brain dump.
	ackRe = regexp.MustCompile(`(?i)^(i think )?(that'?s|that is) (it|all|everything)\b`)

	// A sentence ending in "..., it takes two hours" attaches its
	// duration to the task spoken immediately before the clause.
	trailingTakesRe = regexp.MustCompile(`(?i)^(.*?)[,;]?\s+(?:and\s+)?(?:it|that|this|which)\s+(?:might\s+|will\s+|should\s+)?takes?\s+(?:about\s+|around\s+)?(` + numPattern + `)\s+(` + unitPattern + `)\s*$`)
)

// ExtractText sentence-splits raw text and extracts tasks from it.
func (h *Heuristic) ExtractText(ctx context.Context, text string) []Task {
	return h.Extract(ctx, h.segmenter.SegmentText(text))
}

// Extract walks the segments in order and applies the deterministic
// rules: drop filler/duration-only/acknowledgement clauses, split on
// connectors, expand contact lists, attach trailing and standalone
// durations to the preceding task, validate every candidate.
func (h *Heuristic) Extract(ctx context.Context, segments []transcript.Segment) []Task {
	var tasks []Task
	var cancels []string

	for _, seg := range segments {
		order := 0
		// Timestamp-merged segments can hold several sentences; the
		// text splitter gets each clause on its own.
		for _, clause := range h.segmenter.SegmentText(seg.Text) {
			// A clause with no action verb that matches a negation
			// pattern retracts an earlier intention.
			if !hasActionIndicator(clause.Text) {
				if target, ok := ExtractNegationTarget(clause.Text); ok {
					cancels = append(cancels, target)
					continue
				}
			}
			added := h.extractClause(ctx, clause.Text, seg, &tasks, order)
			order += added
		}
	}

	if len(cancels) == 0 {
		return tasks
	}
	kept := tasks[:0]
	for _, t := range tasks {
		if matchesCancellation(t, cancels) {
			h.logger.Debug(ctx, "task cancelled", zap.String("title", t.Title))
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// extractClause processes one clause and appends candidates to tasks.
// Returns how many tasks were added.
func (h *Heuristic) extractClause(ctx context.Context, clause string, seg transcript.Segment, tasks *[]Task, startOrder int) int {
	if transcript.IsFillerOnly(clause) || ackRe.MatchString(clause) {
		return 0
	}

	if IsStandaloneDuration(clause) {
		minutes, ok := StandaloneDurationMinutes(clause)
		if !ok {
			return 0
		}
		if last := lastWithoutDuration(*tasks); last >= 0 {
			(*tasks)[last].DurationMinutes = minutes
			h.logger.Debug(ctx, "standalone duration attached",
				zap.Int("minutes", *minutes), zap.String("title", (*tasks)[last].Title))
		}
		return 0
	}

	// "buy groceries, that takes an hour": strip the clause, remember
	// the duration for the last task this sentence produces.
	var trailing *int
	if m := trailingTakesRe.FindStringSubmatch(clause); m != nil {
		if n, ok := parseNumber(m[2]); ok {
			trailing = IntPtr(toMinutes(n, m[3]))
			clause = strings.TrimSpace(m[1])
		}
	}
	if clause == "" {
		if trailing != nil {
			if last := lastWithoutDuration(*tasks); last >= 0 {
				(*tasks)[last].DurationMinutes = trailing
			}
		}
		return 0
	}

	added := 0
	for _, part := range ExpandTitle(clause) {
		task := Task{
			SegmentIndex:   seg.Index,
			OrderInSegment: startOrder + added,
			SourceText:     seg.Text,
			Confidence:     0.5,
		}
		if minutes, cleaned, ok := ExtractDuration(part); ok {
			task.DurationMinutes = minutes
			part = cleaned
		}
		task.Title = NormalizeTitle(part)

		ok, reason := ValidateTitle(task.Title)
		switch {
		case ok:
		case task.DurationMinutes != nil:
			if task.Title == "" {
				task.Title = reconstructTitle(seg.Text, "")
			}
		case isBorderline(task.Title):
			h.logger.Debug(ctx, "borderline task kept", zap.String("title", task.Title))
		default:
			h.logger.Debug(ctx, "candidate dropped",
				zap.String("reason", reason), zap.String("title", task.Title))
			continue
		}

		*tasks = append(*tasks, task)
		added++
	}

	if trailing != nil && added > 0 {
		last := &(*tasks)[len(*tasks)-1]
		if last.DurationMinutes == nil {
			last.DurationMinutes = trailing
		}
	}
	return added
}

// lastWithoutDuration returns the index of the most recent task lacking
// a duration, or -1.
func lastWithoutDuration(tasks []Task) int {
	for i := len(tasks) - 1; i >= 0; i-- {
		if tasks[i].DurationMinutes == nil {
			return i
		}
	}
	return -1
}
