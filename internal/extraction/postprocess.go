// internal/extraction/postprocess.go
package extraction

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/braindump/internal/logging"
	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// Processor turns the raw model items into validated tasks. It operates
// in strict stages: type partition, duration attachment, connector
// expansion, cancellation, title/duration repair, normalization and
// validation, deduplication, final ordering. No stage after ordering
// may reorder tasks.
type Processor struct {
	logger *logging.Logger
}

// NewProcessor creates a Processor. A nil logger disables logging.
func NewProcessor(logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{logger: logger.Named("postprocess")}
}

// Run executes all stages over the full item list. Validation
// rejections drop single candidates with a logged reason; they never
// abort the remaining items.
func (p *Processor) Run(ctx context.Context, items []RawItem, segments []transcript.Segment) []Task {
	taskItems, attachments, cancels := p.partition(ctx, items)
	p.attachDurations(ctx, taskItems, attachments)

	tasks := p.expand(ctx, taskItems)
	tasks = p.applyCancellations(ctx, tasks, cancels)
	tasks = p.repair(ctx, tasks, segments)
	tasks = p.validateAll(ctx, tasks)
	tasks = p.dedupe(tasks)

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].SegmentIndex != tasks[j].SegmentIndex {
			return tasks[i].SegmentIndex < tasks[j].SegmentIndex
		}
		return tasks[i].OrderInSegment < tasks[j].OrderInSegment
	})
	return tasks
}

// partition drops ignores, collects cancellation targets, and holds
// duration_attach items per segment. Cancellation targets are
// write-once per run; they never become tasks.
func (p *Processor) partition(ctx context.Context, items []RawItem) (tasks []RawItem, attach map[int][]RawItem, cancels []string) {
	attach = make(map[int][]RawItem)
	for _, it := range items {
		switch it.Type {
		case ItemIgnore:
			continue
		case ItemCancelTask:
			if len(it.Targets) > 0 {
				for _, t := range it.Targets {
					if target := NormalizeCancelTarget(t); target != "" {
						cancels = append(cancels, target)
					}
				}
				continue
			}
			text := it.SourceText
			if text == "" {
				text = it.Title
			}
			if target, ok := ExtractNegationTarget(text); ok {
				cancels = append(cancels, target)
			} else {
				p.logger.Debug(ctx, "cancel item without recoverable target",
					zap.String("source", text))
			}
		case ItemDurationAttach:
			attach[it.SegmentIndex] = append(attach[it.SegmentIndex], it)
		case ItemTask:
			tasks = append(tasks, it)
		}
	}
	return tasks, attach, cancels
}

// attachDurations assigns each duration_attach item to the task in the
// same segment with the highest order strictly below its own that still
// lacks a duration. An attachment with no eligible preceding task is
// discarded; it cannot retroactively create a task.
func (p *Processor) attachDurations(ctx context.Context, tasks []RawItem, attach map[int][]RawItem) {
	for segIdx, atts := range attach {
		sort.SliceStable(atts, func(i, j int) bool {
			return atts[i].OrderInSegment < atts[j].OrderInSegment
		})
		for _, att := range atts {
			minutes := att.DurationMinutes
			if minutes == nil {
				if m, ok := FindDuration(att.Title); ok {
					minutes = m
				} else if m, ok := FindDuration(att.SourceText); ok {
					minutes = m
				}
			}
			if minutes == nil {
				p.logger.Debug(ctx, "duration_attach without parseable duration",
					zap.Int("segment", segIdx), zap.String("source", att.SourceText))
				continue
			}

			best := -1
			for i := range tasks {
				t := &tasks[i]
				if t.SegmentIndex != segIdx || t.OrderInSegment >= att.OrderInSegment || t.DurationMinutes != nil {
					continue
				}
				if best == -1 || t.OrderInSegment > tasks[best].OrderInSegment {
					best = i
				}
			}
			if best == -1 {
				p.logger.Debug(ctx, "duration_attach discarded, no eligible task",
					zap.Int("segment", segIdx), zap.Int("minutes", *minutes))
				continue
			}
			tasks[best].DurationMinutes = minutes
		}
	}
}

// expand applies the connector rules to every task title. Expanded
// children share the parent's segment and order; stable sorting keeps
// their spoken order. The parent's duration goes to the first child
// only; embedded per-child durations are recovered during repair.
func (p *Processor) expand(ctx context.Context, items []RawItem) []Task {
	var tasks []Task
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = strings.TrimSpace(it.SourceText)
		}
		parts := ExpandTitle(title)
		if len(parts) == 0 {
			if it.DurationMinutes == nil {
				p.logger.Debug(ctx, "task dropped", zap.String("reason", "empty_title"),
					zap.Int("segment", it.SegmentIndex))
				continue
			}
			// A task with a duration is never dropped for title reasons.
			parts = []string{""}
		}
		for i, part := range parts {
			task := Task{
				Title:          part,
				DueText:        it.DueText,
				SegmentIndex:   it.SegmentIndex,
				OrderInSegment: it.OrderInSegment,
				SourceText:     it.SourceText,
				Confidence:     it.Confidence,
			}
			if i == 0 {
				task.DurationMinutes = it.DurationMinutes
			}
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// applyCancellations runs after expansion so a target like "website"
// removes a "work on the website" task even when it was split out of a
// larger phrase.
func (p *Processor) applyCancellations(ctx context.Context, tasks []Task, cancels []string) []Task {
	if len(cancels) == 0 {
		return tasks
	}
	kept := tasks[:0]
	for _, t := range tasks {
		if matchesCancellation(t, cancels) {
			p.logger.Debug(ctx, "task cancelled", zap.String("title", t.Title))
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// repair extracts durations embedded in titles and source text, and
// reconstructs titles for duration-bearing tasks that lost theirs.
func (p *Processor) repair(ctx context.Context, tasks []Task, segments []transcript.Segment) []Task {
	segText := make(map[int]string, len(segments))
	for _, s := range segments {
		segText[s.Index] = s.Text
	}
	perSegment := make(map[int]int, len(tasks))
	for _, t := range tasks {
		perSegment[t.SegmentIndex]++
	}

	for i := range tasks {
		t := &tasks[i]

		if minutes, cleaned, ok := ExtractDuration(t.Title); ok {
			if t.DurationMinutes == nil {
				t.DurationMinutes = minutes
			}
			t.Title = cleaned
		}

		if t.DurationMinutes == nil {
			if perSegment[t.SegmentIndex] == 1 {
				// Sole task of its segment: the segment's raw text is
				// trustworthy too.
				if m, ok := FindDuration(t.SourceText); ok {
					t.DurationMinutes = m
				} else if m, ok := FindDuration(segText[t.SegmentIndex]); ok {
					t.DurationMinutes = m
				}
			} else if m, ok := durationWithOverlap(t.SourceText, t.Title); ok {
				t.DurationMinutes = m
			}
		}

		if strings.TrimSpace(t.Title) == "" && t.DurationMinutes != nil {
			t.Title = reconstructTitle(t.SourceText, segText[t.SegmentIndex])
		}
	}

	p.lookAheadDurations(ctx, tasks, segments)
	return tasks
}

// durationWithOverlap trusts a duration found in source text only when
// the text around the match lexically overlaps the task's own title
// words. Guards against attributing one task's duration to another in
// multi-task segments.
func durationWithOverlap(source, title string) (*int, bool) {
	minutes, start, end, ok := findDurationMatch(source)
	if !ok {
		return nil, false
	}
	windowStart := start - 40
	if windowStart < 0 {
		windowStart = 0
	}
	windowEnd := end + 20
	if windowEnd > len(source) {
		windowEnd = len(source)
	}
	window := strings.ToLower(source[windowStart:windowEnd])

	for _, w := range strings.Fields(stripStopwords(title)) {
		if len(w) < 3 {
			continue
		}
		if strings.Contains(window, w) {
			return IntPtr(minutes), true
		}
	}
	return nil, false
}

// lookAheadDurations is the last resort: a standalone "it takes N"
// segment within the next two segments attaches to the most recent task
// still lacking a duration.
func (p *Processor) lookAheadDurations(ctx context.Context, tasks []Task, segments []transcript.Segment) {
	for _, seg := range segments {
		if !IsStandaloneDuration(seg.Text) {
			continue
		}
		minutes, ok := StandaloneDurationMinutes(seg.Text)
		if !ok {
			continue
		}
		best := -1
		for i, t := range tasks {
			if t.DurationMinutes != nil {
				continue
			}
			if t.SegmentIndex >= seg.Index || seg.Index-t.SegmentIndex > 2 {
				continue
			}
			if best == -1 || t.SegmentIndex > tasks[best].SegmentIndex ||
				(t.SegmentIndex == tasks[best].SegmentIndex && t.OrderInSegment >= tasks[best].OrderInSegment) {
				best = i
			}
		}
		if best >= 0 {
			p.logger.Debug(ctx, "standalone duration attached by look-ahead",
				zap.Int("segment", seg.Index), zap.Int("minutes", *minutes),
				zap.String("title", tasks[best].Title))
			tasks[best].DurationMinutes = minutes
		}
	}
}

// validateAll normalizes every title and applies the validation rules.
// Duration-bearing tasks are kept regardless; borderline action-like
// titles are kept and logged; everything else drops with a reason.
func (p *Processor) validateAll(ctx context.Context, tasks []Task) []Task {
	kept := tasks[:0]
	for _, t := range tasks {
		t.Title = NormalizeTitle(t.Title)
		ok, reason := ValidateTitle(t.Title)
		switch {
		case ok:
		case t.DurationMinutes != nil:
			if t.Title == "" {
				t.Title = reconstructTitle(t.SourceText, "")
			}
		case isBorderline(t.Title):
			p.logger.Debug(ctx, "borderline task kept",
				zap.String("title", t.Title), zap.String("reason", reason))
		default:
			p.logger.Debug(ctx, "task dropped",
				zap.String("reason", reason), zap.String("title", t.Title))
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// dedupe removes exact case-insensitive title duplicates. No fuzzy
// matching: over-aggressive merging is worse than an occasional
// near-duplicate. On collision the variant carrying a duration or
// notes wins; otherwise first seen stays.
func (p *Processor) dedupe(tasks []Task) []Task {
	seen := make(map[string]int, len(tasks))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		key := strings.ToLower(strings.TrimSpace(t.Title))
		if j, dup := seen[key]; dup {
			if (t.DurationMinutes != nil || t.Notes != "") &&
				out[j].DurationMinutes == nil && out[j].Notes == "" {
				out[j] = t
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, t)
	}
	return out
}

// reconstructTitle builds a non-empty placeholder title from source
// text so a duration-bearing task survives. Falls back to the segment
// text, then to a fixed placeholder.
func reconstructTitle(sourceText, segmentText string) string {
	if title := NormalizeTitle(StripDurations(sourceText)); title != "" {
		return title
	}
	if title := NormalizeTitle(StripDurations(segmentText)); title != "" {
		return title
	}
	return "untitled task"
}
