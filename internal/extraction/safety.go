// internal/extraction/safety.go
//
// Second-chance title splitting. The model sometimes bundles several
// spoken sentences into one returned title despite the schema; this
// pass runs over already-postprocessed tasks and re-splits those
// "blobs" deterministically. Same input titles always yield the same
// split.
package extraction

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/braindump/internal/logging"
	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// forcedSplitLen is the title length above which a sentence boundary
// must produce a split, even if the gentler heuristics gave up.
const forcedSplitLen = 50

var (
	// "and I want/need/have to", "and then I" restart a spoken intent
	// mid-title. They become sentence breaks before splitting.
	intentRestartRe = regexp.MustCompile(`(?i)\s+and\s+(?:then\s+)?i\s+(?:want|need|have)\s+to\s+`)
	andThenIRe      = regexp.MustCompile(`(?i)\s+and\s+then\s+i\s+`)

	terminatorSplitRe = regexp.MustCompile(`[.!?]+`)

	restartPhraseRe = regexp.MustCompile(`(?i)\b(i need to|i want to|i have to|then)\b`)
)

// LooksLikeBlob reports whether a title bundles multiple spoken
// sentences or intents. Used both as the model-degeneration trigger and
// in tests as the final-output invariant.
func LooksLikeBlob(title string) bool {
	t := strings.TrimRight(strings.TrimSpace(title), ".!?")
	if strings.ContainsAny(t, ".!?") {
		return true
	}
	return len(restartPhraseRe.FindAllString(t, -1)) >= 2
}

// SafetySplit re-splits blob titles in postprocessed tasks. Each
// resulting fragment is re-normalized and re-validated exactly like the
// postprocessor does, including contact-list re-expansion. Pure
// function over its inputs.
func SafetySplit(ctx context.Context, logger *logging.Logger, tasks []Task) []Task {
	if logger == nil {
		logger = logging.NewNop()
	}

	var out []Task
	for _, t := range tasks {
		fragments := splitBlobTitle(t.Title)

		if len(fragments) == 1 && !strings.ContainsAny(trimTerminator(t.Title), ".!?") && ContainsConnector(fragments[0]) {
			// No sentence boundary, but connector patterns survived
			// postprocessing. Second chance with the same rules.
			fragments = ExpandTitle(fragments[0])
		}

		if len(fragments) == 1 && len(t.Title) > forcedSplitLen && strings.ContainsAny(trimTerminator(t.Title), ".!?") {
			// Last resort: raw sentence split.
			if raw := trimAll(terminatorSplitRe.Split(t.Title, -1)); len(raw) > 1 {
				fragments = raw
			}
		}

		if len(fragments) > 1 {
			logger.Debug(ctx, "blob title re-split",
				zap.String("title", t.Title), zap.Int("parts", len(fragments)))
		}

		out = append(out, finishFragments(t, fragments)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SegmentIndex != out[j].SegmentIndex {
			return out[i].SegmentIndex < out[j].SegmentIndex
		}
		return out[i].OrderInSegment < out[j].OrderInSegment
	})
	return out
}

// splitBlobTitle splits a title on sentence terminators and intent
// restarts. A fragment that is purely a standalone duration or filler
// phrase is re-merged into the preceding fragment so its duration can
// still be extracted, rather than surviving as its own task.
func splitBlobTitle(title string) []string {
	s := intentRestartRe.ReplaceAllString(title, ". ")
	s = andThenIRe.ReplaceAllString(s, ". ")

	parts := trimAll(terminatorSplitRe.Split(s, -1))
	if len(parts) == 0 {
		return []string{strings.TrimSpace(title)}
	}

	merged := make([]string, 0, len(parts))
	for _, part := range parts {
		if len(merged) > 0 && (IsStandaloneDuration(part) || transcript.IsFillerOnly(part)) {
			merged[len(merged)-1] += " " + part
			continue
		}
		merged = append(merged, part)
	}
	return merged
}

// finishFragments turns split fragments back into tasks: duration
// extraction, contact re-expansion, normalization and validation with
// the same keep rules as the postprocessor. The parent's duration stays
// with the first fragment unless that fragment carries its own.
func finishFragments(parent Task, fragments []string) []Task {
	var out []Task
	for i, fragment := range fragments {
		for _, piece := range ExpandTitle(fragment) {
			task := parent
			task.Title = piece
			task.DurationMinutes = nil

			if minutes, cleaned, ok := ExtractDuration(piece); ok {
				task.DurationMinutes = minutes
				task.Title = cleaned
			}
			if task.DurationMinutes == nil && i == 0 && len(out) == 0 {
				task.DurationMinutes = parent.DurationMinutes
			}

			task.Title = trimTrailingFiller(NormalizeTitle(task.Title))

			ok, _ := ValidateTitle(task.Title)
			switch {
			case ok:
			case task.DurationMinutes != nil:
				if task.Title == "" {
					task.Title = reconstructTitle(task.SourceText, "")
				}
			case isBorderline(task.Title):
			default:
				continue
			}
			out = append(out, task)
		}
	}
	return out
}

// trimTrailingFiller drops filler words re-merged onto the end of a
// fragment ("call mom okay" -> "call mom").
func trimTrailingFiller(title string) string {
	words := strings.Fields(title)
	for len(words) > 1 && transcript.IsFillerWord(strings.ToLower(strings.Trim(words[len(words)-1], ".,;:!?"))) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func trimTerminator(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".!?")
}
