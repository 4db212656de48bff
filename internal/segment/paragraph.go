package segment

import (
	"context"
	"fmt"

	"github.com/voiceforge/ttsdataset-api/internal/transcribe"
)

// defaultMaxSentenceGapSec is the largest pause between two sentences that
// still keeps them in the same paragraph.
const defaultMaxSentenceGapSec = 1.5

// ParagraphStrategy runs sentence grouping and then merges consecutive
// sentences whose gap does not exceed MaxGapSec into one clip. The final
// paragraph is always emitted, with or without trailing punctuation.
type ParagraphStrategy struct {
	tr        transcribe.Transcriber
	MaxGapSec float64
}

// NewParagraphStrategy creates a ParagraphStrategy with the default gap.
func NewParagraphStrategy(tr transcribe.Transcriber) *ParagraphStrategy {
	return &ParagraphStrategy{tr: tr, MaxGapSec: defaultMaxSentenceGapSec}
}

// mergeParagraphs folds sentences into paragraphs: a gap greater than
// maxGapSec between one sentence's end and the next one's start opens a new
// paragraph.
func mergeParagraphs(sentences []span, maxGapSec float64) []span {
	var paragraphs []span
	var current span
	for _, s := range sentences {
		if len(current.words) == 0 {
			current = span{words: append([]transcribe.Word(nil), s.words...)}
			continue
		}
		if s.start()-current.end() <= maxGapSec {
			current.words = append(current.words, s.words...)
			continue
		}
		paragraphs = append(paragraphs, current)
		current = span{words: append([]transcribe.Word(nil), s.words...)}
	}
	if len(current.words) > 0 {
		paragraphs = append(paragraphs, current)
	}
	return paragraphs
}

// Segment implements Strategy.
func (p *ParagraphStrategy) Segment(ctx context.Context, req Request) ([]*Clip, error) {
	res, err := p.tr.Transcribe(ctx, req.SourcePath, transcribe.Options{WordTimestamps: true})
	if err != nil {
		return nil, fmt.Errorf("transcribe source: %w", err)
	}
	sentences := buildSentences(res.Words())
	return exportSpans(req, mergeParagraphs(sentences, p.MaxGapSec))
}

var _ Strategy = (*ParagraphStrategy)(nil)
