package segment

import (
	"context"
	"fmt"
	"strings"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
	"github.com/voiceforge/ttsdataset-api/internal/transcribe"
)

// span is a group of consecutive words forming one sentence or paragraph.
type span struct {
	words []transcribe.Word
}

func (s span) start() float64 { return s.words[0].Start }
func (s span) end() float64   { return s.words[len(s.words)-1].End }

func (s span) text() string {
	parts := make([]string, len(s.words))
	for i, w := range s.words {
		parts[i] = strings.TrimSpace(w.Word)
	}
	return strings.Join(parts, " ")
}

// endsSentence reports whether the word closes a sentence.
func endsSentence(w transcribe.Word) bool {
	t := strings.TrimSpace(w.Word)
	return strings.HasSuffix(t, ".") || strings.HasSuffix(t, "!") || strings.HasSuffix(t, "?")
}

// buildSentences groups words in order, closing a sentence at every word
// whose trimmed text ends with terminal punctuation. Trailing words with no
// closing punctuation form a final, incomplete sentence. Empty groups are
// dropped.
func buildSentences(words []transcribe.Word) []span {
	var sentences []span
	var current []transcribe.Word
	for _, w := range words {
		current = append(current, w)
		if endsSentence(w) {
			sentences = append(sentences, span{words: current})
			current = nil
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, span{words: current})
	}
	return sentences
}

// exportSpans slices the waveform for each span, writes the clip and fills
// in the transcript from the span's words. Spans with no words are skipped.
func exportSpans(req Request, spans []span) ([]*Clip, error) {
	wf := req.Waveform
	var clips []*Clip
	for _, sp := range spans {
		if len(sp.words) == 0 {
			continue
		}
		startMs := int(sp.start() * 1000)
		endMs := int(sp.end() * 1000)
		slice := wf.Slice(startMs, endMs)
		if len(slice.Samples) == 0 {
			continue
		}

		name, path, err := req.Namer.Next()
		if err != nil {
			return nil, fmt.Errorf("allocate clip name: %w", err)
		}
		if err := audio.EncodeWAV(path, slice); err != nil {
			return nil, fmt.Errorf("export clip %s: %w", name, err)
		}

		clips = append(clips, &Clip{
			Filename:   name,
			AudioPath:  path,
			Transcript: sp.text(),
			StartTime:  sp.start(),
			EndTime:    sp.end(),
			Duration:   sp.end() - sp.start(),
		})
	}
	return clips, nil
}

// SentenceStrategy transcribes the whole file once with word timestamps and
// cuts one clip per punctuation-terminated sentence.
type SentenceStrategy struct {
	tr transcribe.Transcriber
}

// NewSentenceStrategy creates a SentenceStrategy.
func NewSentenceStrategy(tr transcribe.Transcriber) *SentenceStrategy {
	return &SentenceStrategy{tr: tr}
}

// Segment implements Strategy.
func (s *SentenceStrategy) Segment(ctx context.Context, req Request) ([]*Clip, error) {
	res, err := s.tr.Transcribe(ctx, req.SourcePath, transcribe.Options{WordTimestamps: true})
	if err != nil {
		return nil, fmt.Errorf("transcribe source: %w", err)
	}
	return exportSpans(req, buildSentences(res.Words()))
}

var _ Strategy = (*SentenceStrategy)(nil)
