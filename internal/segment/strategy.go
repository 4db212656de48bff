package segment

import (
	"fmt"

	"github.com/voiceforge/ttsdataset-api/internal/transcribe"
)

// Mode selects the segmentation strategy.
type Mode string

const (
	// ModeSilence cuts at silence gaps and transcribes each clip on its own.
	ModeSilence Mode = "silence"
	// ModeSentence groups word timestamps into punctuation-terminated sentences.
	ModeSentence Mode = "sentence"
	// ModeParagraph merges sentences separated by short gaps into paragraphs.
	ModeParagraph Mode = "paragraph"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeSilence || m == ModeSentence || m == ModeParagraph
}

// ParseMode converts a string into a Mode, defaulting to ModeSilence for the
// empty string.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeSilence, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown segmentation mode %q", s)
	}
	return m, nil
}

// NewStrategy returns the strategy for the given mode, bound to the
// long-lived transcriber handle.
func NewStrategy(mode Mode, tr transcribe.Transcriber) (Strategy, error) {
	switch mode {
	case ModeSilence:
		return NewSilenceStrategy(tr), nil
	case ModeSentence:
		return NewSentenceStrategy(tr), nil
	case ModeParagraph:
		return NewParagraphStrategy(tr), nil
	default:
		return nil, fmt.Errorf("unknown segmentation mode %q", mode)
	}
}
