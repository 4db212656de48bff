// Package dataset accumulates clips and metadata into an append-only
// TTS-training dataset directory and packages it into an archive.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Namer allocates sequential, non-colliding clip filenames of the form
// <base>_segment_NNNN.wav inside the dataset's wavs directory. Numbering is
// 1-based and zero-padded to four digits; it continues past any files from a
// previous run with the same base name, so re-processing a source file never
// overwrites an earlier clip.
type Namer struct {
	wavsDir string
	base    string
	next    int
}

// NewNamer scans wavsDir for existing clips of the given base name and
// positions the sequence after the highest one found.
func NewNamer(wavsDir, base string) (*Namer, error) {
	base = sanitizeBase(base)

	next := 1
	entries, err := os.ReadDir(wavsDir)
	if err != nil {
		return nil, fmt.Errorf("scan wavs dir: %w", err)
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `_segment_(\d+)\.wav$`)
	for _, e := range entries {
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
			next = n + 1
		}
	}

	return &Namer{wavsDir: wavsDir, base: base, next: next}, nil
}

// Next returns the next clip filename and its absolute path.
func (n *Namer) Next() (string, string, error) {
	name := fmt.Sprintf("%s_segment_%04d.wav", n.base, n.next)
	n.next++
	return name, filepath.Join(n.wavsDir, name), nil
}

// sanitizeBase strips path separators and whitespace so uploaded filenames
// cannot escape the wavs directory or produce unreadable clip names.
func sanitizeBase(base string) string {
	base = filepath.Base(base)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		base = "audio"
	}
	return base
}
