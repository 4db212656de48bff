package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "punctuation and digits",
			in:   "Hello World! 123.",
			want: "hello world eins zwei drei",
		},
		{
			name: "single digit in sentence",
			in:   "Hello World! This is a test, number 1.",
			want: "hello world this is a test number eins",
		},
		{
			name: "digit list",
			in:   "Test with numbers: 1, 2, 3.",
			want: "test with numbers eins zwei drei",
		},
		{
			name: "no changes needed",
			in:   "No changes needed here.",
			want: "no changes needed here",
		},
		{
			name: "hyphens separate words",
			in:   "state-of-the-art voice-over",
			want: "state of the art voice over",
		},
		{
			name: "zero and nine",
			in:   "90",
			want: "neun null",
		},
		{
			name: "umlauts survive",
			in:   "Fünf Gänse über dem Haus!",
			want: "fünf gänse über dem haus",
		},
		{
			name: "whitespace runs collapse",
			in:   "  spaced \t out\n text  ",
			want: "spaced out text",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "punctuation only",
			in:   "?!...",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanIsPure(t *testing.T) {
	in := "Same 4 input!"
	first := Clean(in)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Clean(in))
	}
}
