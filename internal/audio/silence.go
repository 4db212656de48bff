package audio

import "math"

// silenceChunkMs is the analysis window for silence detection. A run of
// silence is only recognized at this resolution.
const silenceChunkMs = 10

// Range is a half-open [StartMs, EndMs) interval within a waveform.
type Range struct {
	StartMs int
	EndMs   int
}

// DetectNonSilent partitions the waveform at every silence run of at least
// minSilenceMs whose loudness stays below threshDB (absolute dBFS), and
// returns the non-silent ranges in order. A digitally silent waveform
// (threshold at negative infinity) yields no ranges.
func DetectNonSilent(w *Waveform, minSilenceMs int, threshDB float64) []Range {
	if len(w.Samples) == 0 || math.IsInf(threshDB, -1) {
		return nil
	}

	totalMs := w.Millis()
	chunks := totalMs / silenceChunkMs
	if totalMs%silenceChunkMs != 0 {
		chunks++
	}
	if chunks == 0 {
		return nil
	}

	// Classify each chunk, then collect silence runs long enough to split on.
	silent := make([]bool, chunks)
	for i := 0; i < chunks; i++ {
		startMs := i * silenceChunkMs
		endMs := startMs + silenceChunkMs
		if endMs > totalMs {
			endMs = totalMs
		}
		silent[i] = w.Slice(startMs, endMs).DBFS() < threshDB
	}

	var silences []Range
	runStart := -1
	for i := 0; i <= chunks; i++ {
		if i < chunks && silent[i] {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			startMs := runStart * silenceChunkMs
			endMs := i * silenceChunkMs
			if endMs > totalMs {
				endMs = totalMs
			}
			if endMs-startMs >= minSilenceMs {
				silences = append(silences, Range{StartMs: startMs, EndMs: endMs})
			}
			runStart = -1
		}
	}

	// Non-silent ranges are the complement of the qualifying silence runs.
	var ranges []Range
	cursor := 0
	for _, s := range silences {
		if s.StartMs > cursor {
			ranges = append(ranges, Range{StartMs: cursor, EndMs: s.StartMs})
		}
		cursor = s.EndMs
	}
	if cursor < totalMs {
		ranges = append(ranges, Range{StartMs: cursor, EndMs: totalMs})
	}

	// Drop ranges that are themselves entirely silent (leading/trailing hush
	// shorter than the minimum run still counts as part of a kept range, but a
	// range with no audible chunk at all carries no speech).
	kept := ranges[:0]
	for _, r := range ranges {
		if w.Slice(r.StartMs, r.EndMs).DBFS() >= threshDB {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// Pad widens r by padMs on both sides, clamped to [0, totalMs).
func (r Range) Pad(padMs, totalMs int) Range {
	start := r.StartMs - padMs
	if start < 0 {
		start = 0
	}
	end := r.EndMs + padMs
	if end > totalMs {
		end = totalMs
	}
	return Range{StartMs: start, EndMs: end}
}
