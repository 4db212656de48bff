package quality

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/voiceforge/ttsdataset-api/internal/audio"
)

const (
	// clipThreshold marks a sample as clipped at 99% of full scale.
	clipThreshold = 0.99
	// splitTopDB is the drop below peak frame energy beyond which a frame
	// counts as noise when partitioning signal from noise.
	splitTopDB = 30.0
	// specTopDB clamps the log-magnitude spectrum floor relative to its peak.
	specTopDB = 80.0
	// specAmin floors magnitudes before the log to avoid -Inf.
	specAmin = 1e-10

	frameLength = 2048
	hopLength   = 512
)

// Analyzer computes Metrics from a canonical waveform. It never panics; any
// degenerate input degrades to a zero-value Metrics record.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// Analyze computes the quality metrics for w.
func (a *Analyzer) Analyze(w *audio.Waveform) Metrics {
	if w == nil || len(w.Samples) == 0 || w.SampleRate <= 0 {
		a.logger.Warn("quality analysis skipped", slog.String("reason", "empty waveform"))
		return Metrics{}
	}

	var m Metrics
	m.ClippingPct = clippingPct(w.Samples)

	if snr, ok := signalToNoise(w.Samples); ok {
		m.SNRdB = &snr
	}

	m.DynamicRangeDB, m.SpectralCentroid = spectralStats(w)
	return m
}

func clippingPct(samples []float64) float64 {
	clipped := 0
	for _, s := range samples {
		if math.Abs(s) >= clipThreshold {
			clipped++
		}
	}
	return float64(clipped) / float64(len(samples)) * 100
}

// signalToNoise splits the waveform into signal and noise by frame energy
// relative to the loudest frame (splitTopDB below peak) and returns the
// power ratio in dB. ok is false when either partition is empty or the
// noise power is zero.
func signalToNoise(samples []float64) (float64, bool) {
	intervals := nonSilentIntervals(samples)
	if len(intervals) == 0 {
		return 0, false
	}

	inSignal := make([]bool, len(samples))
	for _, iv := range intervals {
		for i := iv[0]; i < iv[1]; i++ {
			inSignal[i] = true
		}
	}

	var sigPow, noisePow float64
	var sigN, noiseN int
	for i, s := range samples {
		if inSignal[i] {
			sigPow += s * s
			sigN++
		} else {
			noisePow += s * s
			noiseN++
		}
	}
	if sigN == 0 || noiseN == 0 {
		return 0, false
	}
	sigPow /= float64(sigN)
	noisePow /= float64(noiseN)
	if noisePow <= 0 {
		return 0, false
	}
	return 10 * math.Log10(sigPow/noisePow), true
}

// nonSilentIntervals returns merged [start, end) sample intervals whose frame
// RMS is within splitTopDB of the loudest frame.
func nonSilentIntervals(samples []float64) [][2]int {
	frames := frameCount(len(samples))
	if frames == 0 {
		return nil
	}

	rms := make([]float64, frames)
	peak := 0.0
	for f := 0; f < frames; f++ {
		start := f * hopLength
		end := start + frameLength
		if end > len(samples) {
			end = len(samples)
		}
		var sum float64
		for i := start; i < end; i++ {
			sum += samples[i] * samples[i]
		}
		rms[f] = math.Sqrt(sum / float64(end-start))
		if rms[f] > peak {
			peak = rms[f]
		}
	}
	if peak == 0 {
		return nil
	}

	var intervals [][2]int
	open := -1
	for f := 0; f <= frames; f++ {
		loud := f < frames && 20*math.Log10(math.Max(rms[f], specAmin)/peak) > -splitTopDB
		if loud && open < 0 {
			open = f
		}
		if !loud && open >= 0 {
			start := open * hopLength
			end := (f-1)*hopLength + frameLength
			if end > len(samples) {
				end = len(samples)
			}
			intervals = append(intervals, [2]int{start, end})
			open = -1
		}
	}

	// Merge overlaps introduced by the frame/hop geometry.
	merged := intervals[:0]
	for _, iv := range intervals {
		if n := len(merged); n > 0 && iv[0] <= merged[n-1][1] {
			if iv[1] > merged[n-1][1] {
				merged[n-1][1] = iv[1]
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// spectralStats runs a Hann-windowed STFT over the waveform and returns the
// dynamic range of the log-magnitude spectrum (reference = spectrum peak,
// floor clamped specTopDB below it) and the mean spectral centroid in Hz.
func spectralStats(w *audio.Waveform) (dynamicRange, centroid float64) {
	samples := w.Samples
	frames := frameCount(len(samples))
	if frames == 0 {
		return 0, 0
	}

	fft := fourier.NewFFT(frameLength)
	win := window.NewValues(window.Hann, frameLength)
	frame := make([]float64, frameLength)
	coeffs := make([]complex128, frameLength/2+1)

	maxMag := 0.0
	minMag := math.Inf(1)
	var centroidSum float64
	var centroidFrames int

	for f := 0; f < frames; f++ {
		start := f * hopLength
		for i := range frame {
			if start+i < len(samples) {
				frame[i] = samples[start+i] * win[i]
			} else {
				frame[i] = 0
			}
		}
		coeffs = fft.Coefficients(coeffs, frame)

		var magSum, weighted float64
		for i, c := range coeffs {
			mag := cmplxAbs(c)
			if mag > maxMag {
				maxMag = mag
			}
			if mag < minMag {
				minMag = mag
			}
			freq := fft.Freq(i) * float64(w.SampleRate)
			magSum += mag
			weighted += mag * freq
		}
		if magSum > 0 {
			centroidSum += weighted / magSum
			centroidFrames++
		}
	}

	if maxMag <= 0 {
		return 0, 0
	}
	maxDB := 20 * math.Log10(math.Max(maxMag, specAmin))
	minDB := 20 * math.Log10(math.Max(minMag, specAmin))
	if minDB < maxDB-specTopDB {
		minDB = maxDB - specTopDB
	}
	dynamicRange = maxDB - minDB

	if centroidFrames > 0 {
		centroid = centroidSum / float64(centroidFrames)
	}
	return dynamicRange, centroid
}

func frameCount(n int) int {
	if n == 0 {
		return 0
	}
	if n <= frameLength {
		return 1
	}
	return (n-frameLength)/hopLength + 1
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
