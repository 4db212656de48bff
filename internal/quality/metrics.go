// Package quality computes objective signal-quality metrics used to gate
// files before segmentation and transcription.
package quality

// Metrics holds the per-file quality measurements. The same record is copied
// onto every segment produced from the file.
type Metrics struct {
	// ClippingPct is the percentage of samples at or above 99% of full scale.
	ClippingPct float64
	// SNRdB is the signal-to-noise ratio in decibels. It is nil when no
	// non-silent interval was detected, so the signal/noise split is
	// undefined. Callers must check for absence rather than a sentinel.
	SNRdB *float64
	// DynamicRangeDB is the spread of the short-time log-magnitude spectrum.
	DynamicRangeDB float64
	// SpectralCentroid is the mean per-frame spectral centroid in Hz.
	SpectralCentroid float64
}

// SNRDefined reports whether an SNR could be computed for the file.
func (m Metrics) SNRDefined() bool { return m.SNRdB != nil }

// Profile selects the SNR threshold applied by the pipeline's quality gate.
type Profile string

const (
	// ProfileDefault accepts general-purpose recordings.
	ProfileDefault Profile = "default"
	// ProfileVoiceCloning demands studio-grade SNR for voice-cloning datasets.
	ProfileVoiceCloning Profile = "voice_cloning"
)

// MinSNRdB returns the minimum acceptable SNR for the profile.
func (p Profile) MinSNRdB() float64 {
	if p == ProfileVoiceCloning {
		return 30
	}
	return 20
}

// IsValid reports whether p is a known profile.
func (p Profile) IsValid() bool {
	return p == ProfileDefault || p == ProfileVoiceCloning
}

// MaxClippingPct is the highest clipping percentage the gate tolerates,
// regardless of profile.
const MaxClippingPct = 1.0
