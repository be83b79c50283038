package audio

import (
	"math"
	"time"
)

// Tone returns interleaved float samples of a sine wave with the same
// signal on every channel. A zero or negative duration yields no samples.
func Tone(f PCMFormat, freqHz float64, d time.Duration, amplitude float64) []float32 {
	if f.Channels < 1 || f.SampleRate < 1 || d <= 0 {
		return nil
	}

	frames := int(d.Seconds() * float64(f.SampleRate))
	out := make([]float32, frames*f.Channels)

	for i := range frames {
		v := float32(amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/float64(f.SampleRate)))
		for c := range f.Channels {
			out[i*f.Channels+c] = v
		}
	}

	return out
}

// Duration reports how long n bytes of PCM in format f play for.
func Duration(n int, f PCMFormat) time.Duration {
	rate := f.ByteRate()
	if rate <= 0 {
		return 0
	}

	return time.Duration(float64(n) / float64(rate) * float64(time.Second))
}
