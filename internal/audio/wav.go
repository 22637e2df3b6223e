package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	// ToneFrequency is the pitch of the fallback beep in Hz
	ToneFrequency = 880.0
	// ToneDuration is the length of the fallback beep
	ToneDuration = 160 * time.Millisecond
	// ToneSampleRate is the default sample rate of generated tones
	ToneSampleRate = 44100

	wavHeaderSize = 44
)

// ToneWAV renders a sine tone as a 16-bit mono PCM RIFF/WAVE file. The
// output depends only on its arguments.
func ToneWAV(sampleRate int, duration time.Duration, freq float64) []byte {
	return PCMToWAV(TonePCM(sampleRate, duration, freq), sampleRate)
}

// TonePCM renders a sine tone as signed 16-bit little-endian mono samples
func TonePCM(sampleRate int, duration time.Duration, freq float64) []byte {
	length := int(math.Round(float64(sampleRate) * duration.Seconds()))
	if length < 0 {
		length = 0
	}

	pcm := make([]byte, length*2)
	for i := 0; i < length; i++ {
		t := float64(i) / float64(sampleRate)
		sample := math.Max(-1, math.Min(1, math.Sin(2*math.Pi*freq*t)))
		s := int16(math.Floor(sample * 0x7fff))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	return pcm
}

// PCMToWAV wraps raw signed 16-bit mono PCM in a 44-byte WAVE header
func PCMToWAV(pcm []byte, sampleRate int) []byte {
	dataSize := uint32(len(pcm))
	out := make([]byte, wavHeaderSize+len(pcm))

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], 36+dataSize)
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)                   // fmt chunk size
	binary.LittleEndian.PutUint16(out[20:], 1)                    // PCM
	binary.LittleEndian.PutUint16(out[22:], 1)                    // mono
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))   // sample rate
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(out[32:], 2)                    // block align
	binary.LittleEndian.PutUint16(out[34:], 16)                   // bits per sample
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], dataSize)
	copy(out[wavHeaderSize:], pcm)

	return out
}
