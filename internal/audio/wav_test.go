package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func TestToneWAVHeader(t *testing.T) {
	wav := ToneWAV(ToneSampleRate, ToneDuration, ToneFrequency)

	samples := int(math.Round(ToneSampleRate * ToneDuration.Seconds()))
	if samples != 7056 {
		t.Fatalf("sample count = %d, want 7056", samples)
	}
	if len(wav) != 44+samples*2 {
		t.Fatalf("len = %d, want %d", len(wav), 44+samples*2)
	}

	le := binary.LittleEndian
	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", le.Uint32(wav[4:]), uint32(36 + samples*2)},
		{"fmt size", le.Uint32(wav[16:]), 16},
		{"format", uint32(le.Uint16(wav[20:])), 1},
		{"channels", uint32(le.Uint16(wav[22:])), 1},
		{"sample rate", le.Uint32(wav[24:]), ToneSampleRate},
		{"byte rate", le.Uint32(wav[28:]), ToneSampleRate * 2},
		{"block align", uint32(le.Uint16(wav[32:])), 2},
		{"bits", uint32(le.Uint16(wav[34:])), 16},
		{"data size", le.Uint32(wav[40:]), uint32(samples * 2)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	for _, tag := range []struct {
		off  int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(wav[tag.off : tag.off+4]); got != tag.want {
			t.Errorf("chunk at %d = %q, want %q", tag.off, got, tag.want)
		}
	}
}

func TestToneWAVSamples(t *testing.T) {
	const rate = 8000
	wav := ToneWAV(rate, 10*time.Millisecond, ToneFrequency)
	pcm := wav[44:]

	for i := 0; i < len(pcm)/2; i++ {
		got := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		want := int16(math.Floor(math.Sin(2*math.Pi*ToneFrequency*float64(i)/rate) * 0x7fff))
		if got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
		if got < -0x7fff {
			t.Fatalf("sample %d = %d exceeds the amplitude", i, got)
		}
	}

	if first := int16(binary.LittleEndian.Uint16(pcm)); first != 0 {
		t.Errorf("first sample = %d, want 0", first)
	}
}

func TestToneWAVDeterministic(t *testing.T) {
	a := ToneWAV(ToneSampleRate, ToneDuration, ToneFrequency)
	b := ToneWAV(ToneSampleRate, ToneDuration, ToneFrequency)
	if !bytes.Equal(a, b) {
		t.Error("ToneWAV output differs between calls")
	}

	if c := ToneWAV(22050, ToneDuration, ToneFrequency); bytes.Equal(a, c) {
		t.Error("different sample rates produced identical output")
	}
}

func TestToneWAVZeroDuration(t *testing.T) {
	wav := ToneWAV(ToneSampleRate, 0, ToneFrequency)
	if len(wav) != 44 {
		t.Errorf("len = %d, want a bare 44-byte header", len(wav))
	}
}

func TestPCMToWAV(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	wav := PCMToWAV(pcm, 24000)

	if !bytes.Equal(wav[44:], pcm) {
		t.Error("PCM payload not copied verbatim")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:]); rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:]); size != 6 {
		t.Errorf("data size = %d, want 6", size)
	}
}
