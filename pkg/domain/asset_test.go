package domain

import (
	"testing"
	"time"
)

func TestAudioClip_Duration(t *testing.T) {
	t.Run("24kHzの1秒分のPCMは1秒になる", func(t *testing.T) {
		clip := &AudioClip{Data: make([]byte, 24000*2), SampleRate: 24000}
		if got := clip.Duration(); got != time.Second {
			t.Errorf("expected 1s, got %v", got)
		}
	})

	t.Run("nilや不正レートは0を返す", func(t *testing.T) {
		var clip *AudioClip
		if clip.Duration() != 0 {
			t.Error("nil clip should have zero duration")
		}
		zero := &AudioClip{Data: []byte{0, 0}, SampleRate: 0}
		if zero.Duration() != 0 {
			t.Error("zero sample rate should have zero duration")
		}
	})
}
