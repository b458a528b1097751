package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("ラップ越しでも分類を取り出せる", func(t *testing.T) {
		base := New(KindSafetyBlocked, "安全フィルターにより中断").WithDetail("HARM_CATEGORY_HATE_SPEECH")
		wrapped := fmt.Errorf("ベース画像の生成に失敗: %w", base)

		assert.Equal(t, KindSafetyBlocked, KindOf(wrapped))
		assert.Equal(t, "HARM_CATEGORY_HATE_SPEECH", DetailOf(wrapped))
	})

	t.Run("分類なしのエラーはKindUnknown", func(t *testing.T) {
		assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
		assert.Equal(t, KindUnknown, KindOf(nil))
	})
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindTransport, "ライブチャネルが切断されました", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, Is(err, KindTransport))
	assert.Contains(t, err.Error(), "transport")
	assert.Contains(t, err.Error(), "connection reset")
}
