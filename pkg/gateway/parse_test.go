package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
)

func TestParseImageResponse(t *testing.T) {
	t.Run("正常系: 最初の画像パーツが結果になる", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonStop,
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "Here is your look:"},
						{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("first")}},
						{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("second")}},
					},
				},
			}},
		}

		asset, err := parseImageResponse(resp)

		require.NoError(t, err)
		assert.Equal(t, []byte("first"), asset.Data)
		assert.Equal(t, "image/png", asset.MimeType)
	})

	t.Run("ブロック理由付きの応答はContentBlockedになる", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
				BlockReason: "SAFETY",
				SafetyRatings: []*genai.SafetyRating{
					{Blocked: true, Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT"},
				},
			},
		}

		_, err := parseImageResponse(resp)

		require.Error(t, err)
		assert.Equal(t, apperr.KindContentBlocked, apperr.KindOf(err))
		assert.Contains(t, apperr.DetailOf(err), "HARM_CATEGORY_SEXUALLY_EXPLICIT")
	})

	t.Run("候補なしはEmptyResultになる", func(t *testing.T) {
		_, err := parseImageResponse(&genai.GenerateContentResponse{})
		assert.Equal(t, apperr.KindEmptyResult, apperr.KindOf(err))

		_, err = parseImageResponse(nil)
		assert.Equal(t, apperr.KindEmptyResult, apperr.KindOf(err))
	})

	t.Run("FinishReason=SAFETYはカテゴリ付きのSafetyBlockedになる", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonSafety,
				SafetyRatings: []*genai.SafetyRating{
					{Blocked: false, Category: "HARM_CATEGORY_HARASSMENT"},
					{Blocked: true, Category: "HARM_CATEGORY_DANGEROUS_CONTENT"},
				},
			}},
		}

		_, err := parseImageResponse(resp)

		require.Error(t, err)
		assert.Equal(t, apperr.KindSafetyBlocked, apperr.KindOf(err))
		assert.Equal(t, "HARM_CATEGORY_DANGEROUS_CONTENT", apperr.DetailOf(err))
	})

	t.Run("終了理由ごとに分類が写される", func(t *testing.T) {
		cases := []struct {
			reason genai.FinishReason
			kind   apperr.Kind
		}{
			{genai.FinishReasonMaxTokens, apperr.KindTruncatedByLength},
			{genai.FinishReasonRecitation, apperr.KindRecitationBlocked},
			{"NO_IMAGE", apperr.KindNoImageProduced},
			{"SOME_FUTURE_REASON", apperr.KindIncompleteGeneration},
		}
		for _, tc := range cases {
			resp := &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: tc.reason}},
			}
			_, err := parseImageResponse(resp)
			assert.Equal(t, tc.kind, apperr.KindOf(err), "reason=%s", tc.reason)
		}
	})

	t.Run("画像がなくテキストがある場合はUnexpectedTextで本文を保持する", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonStop,
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: "この指示では画像を生成できません。"}},
				},
			}},
		}

		_, err := parseImageResponse(resp)

		require.Error(t, err)
		assert.Equal(t, apperr.KindUnexpectedText, apperr.KindOf(err))
		assert.Equal(t, "この指示では画像を生成できません。", apperr.DetailOf(err))
	})

	t.Run("画像もテキストもない場合はEmptyResultになる", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonStop,
				Content:      &genai.Content{},
			}},
		}

		_, err := parseImageResponse(resp)
		assert.Equal(t, apperr.KindEmptyResult, apperr.KindOf(err))
	})

	t.Run("FinishReason未指定でも画像があれば成功する", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte("jpg")}}},
				},
			}},
		}

		asset, err := parseImageResponse(resp)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", asset.MimeType)
	})
}
