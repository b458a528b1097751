package gateway

import (
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
)

// parseImageResponse は画像系レスポンスの共通検証です。判定順序は固定:
//
//  1. 明示的なブロック理由があれば ContentBlocked
//  2. 候補がなければ EmptyResult
//  3. 終了理由が {STOP, UNSPECIFIED} 以外なら理由別のエラーへ写す
//  4. パーツを順に走査し、最初の画像パーツを成功結果とする。
//     画像がなくテキストがあれば UnexpectedText（API が画像の代わりに
//     説明文を返すのは正当な応答であり、ハードエラーと区別する）。
//     どちらもなければ EmptyResult
func parseImageResponse(resp *genai.GenerateContentResponse) (*domain.ImageAsset, error) {
	if resp == nil {
		return nil, apperr.New(apperr.KindEmptyResult, "Geminiからの有効な応答がありませんでした")
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, apperr.Newf(apperr.KindContentBlocked,
			"プロンプトがブロックされました (理由: %s)", fb.BlockReason).
			WithDetail(blockedCategory(fb.SafetyRatings))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, apperr.New(apperr.KindEmptyResult, "画像候補が返されませんでした")
	}
	candidate := resp.Candidates[0]

	switch candidate.FinishReason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified, "":
		// 正常終了として受け入れる
	default:
		return nil, finishReasonError(candidate)
	}

	var firstText string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 &&
				strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				return &domain.ImageAsset{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
			if firstText == "" && part.Text != "" {
				firstText = part.Text
			}
		}
	}

	if firstText != "" {
		return nil, apperr.New(apperr.KindUnexpectedText,
			"画像の代わりにテキスト応答が返されました").WithDetail(firstText)
	}
	return nil, apperr.New(apperr.KindEmptyResult, "画像データが見つかりませんでした")
}

// finishReasonError は異常な終了理由を分類へ写します。
// 文書化されていない値はワイルドカードとして IncompleteGeneration に落とします。
func finishReasonError(candidate *genai.Candidate) error {
	reason := string(candidate.FinishReason)
	switch reason {
	case "SAFETY", "IMAGE_SAFETY":
		return apperr.Newf(apperr.KindSafetyBlocked,
			"安全フィルターにより生成が中断されました (FinishReason: %s)", reason).
			WithDetail(blockedCategory(candidate.SafetyRatings))
	case "MAX_TOKENS":
		return apperr.New(apperr.KindTruncatedByLength, "トークン上限により生成が打ち切られました")
	case "RECITATION":
		return apperr.New(apperr.KindRecitationBlocked, "引用検出により生成が中断されました")
	case "NO_IMAGE":
		return apperr.New(apperr.KindNoImageProduced, "画像が生成されませんでした")
	default:
		return apperr.Newf(apperr.KindIncompleteGeneration,
			"生成が異常終了しました (FinishReason: %s)", reason).WithDetail(reason)
	}
}

func blockedCategory(ratings []*genai.SafetyRating) string {
	var cats []string
	for _, r := range ratings {
		if r != nil && r.Blocked {
			cats = append(cats, string(r.Category))
		}
	}
	return strings.Join(cats, ", ")
}
