// Package gateway は外部生成AIサービスへの薄いリクエスト/レスポンス変換層です。
// 画像生成・編集、ストリーミングチャット、音声合成のそれぞれを
// 1回の外部呼び出しに対応づけ、API レベルの失敗コードを分類付きエラーへ写します。
// ここでは一切リトライしません。
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
)

// faceSwapInstruction は FaceSource 指定時にユーザー指示の後段へ追加される
// 顔差し替え指示です。2枚目の画像パーツが顔の参照元になります。
const faceSwapInstruction = " Additionally, replace the model's face with the face " +
	"from the last reference image, blending it naturally and photorealistically."

// ImageGateway は画像系の3操作（テキスト生成・参照生成・編集）を担当します。
type ImageGateway struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewImageGateway は依存関係を注入して ImageGateway を初期化します。
func NewImageGateway(aiClient gemini.GenerativeModel, model string) (*ImageGateway, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (gemini.GenerativeModel) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &ImageGateway{aiClient: aiClient, model: model}, nil
}

// GenerateFromText はプロンプトのみから画像を生成します。
func (g *ImageGateway) GenerateFromText(ctx context.Context, prompt, aspectRatio string) (*domain.ImageAsset, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperr.New(apperr.KindValidation, "プロンプトが空です")
	}

	parts := []*genai.Part{{Text: prompt}}
	return g.execute(ctx, parts, aspectRatio)
}

// GenerateFromReferences は1枚以上の参照画像とプロンプトから画像を生成します。
func (g *ImageGateway) GenerateFromReferences(ctx context.Context, images []*domain.ImageAsset, prompt string) (*domain.ImageAsset, error) {
	if len(images) == 0 {
		return nil, apperr.New(apperr.KindValidation, "参照画像が1枚以上必要です")
	}

	parts := []*genai.Part{{Text: prompt}}
	for _, img := range images {
		parts = append(parts, assetToPart(img))
	}
	return g.execute(ctx, parts, "")
}

// EditImage はベース画像を編集します。faceSource が指定された場合、
// ユーザーのテキストの後に顔差し替え指示を追加し、顔の参照元を
// 2枚目の画像パーツとして送信します。
func (g *ImageGateway) EditImage(ctx context.Context, base *domain.ImageAsset, prompt string, faceSource *domain.ImageAsset) (*domain.ImageAsset, error) {
	if base == nil {
		return nil, apperr.New(apperr.KindValidation, "編集対象のベース画像が必要です")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, apperr.New(apperr.KindValidation, "編集プロンプトが空です")
	}

	text := prompt
	if faceSource != nil {
		text += faceSwapInstruction
	}

	parts := []*genai.Part{{Text: text}, assetToPart(base)}
	if faceSource != nil {
		parts = append(parts, assetToPart(faceSource))
	}
	return g.execute(ctx, parts, "")
}

func (g *ImageGateway) execute(ctx context.Context, parts []*genai.Part, aspectRatio string) (*domain.ImageAsset, error) {
	opts := gemini.GenerateOptions{
		AspectRatio: aspectRatio,
	}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.model, parts, opts)
	if err != nil {
		return nil, fmt.Errorf("Gemini画像リクエストに失敗しました: %w", err)
	}
	if resp == nil {
		return nil, apperr.New(apperr.KindEmptyResult, "Geminiからの応答がありません")
	}

	return parseImageResponse(resp.RawResponse)
}

func assetToPart(asset *domain.ImageAsset) *genai.Part {
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: asset.MimeType,
			Data:     asset.Data,
		},
	}
}
