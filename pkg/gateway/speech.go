package gateway

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/mediacodec"
)

// Player は合成音声の再生を抽象化するケイパビリティです。
// Play は再生が完了するまでブロックします。実装はコアの外側（platform）が提供します。
type Player interface {
	Play(ctx context.Context, clip *domain.AudioClip) error
}

// SpeechGateway はテキストから音声への合成を担当します。
type SpeechGateway struct {
	client *genai.Client
	model  string
	voice  string
}

// NewSpeechGateway は依存関係を注入して SpeechGateway を初期化します。
func NewSpeechGateway(client *genai.Client, model, voice string) (*SpeechGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("client (*genai.Client) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &SpeechGateway{client: client, model: model, voice: voice}, nil
}

// Synthesize はテキストを音声に合成し、PCM クリップとして返します。
func (g *SpeechGateway) Synthesize(ctx context.Context, text string) (*domain.AudioClip, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.KindValidation, "読み上げるテキストが空です")
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
	}
	if g.voice != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		}
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: text}},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("音声合成リクエストに失敗しました: %w", err)
	}

	return parseSpeechResponse(resp)
}

// Speak はテキストを合成し、再生完了まで待ってから戻ります。
func (g *SpeechGateway) Speak(ctx context.Context, text string, player Player) error {
	clip, err := g.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if err := player.Play(ctx, clip); err != nil {
		return fmt.Errorf("音声の再生に失敗しました: %w", err)
	}
	return nil
}

func parseSpeechResponse(resp *genai.GenerateContentResponse) (*domain.AudioClip, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, apperr.New(apperr.KindEmptyResult, "音声候補が返されませんでした")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return nil, apperr.New(apperr.KindEmptyResult, "音声データが見つかりませんでした")
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if !strings.HasPrefix(part.InlineData.MIMEType, "audio/") {
			continue
		}
		return &domain.AudioClip{
			Data:       part.InlineData.Data,
			SampleRate: mediacodec.ParsePCMRate(part.InlineData.MIMEType),
		}, nil
	}
	return nil, apperr.New(apperr.KindEmptyResult, "音声データが見つかりませんでした")
}
