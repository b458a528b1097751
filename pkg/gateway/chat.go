package gateway

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
)

// ChatGateway はアシスタントとのストリーミングチャットを担当します。
type ChatGateway struct {
	client  *genai.Client
	model   string
	persona string
}

// NewChatGateway は依存関係を注入して ChatGateway を初期化します。
// persona はシステム指示（アシスタントのキャラクター設定）です。
func NewChatGateway(client *genai.Client, model, persona string) (*ChatGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("client (*genai.Client) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &ChatGateway{client: client, model: model, persona: persona}, nil
}

// StreamChat は履歴と新規メッセージからストリーミング応答を開始し、
// テキスト増分と引用情報を到着順に返します。location が指定された場合は
// 位置グラウンディング用のツール設定を付与します。
func (g *ChatGateway) StreamChat(ctx context.Context, history []domain.ChatMessage, message string, location *domain.GeoPoint) iter.Seq2[*domain.ChatDelta, error] {
	return func(yield func(*domain.ChatDelta, error) bool) {
		if strings.TrimSpace(message) == "" {
			yield(nil, apperr.New(apperr.KindValidation, "メッセージが空です"))
			return
		}

		contents := historyToContents(history)
		contents = append(contents, &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{{Text: message}},
		})

		cfg := &genai.GenerateContentConfig{}
		instruction := g.persona
		if location != nil {
			cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
			instruction += fmt.Sprintf(
				"\nThe user is currently at latitude %.5f, longitude %.5f. "+
					"When suggesting shops or places, prefer results near this location "+
					"and cite them.", location.Latitude, location.Longitude)
		}
		if instruction != "" {
			cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
		}

		for chunk, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
			if err != nil {
				yield(nil, fmt.Errorf("チャットストリームの受信に失敗しました: %w", err))
				return
			}
			delta := deltaFromChunk(chunk)
			if delta == nil {
				continue
			}
			if !yield(delta, nil) {
				return
			}
		}
	}
}

// historyToContents は永続化形式のチャット履歴を API のコンテンツ列へ変換します。
// 空テキストのエントリは送信しません。
func historyToContents(history []domain.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		if msg.Text == "" {
			continue
		}
		role := "user"
		if msg.Sender == domain.SenderModel {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Text}},
		})
	}
	return contents
}

// deltaFromChunk はストリーミング応答の1チャンクを ChatDelta へ変換します。
// テキストも引用もないチャンクは nil を返します。
func deltaFromChunk(chunk *genai.GenerateContentResponse) *domain.ChatDelta {
	if chunk == nil || len(chunk.Candidates) == 0 || chunk.Candidates[0] == nil {
		return nil
	}
	candidate := chunk.Candidates[0]

	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	var chunks []domain.GroundingChunk
	if gm := candidate.GroundingMetadata; gm != nil {
		for _, gc := range gm.GroundingChunks {
			if gc == nil || gc.Web == nil {
				continue
			}
			chunks = append(chunks, domain.GroundingChunk{
				Web: &domain.GroundingWeb{URI: gc.Web.URI, Title: gc.Web.Title},
			})
		}
	}

	if sb.Len() == 0 && len(chunks) == 0 {
		return nil
	}
	return &domain.ChatDelta{Text: sb.String(), GroundingChunks: chunks}
}
