package platform

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenAIModel は公式 SDK の *genai.Client を gemini.GenerativeModel として
// 使うためのアダプタです。
type GenAIModel struct {
	client *genai.Client
}

var _ gemini.GenerativeModel = (*GenAIModel)(nil)

// NewGenAIModel は GenAIModel を初期化します。
func NewGenAIModel(client *genai.Client) (*GenAIModel, error) {
	if client == nil {
		return nil, fmt.Errorf("client (*genai.Client) is required")
	}
	return &GenAIModel{client: client}, nil
}

// GenerateWithParts は gemini.GenerativeModel インターフェースの実装です。
func (m *GenAIModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	cfg := &genai.GenerateContentConfig{}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.SystemPrompt}}}
	}
	if opts.Seed != nil {
		seed := int32(*opts.Seed)
		cfg.Seed = &seed
	}
	if opts.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: opts.AspectRatio}
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	resp, err := m.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// GenerateContent は gemini.GenerativeModel インターフェースの実装です。
func (m *GenAIModel) GenerateContent(ctx context.Context, model, prompt string) (*gemini.Response, error) {
	resp, err := m.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// UploadFile は gemini.GenerativeModel インターフェースの実装です。
func (m *GenAIModel) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (string, string, error) {
	file, err := m.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return "", "", err
	}
	return file.Name, file.URI, nil
}

// DeleteFile は gemini.GenerativeModel インターフェースの実装です。
func (m *GenAIModel) DeleteFile(ctx context.Context, name string) error {
	_, err := m.client.Files.Delete(ctx, name, nil)
	return err
}

// GetFile は gemini.GenerativeModel インターフェースの実装です。
func (m *GenAIModel) GetFile(ctx context.Context, name string) (*genai.File, error) {
	return m.client.Files.Get(ctx, name, nil)
}
