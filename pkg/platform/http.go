// Package platform は外部インターフェースの実行環境向け実装です。
// HTTP クライアント、ローカルファイル読み込み、音声入出力の
// 具体的なアダプタをここに集めます。
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPClient は net/http による httpkit.ClientInterface の実装です。
type HTTPClient struct {
	client *http.Client
}

var _ httpkit.ClientInterface = (*HTTPClient)(nil)

// NewHTTPClient は HTTPClient を初期化します。timeout が 0 の場合は
// 既定のタイムアウトを使います。
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// FetchBytes は URL の内容を取得して返します。
func (c *HTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	return c.DoRequest(req)
}

// DoRequest はリクエストを実行し、2xx 以外をエラーとして返します。
func (c *HTTPClient) DoRequest(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTPステータスが異常です: %s", resp.Status)
	}
	return body, nil
}

// FetchAndDecodeJSON は URL の JSON を取得して v にデコードします。
func (c *HTTPClient) FetchAndDecodeJSON(ctx context.Context, url string, v any) error {
	body, err := c.FetchBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("JSONのデコードに失敗しました: %w", err)
	}
	return nil
}

// PostJSONAndFetchBytes は data を JSON として POST し、レスポンスを返します。
func (c *HTTPClient) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("JSONのエンコードに失敗しました: %w", err)
	}
	return c.PostRawBodyAndFetchBytes(ctx, url, payload, "application/json")
}

// PostRawBodyAndFetchBytes は任意のボディを POST し、レスポンスを返します。
func (c *HTTPClient) PostRawBodyAndFetchBytes(ctx context.Context, url string, body []byte, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.DoRequest(req)
}
