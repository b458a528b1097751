// Package mediacodec は生の音声・画像バッファと API のトランスポート表現
// （base64 / data URL / 16bit PCM）との変換を行う純粋関数群です。
package mediacodec

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
)

// EncodeBase64 はバイナリをトランスポート用の base64 文字列に変換します。
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 は base64 文字列をバイナリに戻します。
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64デコード失敗: %w", err)
	}
	return data, nil
}

// FormatDataURL は ImageAsset を data URL 形式に変換します。
func FormatDataURL(asset *domain.ImageAsset) string {
	return "data:" + asset.MimeType + ";base64," + EncodeBase64(asset.Data)
}

// ParseDataURL は data URL を ImageAsset に復元します。
// エンコードと往復してもデータと MIME タイプはバイト単位で一致します。
func ParseDataURL(s string) (*domain.ImageAsset, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("data URLではありません")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data URLにカンマ区切りがありません")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("base64以外のdata URLには対応していません")
	}
	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, err
	}
	return &domain.ImageAsset{Data: data, MimeType: mimeType}, nil
}

// ParsePCMRate は "audio/pcm;rate=24000" 形式の MIME タイプから
// サンプルレートを取り出します。レート指定がない場合は 24000 を返します。
func ParsePCMRate(mimeType string) int {
	const defaultRate = 24000
	for _, p := range strings.Split(mimeType, ";") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(p), "rate="); ok {
			if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return defaultRate
}
