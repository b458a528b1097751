package domain

import "time"

// ImageAsset は取り込み済み、または生成済みの画像データとそのメタデータです。
// 一度生成されたら変更されない（immutable）前提で参照共有されます。
type ImageAsset struct {
	Data     []byte
	MimeType string
}

// AudioClip は音声合成やライブ応答で得られる PCM 音声データです。
// Data は 16bit リトルエンディアン・モノラルの生 PCM です。
type AudioClip struct {
	Data       []byte
	SampleRate int
}

// Duration は PCM データの再生時間を返します。
func (c *AudioClip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	samples := len(c.Data) / 2
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// GenerateRequest はルックブック生成の要求です。
// Images と Description の少なくとも一方が必要です。
type GenerateRequest struct {
	Images       []*ImageAsset // 衣装・モデルの参照画像（省略可）
	Description  string        // モデルやコーディネートの説明文
	Style        string        // 撮影スタイル（例: "editorial", "street"）
	AspectRatio  string        // 例: "3:4"
	VariantCount int           // ベース画像から派生させるバリアント数
}

// EditRequest は単一画像の編集要求です。
// FaceSource が指定された場合、編集指示の後段に顔の差し替え指示が追加されます。
type EditRequest struct {
	Base       *ImageAsset
	Prompt     string
	FaceSource *ImageAsset
}
