package domain

// Sender はチャットメッセージの発話者です。
type Sender string

const (
	SenderUser  Sender = "user"
	SenderModel Sender = "model"
)

// GroundingWeb はグラウンディング引用が指す Web 上の情報源です。
type GroundingWeb struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundingChunk は外部サービスが応答に付与した引用情報です。
type GroundingChunk struct {
	Web *GroundingWeb `json:"web,omitempty"`
}

// ChatMessage はチャット履歴の1エントリです。挿入順に意味があります。
// 永続化レイヤ（chatstore）とこの形のまま往復します。
type ChatMessage struct {
	Sender          Sender           `json:"sender"`
	Text            string           `json:"text"`
	GroundingChunks []GroundingChunk `json:"groundingChunks,omitempty"`
}

// ChatDelta はストリーミングチャットの増分です。
// 到着順のまま同一メッセージへ追記されることを前提とします。
type ChatDelta struct {
	Text            string
	GroundingChunks []GroundingChunk
}

// GeoPoint はチャットへ位置グラウンディングを付与するための座標です。
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// LiveTranscriptTurn はライブセッションで確定した1ターン分の書き起こしです。
// ターン境界（turnComplete）を受信したときにのみ追加されます。
type LiveTranscriptTurn struct {
	UserText  string
	ModelText string
}
