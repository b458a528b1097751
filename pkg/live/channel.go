// Package live は音声双方向セッションの接続・状態管理です。
// WebSocket 上の BidiGenerateContent プロトコルを直接話します。
package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/mediacodec"
)

const (
	liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// InputMimeType は送信音声のフォーマットです。16kHz モノラル PCM 固定です。
	InputMimeType = "audio/pcm;rate=16000"

	// InputSampleRate は送信音声のサンプルレートです。
	InputSampleRate = 16000

	handshakeTimeout = 30 * time.Second
	eventBufferSize  = 100
)

// ServerEvent はサーバーから届いた1イベントの正規化表現です。
type ServerEvent struct {
	// Audio はモデルが生成した音声チャンクです。音声がないイベントでは nil です。
	Audio *domain.AudioClip
	// InputTranscript はユーザー発話の文字起こし断片です。
	InputTranscript string
	// OutputTranscript はモデル発話の文字起こし断片です。
	OutputTranscript string
	// TurnComplete はモデルのターンが完了したことを示します。
	TurnComplete bool
	// Interrupted はユーザー割り込みでモデルのターンが打ち切られたことを示します。
	Interrupted bool
}

// Channel は双方向音声チャネルの抽象です。
type Channel interface {
	// SendAudio は 16kHz PCM16LE の音声チャンクをサーバーへ送ります。
	SendAudio(ctx context.Context, pcm []byte) error
	// Events はサーバーイベントのシーケンスを返します。
	// チャネルが閉じられるかエラーが起きるとシーケンスは終了します。
	Events() iter.Seq2[*ServerEvent, error]
	// Close は接続を閉じます。複数回呼んでも安全です。
	Close() error
}

// ChannelConfig は WSChannel の接続設定です。
type ChannelConfig struct {
	APIKey string
	Model  string
}

// 送信側ワイヤ型

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	InputAudioTranscription  struct{}         `json:"inputAudioTranscription"`
	OutputAudioTranscription struct{}         `json:"outputAudioTranscription"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// 受信側ワイヤ型

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	ModelTurn           *modelTurn     `json:"modelTurn,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
}

type modelTurn struct {
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	InlineData *wireInlineData `json:"inlineData,omitempty"`
}

type wireInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type transcription struct {
	Text string `json:"text"`
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

// WSChannel は gorilla/websocket による Channel 実装です。
type WSChannel struct {
	conn      *websocket.Conn
	eventsCh  chan eventOrError
	closeCh   chan struct{}
	closeOnce sync.Once

	writeMu sync.Mutex
}

var _ Channel = (*WSChannel)(nil)

// Dial は WebSocket 接続を確立し、setup メッセージを送信して WSChannel を返します。
func Dial(ctx context.Context, cfg ChannelConfig) (*WSChannel, error) {
	if cfg.APIKey == "" {
		return nil, apperr.New(apperr.KindValidation, "APIキーが設定されていません")
	}
	if cfg.Model == "" {
		return nil, apperr.New(apperr.KindValidation, "モデル名が設定されていません")
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	header := http.Header{}
	header.Set("x-goog-api-key", cfg.APIKey)

	conn, _, err := dialer.DialContext(ctx, liveEndpoint, header)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransport, "ライブ接続の確立に失敗しました", err)
	}

	setup := setupMessage{
		Setup: setupPayload{
			Model: "models/" + cfg.Model,
			GenerationConfig: generationConfig{
				ResponseModalities: []string{"AUDIO"},
			},
		},
	}
	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return nil, apperr.Wrap(apperr.KindTransport, "setup メッセージの送信に失敗しました", err)
	}

	ch := &WSChannel{
		conn:     conn,
		eventsCh: make(chan eventOrError, eventBufferSize),
		closeCh:  make(chan struct{}),
	}
	go ch.readLoop()
	return ch, nil
}

// SendAudio は Channel インターフェースの実装です。
func (c *WSChannel) SendAudio(ctx context.Context, pcm []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MimeType: InputMimeType,
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		return apperr.Wrap(apperr.KindTransport, "音声チャンクの送信に失敗しました", err)
	}
	return nil
}

// Events は Channel インターフェースの実装です。
func (c *WSChannel) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-c.closeCh:
				return
			case eoe, ok := <-c.eventsCh:
				if !ok {
					return
				}
				if eoe.err != nil {
					yield(nil, eoe.err)
					return
				}
				if !yield(eoe.event, nil) {
					return
				}
			}
		}
	}
}

// Close は Channel インターフェースの実装です。
func (c *WSChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *WSChannel) readLoop() {
	defer close(c.eventsCh)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
				// 自分で閉じた接続の読み取りエラーは報告しない
			default:
				c.deliver(eventOrError{err: apperr.Wrap(apperr.KindTransport, "ライブ接続が切断されました", err)})
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.deliver(eventOrError{err: apperr.Wrap(apperr.KindTransport, "サーバーメッセージの解析に失敗しました", err)})
			return
		}
		if msg.ServerContent == nil {
			// setupComplete 等の制御メッセージは読み飛ばす
			continue
		}
		event, err := eventFromContent(msg.ServerContent)
		if err != nil {
			c.deliver(eventOrError{err: err})
			return
		}
		c.deliver(eventOrError{event: event})
	}
}

func (c *WSChannel) deliver(eoe eventOrError) {
	select {
	case c.eventsCh <- eoe:
	case <-c.closeCh:
	}
}

// eventFromContent は serverContent を ServerEvent に正規化します。
func eventFromContent(sc *serverContent) (*ServerEvent, error) {
	event := &ServerEvent{
		TurnComplete: sc.TurnComplete,
		Interrupted:  sc.Interrupted,
	}
	if sc.InputTranscription != nil {
		event.InputTranscript = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		event.OutputTranscript = sc.OutputTranscription.Text
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindTransport, "音声チャンクのデコードに失敗しました", err)
			}
			if event.Audio != nil {
				event.Audio.Data = append(event.Audio.Data, data...)
				continue
			}
			event.Audio = &domain.AudioClip{
				Data:       data,
				SampleRate: mediacodec.ParsePCMRate(part.InlineData.MimeType),
			}
		}
	}
	return event, nil
}

// String は ServerEvent の要約を返します。ログ用です。
func (e *ServerEvent) String() string {
	audioBytes := 0
	if e.Audio != nil {
		audioBytes = len(e.Audio.Data)
	}
	return fmt.Sprintf("event{audio=%dB in=%q out=%q turnComplete=%v}",
		audioBytes, e.InputTranscript, e.OutputTranscript, e.TurnComplete)
}
