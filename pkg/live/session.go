package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/mediacodec"
)

// State はセッションの状態です。
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateListening
	StateClosing
	StateError
)

// String は State の表示名を返します。
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	case StateClosing:
		return "closing"
	case StateError:
		return "error"
	}
	return "idle"
}

// AudioSource はマイク入力の抽象です。ReadFrame は InputSampleRate の
// float32 サンプル列を1フレームずつ返し、入力の終端で io.EOF を返します。
type AudioSource interface {
	ReadFrame(ctx context.Context) ([]float32, error)
}

// Dialer はチャネルの接続関数です。
type Dialer func(ctx context.Context) (Channel, error)

// Session は音声双方向会話の1セッションです。
// サーバーイベントは単一の逐次ループで処理され、トランスクリプトの
// ターン境界は TurnComplete イベントで確定します。
type Session struct {
	dial   Dialer
	source AudioSource
	sched  *Scheduler

	mu         sync.Mutex
	state      State
	transcript []domain.LiveTranscriptTurn
	userAcc    strings.Builder
	modelAcc   strings.Builder
	loopErr    error

	channel  Channel
	cancel   context.CancelFunc
	done     chan struct{}
	sendDone chan struct{}
}

// NewSession は依存を注入して Session を初期化します。
func NewSession(dial Dialer, source AudioSource, sched *Scheduler) (*Session, error) {
	if dial == nil {
		return nil, fmt.Errorf("dial (Dialer) is required")
	}
	if source == nil {
		return nil, fmt.Errorf("source (AudioSource) is required")
	}
	if sched == nil {
		return nil, fmt.Errorf("sched (*Scheduler) is required")
	}
	return &Session{dial: dial, source: source, sched: sched}, nil
}

// State は現在のセッション状態を返します。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start は接続を確立し、音声送信とイベント処理を開始します。
// Idle 状態以外からの呼び出しはエラーです。
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return apperr.Newf(apperr.KindValidation, "セッションは %s 状態のため開始できません", state)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	channel, err := s.dial(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateError
		s.loopErr = err
		s.mu.Unlock()
		return fmt.Errorf("ライブセッションの接続に失敗しました: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	done := make(chan struct{})
	sendDone := make(chan struct{})
	s.mu.Lock()
	s.channel = channel
	s.cancel = cancel
	s.done = done
	s.sendDone = sendDone
	s.state = StateConnected
	s.mu.Unlock()

	go s.sendLoop(runCtx, channel, sendDone)
	go s.eventLoop(channel, cancel, done)
	return nil
}

// End はセッションを終了し、確定済みのトランスクリプトを返します。
// 途中までのターンは最後のターンとして確定されます。
// イベント処理中に起きたトランスポートエラーがあればそれも返します。
func (s *Session) End() ([]domain.LiveTranscriptTurn, error) {
	s.mu.Lock()
	if s.state == StateIdle {
		transcript := append([]domain.LiveTranscriptTurn(nil), s.transcript...)
		err := s.loopErr
		s.mu.Unlock()
		return transcript, err
	}
	s.state = StateClosing
	cancel := s.cancel
	channel := s.channel
	done := s.done
	sendDone := s.sendDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if channel != nil {
		if err := channel.Close(); err != nil {
			slog.Warn("ライブ接続のクローズに失敗しました", "error", err)
		}
	}
	// 両ループの終了を待ち切ってからフィールドを畳む
	if done != nil {
		<-done
	}
	if sendDone != nil {
		<-sendDone
	}
	s.sched.StopAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitTurnLocked()
	s.state = StateIdle
	s.channel = nil
	s.cancel = nil
	s.done = nil
	s.sendDone = nil
	return append([]domain.LiveTranscriptTurn(nil), s.transcript...), s.loopErr
}

// Transcript は確定済みのターン列のコピーを返します。
func (s *Session) Transcript() []domain.LiveTranscriptTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LiveTranscriptTurn(nil), s.transcript...)
}

// sendLoop は AudioSource のフレームを PCM16LE に変換して送り続けます。
// channel は End との競合を避けるため引数で受け取り、フィールドには触りません。
func (s *Session) sendLoop(ctx context.Context, channel Channel, done chan struct{}) {
	defer close(done)
	s.setStateIf(StateConnected, StateListening)
	defer s.setStateIf(StateListening, StateConnected)

	for {
		frame, err := s.source.ReadFrame(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				slog.Warn("音声入力の読み取りに失敗しました", "error", err)
			}
			return
		}
		if len(frame) == 0 {
			continue
		}
		pcm := mediacodec.Float32ToPCM16LE(frame)
		if err := channel.SendAudio(ctx, pcm); err != nil {
			if ctx.Err() == nil {
				slog.Warn("音声チャンクの送信に失敗しました", "error", err)
			}
			return
		}
	}
}

// eventLoop はサーバーイベントを1つずつ順番に処理します。
func (s *Session) eventLoop(channel Channel, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)

	for event, err := range channel.Events() {
		if err != nil {
			s.mu.Lock()
			if s.state != StateClosing {
				s.state = StateError
				s.loopErr = err
			}
			s.mu.Unlock()
			// 切断と同じ後始末。取り込みも即座に止める
			cancel()
			s.sched.StopAll()
			return
		}
		s.handleEvent(event)
	}
}

func (s *Session) handleEvent(event *ServerEvent) {
	if event.Interrupted {
		// ユーザー割り込み。再生待ちの音声は破棄する
		s.sched.StopAll()
	}
	if event.Audio != nil {
		if _, err := s.sched.Schedule(event.Audio); err != nil {
			slog.Warn("音声チャンクの再生予約に失敗しました", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if event.InputTranscript != "" {
		s.userAcc.WriteString(event.InputTranscript)
	}
	if event.OutputTranscript != "" {
		s.modelAcc.WriteString(event.OutputTranscript)
	}
	if event.TurnComplete {
		s.commitTurnLocked()
	}
}

// commitTurnLocked は蓄積中の文字起こしを1ターンとして確定します。
// 呼び出し側がロックを保持します。
func (s *Session) commitTurnLocked() {
	user := strings.TrimSpace(s.userAcc.String())
	model := strings.TrimSpace(s.modelAcc.String())
	if user == "" && model == "" {
		return
	}
	s.transcript = append(s.transcript, domain.LiveTranscriptTurn{
		UserText:  user,
		ModelText: model,
	})
	s.userAcc.Reset()
	s.modelAcc.Reset()
}

func (s *Session) setStateIf(from, to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == from {
		s.state = to
	}
}
