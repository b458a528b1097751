package live

import (
	"fmt"
	"sync"
	"time"

	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
)

// Sink は音声チャンクの再生先です。PlayAt はブロックせずに
// 指定時刻からの再生を予約して即座に戻ることが期待されます。
type Sink interface {
	PlayAt(start time.Time, clip *domain.AudioClip) error
	// Stop は予約済みの再生をすべて破棄します。
	Stop()
}

// Scheduler は到着した音声チャンクを隙間なく連結して再生するための
// 開始時刻を割り当てます。ウォーターマーク（次のチャンクが開始できる
// 最も早い時刻）は単調非減少です。
type Scheduler struct {
	mu        sync.Mutex
	sink      Sink
	now       func() time.Time
	watermark time.Time
}

// NewScheduler は Sink を注入して Scheduler を初期化します。
func NewScheduler(sink Sink) (*Scheduler, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink (Sink) is required")
	}
	return &Scheduler{sink: sink, now: time.Now}, nil
}

// Schedule はチャンクの開始時刻を決めて Sink に予約します。
// 開始時刻は「現在時刻」と「前チャンクの終了時刻」の遅い方です。
func (s *Scheduler) Schedule(clip *domain.AudioClip) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	if s.watermark.After(start) {
		start = s.watermark
	}
	s.watermark = start.Add(clip.Duration())

	if err := s.sink.PlayAt(start, clip); err != nil {
		return time.Time{}, fmt.Errorf("音声チャンクの再生予約に失敗しました: %w", err)
	}
	return start, nil
}

// StopAll は予約済みの再生を破棄し、ウォーターマークをリセットします。
// ユーザー割り込み（barge-in）とセッション終了時に呼ばれます。
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.Stop()
	s.watermark = time.Time{}
}

// Watermark は次のチャンクが開始できる最も早い時刻を返します。
func (s *Scheduler) Watermark() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}
