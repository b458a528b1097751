package platform

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/live"
	"github.com/shouni/gemini-lookbook-kit/pkg/mediacodec"
)

// frameSamples は WAVSource が1フレームで返すサンプル数です。
// 16kHz で 200ms ぶんに相当します。
const frameSamples = 3200

// WAVSource は WAV ファイルを入力とする live.AudioSource の実装です。
// ファイル全体を読み込み、16kHz にリサンプルしたうえで固定長フレームに
// 分割して配ります。マイクの代わりに録音済み音声で会話するための実装です。
type WAVSource struct {
	mu      sync.Mutex
	samples []float32
	pos     int
}

var _ live.AudioSource = (*WAVSource)(nil)

// NewWAVSource は path の WAV ファイルを読み込んで WAVSource を返します。
func NewWAVSource(path string) (*WAVSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("音声ファイルを読み込めませんでした: %w", err)
	}
	pcm, rate, err := mediacodec.PCM16FromWAV(data)
	if err != nil {
		return nil, fmt.Errorf("WAVの解析に失敗しました: %w", err)
	}
	if rate != live.InputSampleRate {
		pcm, err = mediacodec.ResamplePCM16(pcm, rate, live.InputSampleRate)
		if err != nil {
			return nil, fmt.Errorf("リサンプルに失敗しました: %w", err)
		}
	}
	return &WAVSource{samples: mediacodec.PCM16LEToFloat32(pcm)}, nil
}

// ReadFrame は live.AudioSource インターフェースの実装です。
// 入力の終端で io.EOF を返します。
func (s *WAVSource) ReadFrame(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.samples) {
		return nil, io.EOF
	}
	end := s.pos + frameSamples
	if end > len(s.samples) {
		end = len(s.samples)
	}
	frame := s.samples[s.pos:end]
	s.pos = end
	return frame, nil
}

// WAVRecorder は受信した音声チャンクをつなげて1本の WAV ファイルに
// 書き出す live.Sink の実装です。開始時刻の隙間は無音で埋めます。
type WAVRecorder struct {
	mu         sync.Mutex
	pcm        []byte
	sampleRate int
	origin     time.Time
}

var _ live.Sink = (*WAVRecorder)(nil)

// NewWAVRecorder は WAVRecorder を初期化します。
func NewWAVRecorder() *WAVRecorder {
	return &WAVRecorder{}
}

// PlayAt は live.Sink インターフェースの実装です。
func (r *WAVRecorder) PlayAt(start time.Time, clip *domain.AudioClip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sampleRate == 0 {
		r.sampleRate = clip.SampleRate
		r.origin = start
	}
	if clip.SampleRate != r.sampleRate {
		return fmt.Errorf("サンプルレートが混在しています: %d と %d", r.sampleRate, clip.SampleRate)
	}

	// 録音済み末尾と開始時刻の差を無音で埋める
	offset := int(start.Sub(r.origin).Seconds()*float64(r.sampleRate)) * 2
	if offset < 0 {
		offset = 0
	}
	if gap := offset - len(r.pcm); gap > 0 {
		r.pcm = append(r.pcm, make([]byte, gap)...)
	}
	r.pcm = append(r.pcm, clip.Data...)
	return nil
}

// Stop は live.Sink インターフェースの実装です。録音済みデータは保持します。
func (r *WAVRecorder) Stop() {}

// WriteFile は録音済みの音声を WAV ファイルとして書き出します。
func (r *WAVRecorder) WriteFile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pcm) == 0 {
		return fmt.Errorf("書き出す音声がありません")
	}
	data := mediacodec.WAVFromPCM16(r.pcm, r.sampleRate)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("音声ファイルの書き出しに失敗しました: %w", err)
	}
	return nil
}

// FilePlayer は合成音声を WAV ファイルに書き出す gateway.Player 実装です。
// 書き出しの完了をもって再生完了とみなします。
type FilePlayer struct {
	// Path は出力先の WAV ファイルパスです。
	Path string
}

// Play はクリップを WAV ファイルとして書き出します。
func (p *FilePlayer) Play(ctx context.Context, clip *domain.AudioClip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clip == nil || len(clip.Data) == 0 {
		return fmt.Errorf("再生する音声がありません")
	}
	data := mediacodec.WAVFromPCM16(clip.Data, clip.SampleRate)
	if err := os.WriteFile(p.Path, data, 0o644); err != nil {
		return fmt.Errorf("音声ファイルの書き出しに失敗しました: %w", err)
	}
	return nil
}
