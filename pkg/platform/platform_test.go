package platform

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/mediacodec"
)

func TestHTTPClient_FetchBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	client := NewHTTPClient(0)
	body, err := client.FetchBytes(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("レスポンス = %q", body)
	}
}

func TestHTTPClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)
	if _, err := client.FetchBytes(context.Background(), srv.URL); err == nil {
		t.Error("404 がエラーにならないのだ")
	}
}

func TestHTTPClient_FetchAndDecodeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"lookbook"}`))
	}))
	defer srv.Close()

	var got struct {
		Name string `json:"name"`
	}
	client := NewHTTPClient(0)
	if err := client.FetchAndDecodeJSON(context.Background(), srv.URL, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "lookbook" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestHTTPClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	client := NewHTTPClient(0)
	resp, err := client.PostJSONAndFetchBytes(context.Background(), srv.URL, map[string]string{"k": "v"})
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != `{"k":"v"}` {
		t.Errorf("エコーバック = %q", resp)
	}
}

func TestFileReader_OpenAndList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	reader := NewFileReader()

	t.Run("file:// スキームで開けるのだ", func(t *testing.T) {
		rc, err := reader.Open(context.Background(), "file://"+path)
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		if string(data) != "content" {
			t.Errorf("内容 = %q", data)
		}
	})

	t.Run("存在しないファイルはエラーなのだ", func(t *testing.T) {
		if _, err := reader.Open(context.Background(), filepath.Join(dir, "missing")); err == nil {
			t.Error("エラーが返らないのだ")
		}
	})

	t.Run("List はファイルだけを列挙するのだ", func(t *testing.T) {
		var seen []string
		err := reader.List(context.Background(), dir, func(p string) error {
			seen = append(seen, p)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(seen) != 1 || seen[0] != path {
			t.Errorf("列挙結果 = %v", seen)
		}
	})
}

func TestWAVSource_Frames(t *testing.T) {
	// 16kHz 400ms の WAV ファイルを用意する
	pcm := make([]byte, 16000*2*2/5)
	wav := mediacodec.WAVFromPCM16(pcm, 16000)
	path := filepath.Join(t.TempDir(), "input.wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		t.Fatal(err)
	}

	source, err := NewWAVSource(path)
	if err != nil {
		t.Fatal(err)
	}

	var total int
	var frames int
	for {
		frame, err := source.ReadFrame(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if len(frame) > frameSamples {
			t.Errorf("フレーム長 = %d, 上限 %d", len(frame), frameSamples)
		}
		total += len(frame)
		frames++
	}
	if total != 6400 {
		t.Errorf("総サンプル数 = %d, want 6400", total)
	}
	if frames != 2 {
		t.Errorf("フレーム数 = %d, want 2", frames)
	}
}

func TestWAVRecorder_GapFilledWithSilence(t *testing.T) {
	rec := NewWAVRecorder()
	origin := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	clip := &domain.AudioClip{Data: make([]byte, 2400*2), SampleRate: 24000} // 100ms
	if err := rec.PlayAt(origin, clip); err != nil {
		t.Fatal(err)
	}
	// 100ms の空白を置いて次のチャンク
	if err := rec.PlayAt(origin.Add(200*time.Millisecond), clip); err != nil {
		t.Fatal(err)
	}

	// 100ms 音声 + 100ms 無音 + 100ms 音声 = 300ms ぶんの PCM
	if want := 2400 * 2 * 3; len(rec.pcm) != want {
		t.Errorf("PCMバイト数 = %d, want %d", len(rec.pcm), want)
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := rec.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	pcm, rate, err := mediacodec.PCM16FromWAV(data)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 24000 || len(pcm) != 2400*2*3 {
		t.Errorf("書き出し結果 rate=%d len=%d", rate, len(pcm))
	}
}

func TestWAVRecorder_MixedRateRejected(t *testing.T) {
	rec := NewWAVRecorder()
	now := time.Now()
	if err := rec.PlayAt(now, &domain.AudioClip{Data: []byte{0, 0}, SampleRate: 24000}); err != nil {
		t.Fatal(err)
	}
	if err := rec.PlayAt(now, &domain.AudioClip{Data: []byte{0, 0}, SampleRate: 16000}); err == nil {
		t.Error("サンプルレート混在がエラーにならないのだ")
	}
}

func TestFilePlayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speech.wav")
	player := &FilePlayer{Path: path}

	clip := &domain.AudioClip{Data: make([]byte, 24000*2), SampleRate: 24000}
	if err := player.Play(context.Background(), clip); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	pcm, rate, err := mediacodec.PCM16FromWAV(data)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 24000 || len(pcm) != 24000*2 {
		t.Errorf("書き出し結果 rate=%d len=%d", rate, len(pcm))
	}
}

func TestFilePlayer_EmptyClip(t *testing.T) {
	player := &FilePlayer{Path: filepath.Join(t.TempDir(), "x.wav")}
	if err := player.Play(context.Background(), &domain.AudioClip{}); err == nil {
		t.Error("空クリップがエラーにならないのだ")
	}
}
