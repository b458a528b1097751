// Package commands は lookbook CLI のサブコマンド群です。
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/shouni/gemini-lookbook-kit/cmd/lookbook/internal/config"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/intake"
	"github.com/shouni/gemini-lookbook-kit/pkg/platform"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lookbook",
	Short: "AIファッションスタジオ CLI",
	Long: `lookbook - Gemini を使った AI ファッションスタジオの CLI です。

服の参照画像やスタイルの説明からルックブック（ベース画像とポーズ違いの
バリアント）を生成し、生成結果の編集、スタイリスト AI とのチャット、
音声読み上げ、音声会話セッションを提供します。

Examples:
  # 参照画像からルックブックを生成（バリアント3枚）
  lookbook generate --ref coat.jpg --ref scarf.png --variants 3 -o ./out

  # 生成した画像を編集
  lookbook edit --image out/slot_0.png --prompt "コートを赤に変えて" -o edited.png

  # スタイリスト AI とチャット
  lookbook chat

  # テキストを音声で読み上げて WAV に保存
  lookbook speak "本日のおすすめコーディネートです" -o speech.wav

  # 録音済み音声で会話セッションを実行
  lookbook live --input question.wav --output answer.wav
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute はルートコマンドを実行します。
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "設定ファイル (既定: ~/.lookbook/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力する")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(liveCmd)
}

func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗しました: %v\n", err)
		os.Exit(1)
	}
}

// newGenAIClient は公式 SDK のクライアントを作ります。
func newGenAIClient(ctx context.Context) (*genai.Client, error) {
	key, err := config.APIKey()
	if err != nil {
		return nil, err
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
}

// newIntake は画像取り込み層を組み立てます。
func newIntake() (*intake.Intake, error) {
	return intake.New(platform.NewHTTPClient(0), platform.NewFileReader())
}

// loadImage はローカルパスまたは URL から画像を取り込みます。
func loadImage(ctx context.Context, in *intake.Intake, ref string) (*domain.ImageAsset, error) {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return in.FromURL(ctx, ref)
	}
	return in.FromFile(ref)
}

// saveImage は画像を MIME タイプに応じた拡張子で書き出します。
func saveImage(path string, asset *domain.ImageAsset) (string, error) {
	if filepath.Ext(path) == "" {
		switch asset.MimeType {
		case "image/jpeg":
			path += ".jpg"
		default:
			path += ".png"
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(path, asset.Data, 0o644); err != nil {
		return "", fmt.Errorf("画像の書き出しに失敗しました: %w", err)
	}
	return path, nil
}
