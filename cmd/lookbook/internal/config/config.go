// Package config は lookbook CLI の設定ファイルの読み書きです。
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// 既定のモデル名です。設定ファイルで上書きできます。
const (
	DefaultImageModel  = "gemini-2.5-flash-image-preview"
	DefaultChatModel   = "gemini-2.5-flash"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultLiveModel   = "gemini-2.0-flash-live-001"
	DefaultVoice       = "Kore"
)

// DefaultPersona はチャットアシスタントの既定の人物設定です。
const DefaultPersona = "あなたは親しみやすいファッションスタイリストのAIアシスタントです。" +
	"トレンドを踏まえた具体的なコーディネート提案を、簡潔な日本語で行ってください。"

// Config は lookbook CLI の設定です。
type Config struct {
	ImageModel  string `yaml:"image_model"`
	ChatModel   string `yaml:"chat_model"`
	SpeechModel string `yaml:"speech_model"`
	LiveModel   string `yaml:"live_model"`
	Voice       string `yaml:"voice"`
	Persona     string `yaml:"persona"`
	Greeting    string `yaml:"greeting"`
	HistoryPath string `yaml:"history_path"`
}

// Default は既定値で埋めた Config を返します。
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ImageModel:  DefaultImageModel,
		ChatModel:   DefaultChatModel,
		SpeechModel: DefaultSpeechModel,
		LiveModel:   DefaultLiveModel,
		Voice:       DefaultVoice,
		Persona:     DefaultPersona,
		HistoryPath: filepath.Join(home, ".lookbook", "history"),
	}
}

// DefaultPath は既定の設定ファイルパスを返します。
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lookbook", "config.yaml")
}

// Load は path の設定ファイルを読み込みます。path が空の場合は既定パスを
// 使い、ファイルが存在しない場合は既定値をそのまま返します。
// 設定ファイルで指定されなかった項目は既定値で補います。
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("設定ファイルを読み込めませんでした: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました (%s): %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// Save は設定を path に書き出します。
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("設定ディレクトリの作成に失敗しました: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("設定のシリアライズに失敗しました: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("設定ファイルの書き込みに失敗しました: %w", err)
	}
	return nil
}

// APIKey は GEMINI_API_KEY 環境変数から API キーを返します。
func APIKey() (string, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return "", fmt.Errorf("環境変数 GEMINI_API_KEY が設定されていません")
	}
	return key, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.ImageModel == "" {
		c.ImageModel = def.ImageModel
	}
	if c.ChatModel == "" {
		c.ChatModel = def.ChatModel
	}
	if c.SpeechModel == "" {
		c.SpeechModel = def.SpeechModel
	}
	if c.LiveModel == "" {
		c.LiveModel = def.LiveModel
	}
	if c.Voice == "" {
		c.Voice = def.Voice
	}
	if c.Persona == "" {
		c.Persona = def.Persona
	}
	if c.HistoryPath == "" {
		c.HistoryPath = def.HistoryPath
	}
}
