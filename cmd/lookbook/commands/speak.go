package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-lookbook-kit/pkg/gateway"
	"github.com/shouni/gemini-lookbook-kit/pkg/platform"
)

var (
	speakOut   string
	speakVoice string
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "テキストを音声合成して WAV に書き出す",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSpeak,
}

func init() {
	speakCmd.Flags().StringVarP(&speakOut, "out", "o", "speech.wav", "出力先の WAV ファイル")
	speakCmd.Flags().StringVar(&speakVoice, "voice", "", "ボイス名 (既定は設定ファイルの voice)")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	voice := speakVoice
	if voice == "" {
		voice = cfg.Voice
	}

	client, err := newGenAIClient(ctx)
	if err != nil {
		return err
	}
	gw, err := gateway.NewSpeechGateway(client, cfg.SpeechModel, voice)
	if err != nil {
		return err
	}

	player := &platform.FilePlayer{Path: speakOut}
	if err := gw.Speak(ctx, strings.Join(args, " "), player); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "音声を書き出しました: %s\n", speakOut)
	return nil
}
