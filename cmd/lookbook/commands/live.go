package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-lookbook-kit/cmd/lookbook/internal/config"
	"github.com/shouni/gemini-lookbook-kit/pkg/live"
	"github.com/shouni/gemini-lookbook-kit/pkg/platform"
)

var (
	liveInput   string
	liveOutput  string
	liveTimeout time.Duration
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "録音済み音声で音声会話セッションを実行する",
	Long: `録音済みの WAV ファイルを入力として音声会話セッションを実行します。

入力音声を送り終えたあと応答を待ち、モデルの音声を1本の WAV に
書き出します。終了時に会話のトランスクリプトを表示します。`,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringVar(&liveInput, "input", "", "入力音声の WAV ファイル（必須）")
	liveCmd.Flags().StringVar(&liveOutput, "output", "response.wav", "応答音声の書き出し先")
	liveCmd.Flags().DurationVar(&liveTimeout, "timeout", 60*time.Second, "応答を待つ最大時間")
	_ = liveCmd.MarkFlagRequired("input")
}

func runLive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	key, err := config.APIKey()
	if err != nil {
		return err
	}
	source, err := platform.NewWAVSource(liveInput)
	if err != nil {
		return err
	}
	recorder := platform.NewWAVRecorder()
	sched, err := live.NewScheduler(recorder)
	if err != nil {
		return err
	}

	dial := func(ctx context.Context) (live.Channel, error) {
		return live.Dial(ctx, live.ChannelConfig{APIKey: key, Model: cfg.LiveModel})
	}
	session, err := live.NewSession(dial, source, sched)
	if err != nil {
		return err
	}

	if err := session.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "セッションを開始しました。応答を待っています...")

	// 入力を送り終えてからターン完了かタイムアウトまで待つ
	deadline := time.Now().Add(liveTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			break
		}
		if session.State() == live.StateError {
			break
		}
		if len(session.Transcript()) > 0 {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}

	transcript, sessionErr := session.End()
	for i, turn := range transcript {
		fmt.Fprintf(out, "--- ターン %d ---\n", i+1)
		if turn.UserText != "" {
			fmt.Fprintf(out, "you> %s\n", turn.UserText)
		}
		if turn.ModelText != "" {
			fmt.Fprintf(out, "AI> %s\n", turn.ModelText)
		}
	}
	if err := recorder.WriteFile(liveOutput); err != nil {
		fmt.Fprintf(out, "応答音声はありませんでした (%v)\n", err)
	} else {
		fmt.Fprintf(out, "応答音声を書き出しました: %s\n", liveOutput)
	}
	return sessionErr
}
