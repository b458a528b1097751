package commands

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-lookbook-kit/pkg/chatstore"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/gateway"
)

var (
	chatLocation string
	chatClear    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "スタイリスト AI と対話する",
	Long: `スタイリスト AI との対話セッションを開始します。

履歴は保存され、次回のセッションに引き継がれます。
--location "35.68,139.76" のように現在地を渡すと、
周辺の店舗や天候を踏まえた提案を受けられます。
終了するには exit または Ctrl-D を入力してください。`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatLocation, "location", "", "現在地の緯度経度 (例: 35.68,139.76)")
	chatCmd.Flags().BoolVar(&chatClear, "clear", false, "保存済みの履歴を消去して開始する")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	location, err := parseLocation(chatLocation)
	if err != nil {
		return err
	}

	store, err := chatstore.Open(cfg.HistoryPath, cfg.Greeting)
	if err != nil {
		return err
	}
	defer store.Close()

	if chatClear {
		if err := store.Clear(); err != nil {
			return err
		}
	}
	history, err := store.Load()
	if err != nil {
		return err
	}

	client, err := newGenAIClient(ctx)
	if err != nil {
		return err
	}
	gw, err := gateway.NewChatGateway(client, cfg.ChatModel, cfg.Persona)
	if err != nil {
		return err
	}

	// 引き継いだ履歴の最後のモデル発言を表示する
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == domain.SenderModel {
			fmt.Fprintf(out, "AI> %s\n", history[i].Text)
			break
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		history = append(history, domain.ChatMessage{Sender: domain.SenderUser, Text: message})

		var reply strings.Builder
		var chunks []domain.GroundingChunk
		fmt.Fprint(out, "AI> ")
		for delta, err := range gw.StreamChat(ctx, history[:len(history)-1], message, location) {
			if err != nil {
				fmt.Fprintln(out)
				return err
			}
			if delta.Text != "" {
				fmt.Fprint(out, delta.Text)
				reply.WriteString(delta.Text)
			}
			chunks = append(chunks, delta.GroundingChunks...)
		}
		fmt.Fprintln(out)

		for _, chunk := range chunks {
			if chunk.Web != nil {
				fmt.Fprintf(out, "  参考: %s <%s>\n", chunk.Web.Title, chunk.Web.URI)
			}
		}

		history = append(history, domain.ChatMessage{
			Sender:          domain.SenderModel,
			Text:            reply.String(),
			GroundingChunks: chunks,
		})
		if err := store.Save(history); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseLocation(s string) (*domain.GeoPoint, error) {
	if s == "" {
		return nil, nil
	}
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("位置情報は \"緯度,経度\" の形式で指定してください: %q", s)
	}
	latitude, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil, fmt.Errorf("緯度の解析に失敗しました: %w", err)
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return nil, fmt.Errorf("経度の解析に失敗しました: %w", err)
	}
	return &domain.GeoPoint{Latitude: latitude, Longitude: longitude}, nil
}
