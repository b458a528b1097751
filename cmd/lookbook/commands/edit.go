package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/gateway"
	"github.com/shouni/gemini-lookbook-kit/pkg/lookbook"
	"github.com/shouni/gemini-lookbook-kit/pkg/platform"
)

var (
	editImage  string
	editPrompt string
	editFace   string
	editOut    string
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "生成済みの画像をプロンプトで編集する",
	Long: `生成済みの画像をテキスト指示で編集します。

--face で顔写真を指定すると、モデルの顔をその人物に自然に差し替えます。`,
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editImage, "image", "", "編集対象の画像（必須）")
	editCmd.Flags().StringVar(&editPrompt, "prompt", "", "編集指示（必須）")
	editCmd.Flags().StringVar(&editFace, "face", "", "顔の差し替え元画像")
	editCmd.Flags().StringVarP(&editOut, "out", "o", "edited.png", "出力先ファイル")
	_ = editCmd.MarkFlagRequired("image")
	_ = editCmd.MarkFlagRequired("prompt")
}

func runEdit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	in, err := newIntake()
	if err != nil {
		return err
	}
	base, err := loadImage(ctx, in, editImage)
	if err != nil {
		return fmt.Errorf("編集対象の取り込みに失敗しました: %w", err)
	}
	var face *domain.ImageAsset
	if editFace != "" {
		face, err = loadImage(ctx, in, editFace)
		if err != nil {
			return fmt.Errorf("顔画像の取り込みに失敗しました: %w", err)
		}
	}

	client, err := newGenAIClient(ctx)
	if err != nil {
		return err
	}
	model, err := platform.NewGenAIModel(client)
	if err != nil {
		return err
	}
	gw, err := gateway.NewImageGateway(model, cfg.ImageModel)
	if err != nil {
		return err
	}
	orch, err := lookbook.New(gw)
	if err != nil {
		return err
	}
	if err := orch.SetResult(base); err != nil {
		return err
	}

	err = orch.Edit(ctx, domain.EditRequest{
		Base:       base,
		Prompt:     editPrompt,
		FaceSource: face,
	})
	if err != nil {
		return err
	}

	slots := orch.Snapshot()
	path, err := saveImage(editOut, slots[0].Asset)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "編集結果: %s\n", path)
	return nil
}
