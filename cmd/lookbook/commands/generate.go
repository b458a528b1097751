package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
	"github.com/shouni/gemini-lookbook-kit/pkg/gateway"
	"github.com/shouni/gemini-lookbook-kit/pkg/lookbook"
	"github.com/shouni/gemini-lookbook-kit/pkg/platform"
)

var (
	generateRefs     []string
	generateDesc     string
	generateStyle    string
	generateAspect   string
	generateVariants int
	generateOutDir   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "参照画像や説明文からルックブックを生成する",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringArrayVar(&generateRefs, "ref", nil, "参照画像（ファイルパスまたは URL、複数指定可）")
	generateCmd.Flags().StringVar(&generateDesc, "desc", "", "モデルと服装の説明文")
	generateCmd.Flags().StringVar(&generateStyle, "style", "", "撮影スタイルの指定")
	generateCmd.Flags().StringVar(&generateAspect, "aspect", "3:4", "アスペクト比")
	generateCmd.Flags().IntVar(&generateVariants, "variants", 0, "ポーズ違いのバリアント数")
	generateCmd.Flags().StringVarP(&generateOutDir, "out", "o", ".", "出力ディレクトリ")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	in, err := newIntake()
	if err != nil {
		return err
	}
	var refs []*domain.ImageAsset
	for _, ref := range generateRefs {
		asset, err := loadImage(ctx, in, ref)
		if err != nil {
			return fmt.Errorf("参照画像 %s の取り込みに失敗しました: %w", ref, err)
		}
		refs = append(refs, asset)
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

	err = orch.Generate(ctx, domain.GenerateRequest{
		Images:       refs,
		Description:  generateDesc,
		Style:        generateStyle,
		AspectRatio:  generateAspect,
		VariantCount: generateVariants,
	})
	if err != nil {
		return err
	}

	for i, slot := range orch.Snapshot() {
		switch slot.State {
		case lookbook.SlotReady:
			path, err := saveImage(filepath.Join(generateOutDir, fmt.Sprintf("slot_%d", i)), slot.Asset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "スロット%d: %s\n", i, path)
		case lookbook.SlotFailed:
			fmt.Fprintf(cmd.OutOrStdout(), "スロット%d: 生成失敗 (%v)\n", i, slot.Err)
		}
	}
	return nil
}
