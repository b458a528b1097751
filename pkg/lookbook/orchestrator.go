// Package lookbook はルックブック生成のスロット状態機械です。
// ベース画像を1回生成し、成功した場合のみ N 個のバリアント編集を並行に発行します。
// 各スロットは独立した単一ライターのセルとして解決され、兄弟をブロックしません。
package lookbook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/gemini-lookbook-kit/pkg/apperr"
	"github.com/shouni/gemini-lookbook-kit/pkg/domain"
)

// MaxHistory は直近のベース画像を保持する履歴の上限です。
const MaxHistory = 5

// variantInstruction はバリアント編集に使う固定指示です。
// 被写体・衣装は保ったままポーズとアングルだけを変えます。
const variantInstruction = "Keep the exact same model, outfit, hairstyle, background style " +
	"and lighting, but change the pose and camera angle to add variety for a fashion lookbook."

// Generator は画像ゲートウェイのうちオーケストレーターが使う操作です。
type Generator interface {
	GenerateFromText(ctx context.Context, prompt, aspectRatio string) (*domain.ImageAsset, error)
	GenerateFromReferences(ctx context.Context, images []*domain.ImageAsset, prompt string) (*domain.ImageAsset, error)
	EditImage(ctx context.Context, base *domain.ImageAsset, prompt string, faceSource *domain.ImageAsset) (*domain.ImageAsset, error)
}

// SlotState はスロットの状態です。
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotLoading
	SlotReady
	SlotFailed
)

// String は SlotState の表示名を返します。
func (s SlotState) String() string {
	switch s {
	case SlotLoading:
		return "loading"
	case SlotReady:
		return "ready"
	case SlotFailed:
		return "failed"
	}
	return "empty"
}

// Slot はルックブック結果セットの1枠です。スロット0がベース画像、
// スロット1以降はベースから派生したバリアントです。
type Slot struct {
	State SlotState
	Asset *domain.ImageAsset
	Err   error
}

// Orchestrator はスロット列と生成中フラグを管理します。
// スロット列を変更するのはオーケストレーター自身（完了コールバック）だけです。
type Orchestrator struct {
	gen Generator

	mu         sync.Mutex
	slots      []Slot
	generating bool
	history    []*domain.ImageAsset // 新しい順、最大 MaxHistory 件
}

// New は Generator を注入して Orchestrator を初期化します。
func New(gen Generator) (*Orchestrator, error) {
	if gen == nil {
		return nil, fmt.Errorf("gen (Generator) is required")
	}
	return &Orchestrator{gen: gen}, nil
}

// Generate はベース画像の生成と、成功時のバリアント展開を行います。
// ベース呼び出しとすべてのバリアント呼び出しが決着するまでブロックし、
// その間 IsGenerating は true のままです（join セマンティクス）。
// ベースの失敗は全スロットを破棄して1つのエラーとして返します。
// バリアントの失敗は自分のスロットにだけ記録され、戻り値には現れません。
func (o *Orchestrator) Generate(ctx context.Context, req domain.GenerateRequest) error {
	if len(req.Images) == 0 && strings.TrimSpace(req.Description) == "" {
		return apperr.New(apperr.KindValidation, "参照画像または説明文のどちらかが必要です")
	}
	variantCount := req.VariantCount
	if variantCount < 0 {
		variantCount = 0
	}

	o.mu.Lock()
	if o.generating {
		o.mu.Unlock()
		return apperr.New(apperr.KindValidation, "別の生成が進行中です")
	}
	o.generating = true
	// バリアントスロットはベースが Ready になるまで Empty のまま
	o.slots = make([]Slot, 1+variantCount)
	o.slots[0] = Slot{State: SlotLoading}
	o.mu.Unlock()

	base, err := o.generateBase(ctx, req)
	if err != nil {
		// ベースなしにバリアントは存在できないため、全体を破棄する
		o.mu.Lock()
		o.slots = nil
		o.generating = false
		o.mu.Unlock()
		slog.WarnContext(ctx, "ベース画像の生成に失敗しました", "error", err)
		return fmt.Errorf("ベース画像の生成に失敗しました: %w", err)
	}

	o.mu.Lock()
	o.slots[0] = Slot{State: SlotReady, Asset: base}
	for i := 1; i <= variantCount; i++ {
		o.slots[i] = Slot{State: SlotLoading}
	}
	o.pushHistory(base)
	o.mu.Unlock()

	if variantCount > 0 {
		var wg sync.WaitGroup
		for i := 1; i <= variantCount; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				asset, err := o.gen.EditImage(ctx, base, variantInstruction, nil)

				// 自分のインデックスにだけ書き込む
				o.mu.Lock()
				defer o.mu.Unlock()
				if err != nil {
					o.slots[idx] = Slot{State: SlotFailed, Err: err}
					slog.WarnContext(ctx, "バリアント生成に失敗しました", "slot", idx, "error", err)
					return
				}
				o.slots[idx] = Slot{State: SlotReady, Asset: asset}
			}(i)
		}
		wg.Wait()
	}

	o.mu.Lock()
	o.generating = false
	o.mu.Unlock()
	return nil
}

// Edit は単一画像モードでの編集です。スロット列全体を新しい1スロットに置き換えます。
// ルックブック表示中（スロットが複数ある状態）では呼び出せません。
func (o *Orchestrator) Edit(ctx context.Context, req domain.EditRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return apperr.New(apperr.KindValidation, "編集プロンプトが空です")
	}
	if req.Base == nil {
		return apperr.New(apperr.KindValidation, "編集対象のベース画像が必要です")
	}

	o.mu.Lock()
	if o.generating {
		o.mu.Unlock()
		return apperr.New(apperr.KindValidation, "別の生成が進行中です")
	}
	if len(o.slots) != 1 || o.slots[0].State != SlotReady {
		o.mu.Unlock()
		return apperr.New(apperr.KindValidation, "編集は単一画像の表示中のみ可能です")
	}
	o.generating = true
	o.slots = []Slot{{State: SlotLoading}}
	o.mu.Unlock()

	asset, err := o.gen.EditImage(ctx, req.Base, req.Prompt, req.FaceSource)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.generating = false
	if err != nil {
		o.slots = []Slot{{State: SlotFailed, Err: err}}
		return fmt.Errorf("画像の編集に失敗しました: %w", err)
	}
	o.slots = []Slot{{State: SlotReady, Asset: asset}}
	return nil
}

// SetResult は外部で得た画像を単一の Ready スロットとして設定します。
// 取り込み直後の画像を編集の起点にするときに使います。
func (o *Orchestrator) SetResult(asset *domain.ImageAsset) error {
	if asset == nil {
		return apperr.New(apperr.KindValidation, "画像が必要です")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generating {
		return apperr.New(apperr.KindValidation, "別の生成が進行中です")
	}
	o.slots = []Slot{{State: SlotReady, Asset: asset}}
	return nil
}

// Snapshot は現在のスロット列のコピーを返します。
func (o *Orchestrator) Snapshot() []Slot {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Slot, len(o.slots))
	copy(out, o.slots)
	return out
}

// IsGenerating は生成が進行中かどうかを返します。
// 進行中の再実行はキャンセルではなくこのガードで防ぎます。
func (o *Orchestrator) IsGenerating() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generating
}

// History は直近のベース画像（新しい順、最大 MaxHistory 件）を返します。
func (o *Orchestrator) History() []*domain.ImageAsset {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*domain.ImageAsset, len(o.history))
	copy(out, o.history)
	return out
}

// Clear はスロット列を破棄します。履歴は保持します。
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generating {
		return
	}
	o.slots = nil
}

func (o *Orchestrator) generateBase(ctx context.Context, req domain.GenerateRequest) (*domain.ImageAsset, error) {
	prompt := buildBasePrompt(req)
	if len(req.Images) > 0 {
		return o.gen.GenerateFromReferences(ctx, req.Images, prompt)
	}
	return o.gen.GenerateFromText(ctx, prompt, req.AspectRatio)
}

// pushHistory は新しい順の履歴に追加します。呼び出し側がロックを保持します。
func (o *Orchestrator) pushHistory(asset *domain.ImageAsset) {
	o.history = append([]*domain.ImageAsset{asset}, o.history...)
	if len(o.history) > MaxHistory {
		o.history = o.history[:MaxHistory]
	}
}

func buildBasePrompt(req domain.GenerateRequest) string {
	var sb strings.Builder
	if len(req.Images) > 0 {
		sb.WriteString("Create a professional fashion lookbook photo of a model wearing " +
			"the clothing items shown in the reference images.")
	} else {
		sb.WriteString("Create a professional fashion lookbook photo.")
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		sb.WriteString(" Model and outfit description: " + desc + ".")
	}
	if style := strings.TrimSpace(req.Style); style != "" {
		sb.WriteString(" Photography style: " + style + ".")
	}
	return sb.String()
}
