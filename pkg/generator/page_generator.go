// Package generator はページ台本を1枚の合成画像へ変換するオーケストレーターです。
// 参照画像の収集（キャラクターは自動作成、シーンはスキップ）、複合プロンプトの
// 組み立て、生成呼び出し、出力ファイルの保存までを1回の操作として実行します。
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/gemini"
	"github.com/shouni/go-comic-kit/pkg/registry"
)

// デフォルト値。ページ生成は参照画像生成（2K）より高解像度で行います。
const (
	DefaultPageImageSize = "4K"
	DefaultAspectRatio   = "3:4"
	DefaultStyle         = "日漫风格"
)

// ImageClient は画像生成プロトコルアダプタの契約です。
// 本番では gemini.Client がこれを満たします。
type ImageClient interface {
	GenerateWithReferences(ctx context.Context, prompt string, imageRefs []string, imageSize, aspectRatio string) (string, error)
}

// PageGenerator は2つのレジストリと生成クライアントを束ねるオーケストレーターです。
type PageGenerator struct {
	characters *registry.CharacterStore
	scenes     *registry.SceneStore
	client     ImageClient
	outputDir  string
}

// New は PageGenerator を構築します。
func New(characters *registry.CharacterStore, scenes *registry.SceneStore, client ImageClient, outputDir string) *PageGenerator {
	return &PageGenerator{
		characters: characters,
		scenes:     scenes,
		client:     client,
		outputDir:  outputDir,
	}
}

// Options はページ生成の任意指定です。ゼロ値はデフォルトに解決されます。
type Options struct {
	ImageSize   string
	AspectRatio string
	Style       string
}

func (o Options) withDefaults() Options {
	if o.ImageSize == "" {
		o.ImageSize = DefaultPageImageSize
	}
	if o.AspectRatio == "" {
		o.AspectRatio = DefaultAspectRatio
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	return o
}

// Generate はページ台本から漫画ページを1枚生成します。
func (g *PageGenerator) Generate(ctx context.Context, page *domain.Page, opts Options) (*domain.PageResult, error) {
	slog.InfoContext(ctx, "ページを生成します", "page", page.PageNumber, "panels", len(page.Panels))
	return g.generate(ctx, page, opts, false)
}

// Regenerate は既存の出力を同じパスで上書きして再生成します。
// 生成経路は Generate と同一で、結果の regenerated フラグだけが異なります。
func (g *PageGenerator) Regenerate(ctx context.Context, page *domain.Page, opts Options) (*domain.PageResult, error) {
	slog.InfoContext(ctx, "ページを再生成します", "page", page.PageNumber, "panels", len(page.Panels))
	return g.generate(ctx, page, opts, true)
}

func (g *PageGenerator) generate(ctx context.Context, page *domain.Page, opts Options, regenerated bool) (*domain.PageResult, error) {
	opts = opts.withDefaults()

	characterNames := page.CharacterNames()

	refs, scenesUsed, err := g.collectReferences(ctx, characterNames, page.SceneNames(), opts.Style)
	if err != nil {
		return nil, err
	}

	prompt := BuildPagePrompt(page, opts.Style)

	// 全パネルを1枚に合成するため、生成呼び出しはページにつき1回だけ
	dataURL, err := g.client.GenerateWithReferences(ctx, prompt, refs, opts.ImageSize, opts.AspectRatio)
	if err != nil {
		return nil, fmt.Errorf("ページ画像の生成に失敗しました (page %d): %w", page.PageNumber, err)
	}

	outputPath := filepath.Join(g.outputDir, fmt.Sprintf("page_%03d.jpg", page.PageNumber))
	if err := gemini.SaveDataURL(dataURL, outputPath); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("✅ 第 %d 页漫画已生成！", page.PageNumber)
	if regenerated {
		message = fmt.Sprintf("✅ 第 %d 页已重新生成（覆盖原文件）！", page.PageNumber)
	}

	slog.InfoContext(ctx, "ページ画像を保存しました", "page", page.PageNumber, "path", outputPath)
	return &domain.PageResult{
		Success:        true,
		PageNumber:     page.PageNumber,
		PanelCount:     len(page.Panels),
		ImagePath:      outputPath,
		CharactersUsed: characterNames,
		ScenesUsed:     scenesUsed,
		Regenerated:    regenerated,
		Message:        message,
	}, nil
}

// collectReferences はページが言及する全エンティティの参照画像を集めます。
// 未登録キャラクターはプレースホルダ説明で自動作成し、未登録シーンは
// スキップします。並び順はキャラクター、シーンの順で確定的です。
// 戻り値の2つ目は実際に参照画像を解決できたシーン名の集合で、
// スキップされたシーンは含まれません。
func (g *PageGenerator) collectReferences(ctx context.Context, characterNames, sceneNames []string, style string) ([]string, []string, error) {
	var refs []string

	for _, name := range characterNames {
		ch, ok := g.characters.GetByName(name)
		if !ok {
			slog.WarnContext(ctx, "キャラクター参照画像が未登録のため自動作成します", "name", name)
			created, err := g.characters.Create(ctx, name, "角色 "+name, registry.CreateCharacterOptions{Style: style})
			if err != nil {
				return nil, nil, err
			}
			ch = created
		}
		refs = append(refs, ch.ReferenceImage.Base64)
		g.characters.RecordUsage(ch.ID)
	}

	resolvedScenes := []string{}
	for _, name := range sceneNames {
		sc, ok := g.scenes.GetByName(name)
		if !ok {
			slog.InfoContext(ctx, "シーン参照画像が未登録のためスキップします（自動作成しません）", "name", name)
			continue
		}
		refs = append(refs, sc.ReferenceImage.Base64)
		g.scenes.RecordUsage(sc.ID)
		resolvedScenes = append(resolvedScenes, name)
	}

	return refs, resolvedScenes, nil
}
