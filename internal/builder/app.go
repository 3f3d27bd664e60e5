package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/gemini"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/registry"
	"github.com/shouni/go-comic-kit/pkg/tools"

	"golang.org/x/sync/errgroup"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各コマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config             // Configは、環境変数から読み込まれたグローバルな設定です（APIキーなど）。
	Options    config.GenerateOptions     // Optionsは、コマンドラインから渡された実行時の設定です。
	Client     *gemini.Client             // Client はGemini画像生成APIとの通信に使う共通クライアント
	Characters *registry.CharacterStore   // Characters はキャラクター参照画像のレジストリ
	Scenes     *registry.SceneStore       // Scenes はシーン参照画像のレジストリ
	Pages      *generator.PageGenerator   // Pages はページ生成オーケストレーター
	Tools      *tools.Dispatcher          // Tools は名前付き操作のディスパッチャ
}

// NewAppContext は AppContext の新しいインスタンスを生成するのだ。
// 2つのレジストリのロードは独立しているので並行して行います。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	client, err := gemini.NewClient(gemini.Config{
		APIKey:       cfg.GeminiAPIKey,
		BaseURL:      cfg.BaseURL,
		Model:        cfg.GeminiModel,
		Timeout:      cfg.Options.HTTPTimeout,
		RateInterval: cfg.Options.RateInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}

	var (
		characters *registry.CharacterStore
		scenes     *registry.SceneStore
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		characters, loadErr = registry.LoadCharacterStore(filepath.Join(cfg.Options.ReferenceDir, "characters"), client)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		scenes, loadErr = registry.LoadSceneStore(filepath.Join(cfg.Options.ReferenceDir, "scenes"), client)
		return loadErr
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("レジストリのロードに失敗しました: %w", err)
	}

	pages := generator.New(characters, scenes, client, cfg.Options.OutputDir)

	return &AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Client:     client,
		Characters: characters,
		Scenes:     scenes,
		Pages:      pages,
		Tools:      tools.NewDispatcher(characters, scenes, pages),
	}, nil
}
