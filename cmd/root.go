package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/asset"

	"github.com/spf13/cobra"
)

// opts は全サブコマンドで共有される実行時パラメータなのだ。
var opts config.GenerateOptions

// rootCmd は、アプリケーションのルートコマンドなのだ。
var rootCmd = &cobra.Command{
	Use:   "comic-kit",
	Short: "参照画像で人物の一貫性を保つ漫画ページ生成ツールなのだ。",
	Long: `キャラクターとシーンの参照画像をレジストリで管理し、ページ台本JSONから
複数ページにわたって見た目が一貫した漫画ページ画像を生成するのだ。`,
	PersistentPreRunE: preRunAppE,
	SilenceUsage:      true,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 保存先関連 ---
	rootCmd.PersistentFlags().StringVar(&opts.ReferenceDir, "reference-dir", config.DefaultReferenceDir, "参照画像レジストリの保存先ディレクトリなのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成したページ画像を保存するディレクトリなのだ。")

	// --- 生成パラメータ ---
	rootCmd.PersistentFlags().StringVar(&opts.ImageSize, "image-size", "", "画像の解像度（1K/2K/4K）なのだ。未指定なら用途ごとのデフォルトを使うのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.AspectRatio, "aspect-ratio", "", "画像の縦横比（3:4、16:9 など）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Style, "style", config.DefaultStyle, "漫画のスタイル指定なのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "生成APIリクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "生成API呼び出しの最小間隔なのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// newAppContext は設定をロードしてアプリケーションコンテキストを組み立てるのだ。
func newAppContext(cmd *cobra.Command) (*builder.AppContext, error) {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return builder.NewAppContext(cmd.Context(), cfg)
}

// resolveSeedReference はファイルパス・URL・data URL のいずれかで指定された
// シード画像を base64 ペイロードへ解決するのだ。
func resolveSeedReference(ctx context.Context, ref string) (string, error) {
	resolver := asset.NewResolver(opts.HTTPTimeout)
	seed, err := resolver.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("シード画像の解決に失敗したのだ: %w", err)
	}
	return seed, nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(
		characterCmd,
		sceneCmd,
		pageCmd,
		toolCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
