package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/ingest"

	"github.com/spf13/cobra"
)

// pageCmd はページ台本JSONから漫画ページ画像を生成するサブコマンド群なのだ。
var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "ページ台本JSONから漫画ページを生成するのだ。",
}

var pageGenerateCmd = &cobra.Command{
	Use:   "generate <json-path>",
	Short: "漫画ページを1枚生成するのだ。",
	Long: `ページ台本JSONを読み込み、登場キャラクターとシーンの参照画像を添えて
漫画ページ画像を1枚生成するのだ。軽微なJSONの書式崩れ（末尾カンマ）は
1回だけ自動修復を試みるのだ。`,
	Args: cobra.ExactArgs(1),
	RunE: pageGenerateCommand,
}

var pageRegenerateCmd = &cobra.Command{
	Use:   "regenerate <json-path>",
	Short: "既存の出力を上書きして再生成するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE:  pageRegenerateCommand,
}

func init() {
	pageCmd.AddCommand(
		pageGenerateCmd,
		pageRegenerateCmd,
	)
}

func pageGenerateCommand(cmd *cobra.Command, args []string) error {
	return runPageCommand(cmd, args[0], false)
}

func pageRegenerateCommand(cmd *cobra.Command, args []string) error {
	return runPageCommand(cmd, args[0], true)
}

func runPageCommand(cmd *cobra.Command, jsonPath string, regenerate bool) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	page, err := ingest.ParsePageFile(jsonPath)
	if err != nil {
		return err
	}

	slog.Info("ページ生成を開始するのだ！",
		"page", page.PageNumber,
		"panels", len(page.Panels),
		"input_json", jsonPath)

	genOpts := generator.Options{
		ImageSize:   opts.ImageSize,
		AspectRatio: opts.AspectRatio,
		Style:       opts.Style,
	}

	generate := appCtx.Pages.Generate
	if regenerate {
		generate = appCtx.Pages.Regenerate
	}

	res, err := generate(ctx, page, genOpts)
	if err != nil {
		return err
	}
	fmt.Println(res.Message)
	fmt.Println(res.ImagePath)
	return nil
}
