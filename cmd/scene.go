package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/registry"

	"github.com/spf13/cobra"
)

// sceneCmd はシーン参照画像のレジストリを操作するサブコマンド群なのだ。
var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "シーン参照画像を管理するのだ。",
}

var sceneCreateCmd = &cobra.Command{
	Use:   "create <name> <description>",
	Short: "シーン参照画像を生成して登録するのだ。",
	Long: `名前と環境の説明からシーンの参照画像を生成し、レジストリに登録するのだ。
ページ台本の background 欄に登録名を書くと、そのシーンの参照画像が取り込まれるのだ。
キャラクターと違って、未登録のシーンはページ生成時に自動作成されないのだ。`,
	Args: cobra.ExactArgs(2),
	RunE: sceneCreateCommand,
}

var sceneListCmd = &cobra.Command{
	Use:   "list",
	Short: "登録済みのシーンを一覧するのだ。",
	RunE:  sceneListCommand,
}

var sceneUpdateCmd = &cobra.Command{
	Use:   "update <scene-id> [new-description]",
	Short: "シーン参照画像を再生成するのだ。",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  sceneUpdateCommand,
}

var sceneDeleteCmd = &cobra.Command{
	Use:   "delete <scene-id>",
	Short: "シーンをレジストリから削除するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE:  sceneDeleteCommand,
}

// シーン作成固有のフラグ
var (
	sceneTags          string
	sceneSeedReference string
)

func init() {
	sceneCreateCmd.Flags().StringVar(&sceneTags, "tags", "", "カンマ区切りのシーンタグ（例: 城市,街道,白天）なのだ。")
	sceneCreateCmd.Flags().StringVar(&sceneSeedReference, "seed-reference", "", "条件付けに使う既存画像（ファイルパス、URL、data URL）なのだ。")
	sceneCmd.AddCommand(
		sceneCreateCmd,
		sceneListCmd,
		sceneUpdateCmd,
		sceneDeleteCmd,
	)
}

func sceneCreateCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	createOpts := registry.CreateSceneOptions{Style: opts.Style}
	if sceneTags != "" {
		for _, tag := range strings.Split(sceneTags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				createOpts.Tags = append(createOpts.Tags, tag)
			}
		}
	}
	if sceneSeedReference != "" {
		seed, err := resolveSeedReference(ctx, sceneSeedReference)
		if err != nil {
			return err
		}
		createOpts.SeedReference = seed
	}

	sc, err := appCtx.Scenes.Create(ctx, args[0], args[1], createOpts)
	if err != nil {
		return err
	}

	slog.Info("シーンを登録したのだ！", "id", sc.ID, "image", sc.ReferenceImage.Path)
	fmt.Printf("%s\t%s\n", sc.ID, sc.ReferenceImage.Path)
	return nil
}

func sceneListCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	scenes := appCtx.Scenes.List()
	if len(scenes) == 0 {
		fmt.Println("登録済みのシーンはないのだ。")
		return nil
	}
	for _, sc := range scenes {
		fmt.Printf("%s\t%s\t[%s]\t利用回数: %d\n", sc.ID, sc.Name, strings.Join(sc.Tags, ","), sc.Metadata.UsageCount)
	}
	return nil
}

func sceneUpdateCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	newDescription := ""
	if len(args) > 1 {
		newDescription = args[1]
	}

	sc, err := appCtx.Scenes.Update(cmd.Context(), args[0], newDescription)
	if err != nil {
		return err
	}
	if sc == nil {
		return fmt.Errorf("シーンが見つからないのだ: %s", args[0])
	}

	fmt.Printf("%s\t%s\n", sc.ID, sc.ReferenceImage.Path)
	return nil
}

func sceneDeleteCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	if !appCtx.Scenes.Delete(args[0]) {
		return fmt.Errorf("シーンが見つからないのだ: %s", args[0])
	}
	fmt.Printf("削除したのだ: %s\n", args[0])
	return nil
}
