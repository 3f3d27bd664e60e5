package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/registry"

	"github.com/spf13/cobra"
)

// characterCmd はキャラクター参照画像のレジストリを操作するサブコマンド群なのだ。
var characterCmd = &cobra.Command{
	Use:   "character",
	Short: "キャラクター参照画像を管理するのだ。",
}

var characterCreateCmd = &cobra.Command{
	Use:   "create <name> <description>",
	Short: "キャラクター参照画像を生成して登録するのだ。",
	Long: `名前と外見の説明からキャラクターの参照画像を生成し、レジストリに登録するのだ。
登録済みのキャラクターは、ページ生成時に参照画像として自動的に取り込まれるのだ。`,
	Args: cobra.ExactArgs(2),
	RunE: characterCreateCommand,
}

var characterListCmd = &cobra.Command{
	Use:   "list",
	Short: "登録済みのキャラクターを一覧するのだ。",
	RunE:  characterListCommand,
}

var characterUpdateCmd = &cobra.Command{
	Use:   "update <character-id> [new-description]",
	Short: "キャラクター参照画像を再生成するのだ。",
	Long: `既存キャラクターの参照画像を再生成して置き換えるのだ。
新しい説明を省略した場合は、元の説明のまま画像だけを引き直すのだ。`,
	Args: cobra.RangeArgs(1, 2),
	RunE: characterUpdateCommand,
}

var characterDeleteCmd = &cobra.Command{
	Use:   "delete <character-id>",
	Short: "キャラクターをレジストリから削除するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE:  characterDeleteCommand,
}

// キャラクター作成固有のフラグ
var characterSeedReference string

func init() {
	characterCreateCmd.Flags().StringVar(&characterSeedReference, "seed-reference", "", "条件付けに使う既存画像（ファイルパス、URL、data URL）なのだ。")
	characterCmd.AddCommand(
		characterCreateCmd,
		characterListCmd,
		characterUpdateCmd,
		characterDeleteCmd,
	)
}

func characterCreateCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	createOpts := registry.CreateCharacterOptions{Style: opts.Style}
	if characterSeedReference != "" {
		seed, err := resolveSeedReference(ctx, characterSeedReference)
		if err != nil {
			return err
		}
		createOpts.SeedReference = seed
	}

	ch, err := appCtx.Characters.Create(ctx, args[0], args[1], createOpts)
	if err != nil {
		return err
	}

	slog.Info("キャラクターを登録したのだ！", "id", ch.ID, "image", ch.ReferenceImage.Path)
	fmt.Printf("%s\t%s\n", ch.ID, ch.ReferenceImage.Path)
	return nil
}

func characterListCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	characters := appCtx.Characters.List()
	if len(characters) == 0 {
		fmt.Println("登録済みのキャラクターはいないのだ。")
		return nil
	}
	for _, ch := range characters {
		fmt.Printf("%s\t%s\t利用回数: %d\n", ch.ID, ch.Name, ch.Metadata.UsageCount)
	}
	return nil
}

func characterUpdateCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	newDescription := ""
	if len(args) > 1 {
		newDescription = args[1]
	}

	ch, err := appCtx.Characters.Update(cmd.Context(), args[0], newDescription)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("キャラクターが見つからないのだ: %s", args[0])
	}

	fmt.Printf("%s\t%s\n", ch.ID, ch.ReferenceImage.Path)
	return nil
}

func characterDeleteCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	if !appCtx.Characters.Delete(args[0]) {
		return fmt.Errorf("キャラクターが見つからないのだ: %s", args[0])
	}
	fmt.Printf("削除したのだ: %s\n", args[0])
	return nil
}
