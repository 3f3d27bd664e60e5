package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// toolCmd は名前付き操作をJSON引数で直接呼び出すサブコマンドなのだ。
// 外部のエージェントやスクリプトからツール面をそのまま叩けるようにするのだ。
var toolCmd = &cobra.Command{
	Use:   "tool <name> [json-args]",
	Short: "名前付き操作をJSON引数で実行するのだ。",
	Long: `ディスパッチャに登録された操作を名前で呼び出し、結果のJSONを標準出力へ書くのだ。
利用できる操作: generate_character_reference, generate_scene_reference,
generate_comic_page, regenerate_page, list_characters, list_scenes,
update_character_reference, update_scene_reference, delete_character, delete_scene

例:
  comic-kit tool generate_character_reference '{"character_name": "刘备", "description": "蓝色长袍的中年男性"}'
  comic-kit tool list_characters`,
	Args: cobra.RangeArgs(1, 2),
	RunE: toolCommand,
}

func toolCommand(cmd *cobra.Command, args []string) error {
	appCtx, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	var payload []byte
	if len(args) > 1 {
		payload = []byte(args[1])
	}

	// 呼び出しの失敗も success=false のJSONとして返る契約なのだ
	result := appCtx.Tools.Invoke(cmd.Context(), args[0], payload)
	fmt.Println(string(result))
	return nil
}
