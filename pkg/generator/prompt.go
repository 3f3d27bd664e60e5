package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// BuildPagePrompt はページ台本から1回の生成呼び出しに渡す複合プロンプトを
// 組み立てます。全パネルを1枚の画像に合成するため、ヘッダー行の後に
// パネルごとの記述を改行区切りで連結します。
// 画像内テキストの言語指定はプロンプト言語（中国語）に従います。
func BuildPagePrompt(page *domain.Page, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s风格的漫画页面，包含 %d 个分镜。\n", style, len(page.Panels))
	b.WriteString("重要要求：\n")
	b.WriteString("1. 所有对话、字幕、音效文字必须使用中文显示\n")
	b.WriteString("2. 字幕和对话气泡的排版必须遵循现代阅读习惯：从左往右、从下往上排列\n")

	lines := make([]string, 0, len(page.Panels))
	for _, panel := range page.Panels {
		lines = append(lines, buildPanelLine(panel))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// buildPanelLine は1パネル分の記述行を組み立てます。
// カメラアングルは行頭、セリフと音効は行末に付加します。
func buildPanelLine(panel domain.Panel) string {
	desc := fmt.Sprintf("分镜%d: %s", panel.Number, panel.Description)
	if panel.CameraAngle != "" {
		desc = fmt.Sprintf("%s镜头。%s", panel.CameraAngle, desc)
	}
	if len(panel.Dialogues) > 0 {
		var d strings.Builder
		d.WriteString("，对话：")
		for _, dialogue := range panel.Dialogues {
			fmt.Fprintf(&d, "%s说（用中文）：'%s' ", dialogue.Speaker, dialogue.Text)
		}
		desc += d.String()
	}
	if len(panel.SoundEffects) > 0 {
		desc += "，音效文字（用中文显示）：" + strings.Join(panel.SoundEffects, " ")
	}
	return desc
}
