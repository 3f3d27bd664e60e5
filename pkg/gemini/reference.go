package gemini

import (
	"context"
	"fmt"
)

const (
	// DefaultStyle は参照画像生成に使う既定の画風です。
	DefaultStyle = "日漫风格"
	// DefaultImageSize は参照画像の既定の解像度設定です。
	DefaultImageSize = "2K"
	// CharacterAspectRatio はキャラクター参照画像（全身立ち絵）の推奨アスペクト比です。
	CharacterAspectRatio = "3:4"
	// SceneAspectRatio はシーン参照画像（ワイドショット）の推奨アスペクト比です。
	SceneAspectRatio = "16:9"
)

// characterReferenceTemplate はキャラクター参照画像の指示テンプレートです。
// セリフや音効と同様、モデルへ渡す文面は対象言語（中国語）で固定しています。
const characterReferenceTemplate = `生成一个%s的漫画人物角色参考图。

角色名称：%s
角色描述：%s

要求：
1. 全身正面照，展示完整服装和特征
2. 简洁的背景（纯色或渐变）
3. 清晰的轮廓，便于后续参考使用
4. 保持角色一致性，表情自然平静
`

// sceneReferenceTemplate はシーン参照画像の指示テンプレートです。
const sceneReferenceTemplate = `生成一个%s的漫画场景参考图。

场景名称：%s
场景描述：%s

要求：
1. 宽视角，展示完整场景
2. 无人物，仅环境和建筑
3. 色彩协调，光线自然
4. 适合作为漫画背景使用
`

// ReferenceOptions は参照画像のテンプレート生成に対する任意指定です。
type ReferenceOptions struct {
	Style       string // 省略時は DefaultStyle
	ImageSize   string // 省略時は DefaultImageSize
	AspectRatio string // 省略時はエンティティ種別ごとの既定値
	// SeedReference が指定された場合、その base64 ペイロードを条件付け用の
	// 参照画像として1枚だけ添付します。未指定なら参照なしで生成します。
	SeedReference string
}

func (o ReferenceOptions) withDefaults(aspectRatio string) ReferenceOptions {
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.ImageSize == "" {
		o.ImageSize = DefaultImageSize
	}
	if o.AspectRatio == "" {
		o.AspectRatio = aspectRatio
	}
	return o
}

func (o ReferenceOptions) refs() []string {
	if o.SeedReference == "" {
		return nil
	}
	return []string{o.SeedReference}
}

// GenerateCharacterReference は名前と外見記述からキャラクターの参照画像を生成します。
// 正面全身・無地背景・中立的な表情を固定で要求する薄いテンプレート呼び出しです。
func (c *Client) GenerateCharacterReference(ctx context.Context, name, description string, opts ReferenceOptions) (string, error) {
	opts = opts.withDefaults(CharacterAspectRatio)
	prompt := fmt.Sprintf(characterReferenceTemplate, opts.Style, name, description)
	return c.GenerateWithReferences(ctx, prompt, opts.refs(), opts.ImageSize, opts.AspectRatio)
}

// GenerateSceneReference は名前と情景記述からシーンの参照画像を生成します。
// ワイドアングル・人物なしを固定で要求します。
func (c *Client) GenerateSceneReference(ctx context.Context, name, description string, opts ReferenceOptions) (string, error) {
	opts = opts.withDefaults(SceneAspectRatio)
	prompt := fmt.Sprintf(sceneReferenceTemplate, opts.Style, name, description)
	return c.GenerateWithReferences(ctx, prompt, opts.refs(), opts.ImageSize, opts.AspectRatio)
}
