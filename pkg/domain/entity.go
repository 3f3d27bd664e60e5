package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReferenceImage はキャラクターやシーンの正準的な外見を固定する参照画像です。
// 一度生成されたら変更されず、再生成時には丸ごと置き換えられます。
type ReferenceImage struct {
	Base64      string    `json:"base64"`       // base64 エンコード済みの画像ペイロード（data: プレフィックスなし）
	Path        string    `json:"path"`         // 永続化された画像ファイルのパス
	GeneratedAt time.Time `json:"generated_at"` // 生成時刻
	Model       string    `json:"model_used"`   // 生成に使用したモデル識別子
}

// VisualFeatures は生成プロンプトのヒントとして使う外見上の特徴です。
// すべて任意項目であり、同一性の判定には使いません。
type VisualFeatures struct {
	HairColor      string `json:"hair_color,omitempty"`
	HairStyle      string `json:"hair_style,omitempty"`
	Clothing       string `json:"clothing,omitempty"`
	Accessories    string `json:"accessories,omitempty"`
	AgeRange       string `json:"age_range,omitempty"`
	FacialFeatures string `json:"facial_features,omitempty"`
	BodyType       string `json:"body_type,omitempty"`
}

// EntityMetadata はエンティティの作成・更新時刻と利用回数を保持します。
type EntityMetadata struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UsageCount int       `json:"usage_count"`
}

// Character は漫画に登場するキャラクターの定義と参照画像を保持します。
type Character struct {
	ID             string         `json:"character_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	ReferenceImage ReferenceImage `json:"reference_image"`
	VisualFeatures VisualFeatures `json:"visual_features"`
	Metadata       EntityMetadata `json:"metadata"`
}

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// Scene は漫画の背景となるシーンの定義と参照画像を保持します。
type Scene struct {
	ID             string         `json:"scene_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	ReferenceImage ReferenceImage `json:"reference_image"`
	Tags           []string       `json:"tags"`
	Metadata       EntityMetadata `json:"metadata"`
}

// String はシーンの情報を文字列で返すのだ。
func (s Scene) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.ID)
}

// Slug は名前から決定論的な識別子の本体を導出します。
// 小文字化して空白をアンダースコアに置き換えるだけの単純な正規化であり、
// 異なる名前が同じスラッグに正規化された場合は後から作成した方が上書きします。
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// CharacterID は名前からキャラクターIDを導出します（例: "char_liubei"）。
func CharacterID(name string) string {
	return "char_" + Slug(name)
}

// SceneID は名前からシーンIDを導出します（例: "scene_street"）。
func SceneID(name string) string {
	return "scene_" + Slug(name)
}
