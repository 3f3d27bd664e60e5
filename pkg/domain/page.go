package domain

import "sort"

// Dialogue はパネル内のセリフ1件を表します。プロンプト素材としてのみ消費され、
// Speaker が登録済みキャラクターであるかどうかの検証は行いません。
type Dialogue struct {
	Speaker  string          `json:"speaker"`
	Text     string          `json:"text"`
	Emotion  string          `json:"emotion,omitempty"`
	Position *BubblePosition `json:"position,omitempty"`
}

// BubblePosition は吹き出しのおおまかな配置ヒントです。
type BubblePosition struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CharacterMention はパネルに登場するキャラクターへの言及です。
type CharacterMention struct {
	Name         string `json:"name"`
	Action       string `json:"action,omitempty"`
	Expression   string `json:"expression,omitempty"`
	PositionHint string `json:"position_hint,omitempty"`
}

// Panel は漫画ページ内の1コマ分の構成を保持します。
type Panel struct {
	Number       int                `json:"panel_number"`
	Description  string             `json:"description"`
	Characters   []CharacterMention `json:"characters,omitempty"`
	Dialogues    []Dialogue         `json:"dialogues,omitempty"`
	Background   string             `json:"background,omitempty"`
	CameraAngle  string             `json:"camera_angle,omitempty"`
	SoundEffects []string           `json:"sound_effects,omitempty"`
}

// Page は外部から供給される1ページ分の台本です。呼び出しごとに使い捨てる
// 値オブジェクトであり、生成結果の画像以外は永続化されません。
type Page struct {
	PageNumber int     `json:"page_number"`
	Panels     []Panel `json:"panels"`
	PageNotes  string  `json:"page_notes,omitempty"`
	LayoutType string  `json:"layout_type,omitempty"`
}

// CharacterNames は全パネルから重複を除いたキャラクター名を返します。
// 参照画像の並び順を再現可能にするため、名前順にソートして返します。
func (p *Page) CharacterNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, panel := range p.Panels {
		for _, c := range panel.Characters {
			if c.Name == "" {
				continue
			}
			if _, ok := seen[c.Name]; !ok {
				seen[c.Name] = struct{}{}
				names = append(names, c.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// SceneNames は全パネルの background から重複を除いたシーン名を返します。
func (p *Page) SceneNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, panel := range p.Panels {
		if panel.Background == "" {
			continue
		}
		if _, ok := seen[panel.Background]; !ok {
			seen[panel.Background] = struct{}{}
			names = append(names, panel.Background)
		}
	}
	sort.Strings(names)
	return names
}
