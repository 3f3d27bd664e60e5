package domain

// PageResult はページ生成1回分の結果サマリです。
// フィールド名はツール呼び出し側へ返す JSON ペイロードの形式に合わせています。
type PageResult struct {
	Success        bool     `json:"success"`
	PageNumber     int      `json:"page_number"`
	PanelCount     int      `json:"panels_count"`
	ImagePath      string   `json:"image_path"`
	CharactersUsed []string `json:"characters_used"`
	ScenesUsed     []string `json:"scenes_used"`
	Regenerated    bool     `json:"regenerated,omitempty"`
	Message        string   `json:"message"`
}
