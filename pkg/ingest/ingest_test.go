package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParsePage_Valid(t *testing.T) {
	input := []byte(`{
		"page_number": 3,
		"panels": [
			{
				"panel_number": 1,
				"description": "刘备站在街道上",
				"characters": [{"name": "刘备", "action": "拱手"}],
				"dialogues": [{"speaker": "刘备", "text": "幸会"}],
				"background": "街道",
				"camera_angle": "中景",
				"sound_effects": ["哗啦"]
			}
		]
	}`)

	page, err := ParsePage(input)
	if err != nil {
		t.Fatalf("正常なJSONでエラーが発生しました: %v", err)
	}
	if page.PageNumber != 3 || len(page.Panels) != 1 {
		t.Errorf("デコード結果が期待と異なります: %+v", page)
	}
	if page.Panels[0].Characters[0].Name != "刘备" {
		t.Errorf("キャラクター言及がデコードされていません: %+v", page.Panels[0])
	}
}

func TestParsePage_RepairsTrailingComma(t *testing.T) {
	// 仕様上の修復対象: 閉じ括弧直前の余分なカンマ
	input := []byte(`{"page_number":1,"panels":[{"panel_number":1,"description":"x","background":"b","camera_angle":"c"},]}`)

	page, err := ParsePage(input)
	if err != nil {
		t.Fatalf("末尾カンマの修復に失敗しました: %v", err)
	}
	if page.PageNumber != 1 || len(page.Panels) != 1 {
		t.Errorf("修復後のデコード結果が期待と異なります: %+v", page)
	}
}

func TestParsePage_RepairsTrailingCommaInObject(t *testing.T) {
	input := []byte(`{"page_number":2,"panels":[{"panel_number":1,"description":"x",}]}`)

	page, err := ParsePage(input)
	if err != nil {
		t.Fatalf("オブジェクト末尾カンマの修復に失敗しました: %v", err)
	}
	if page.PageNumber != 2 {
		t.Errorf("修復後のデコード結果が期待と異なります: %+v", page)
	}
}

func TestParsePage_DoesNotRepairUnescapedQuote(t *testing.T) {
	// エスケープ漏れの引用符は修復対象外。黙って直してはならない
	input := []byte(`{"page_number":1,"panels":[{"panel_number":1,"description":"他说: "你好""}]}`)

	_, err := ParsePage(input)
	if err == nil {
		t.Fatal("引用符エラーが黙って修復されました")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("期待値 ValidationError, 実際の値 %v", err)
	}
}

func TestParsePage_CompletelyBroken(t *testing.T) {
	_, err := ParsePage([]byte(`not json at all`))

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("期待値 ValidationError, 実際の値 %v", err)
	}
}

func TestParsePage_MissingDescription(t *testing.T) {
	input := []byte(`{"page_number":1,"panels":[{"panel_number":1,"description":""}]}`)

	_, err := ParsePage(input)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("description 欠落で ValidationError が返りませんでした: %v", err)
	}
}

func TestParsePageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page_001.json")
	content := `{"page_number":1,"panels":[{"panel_number":1,"description":"x"},]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	page, err := ParsePageFile(path)
	if err != nil {
		t.Fatalf("ファイルからの読み込みに失敗しました: %v", err)
	}
	if page.PageNumber != 1 {
		t.Errorf("デコード結果が期待と異なります: %+v", page)
	}

	t.Run("存在しないファイルはエラーになること", func(t *testing.T) {
		if _, err := ParsePageFile(filepath.Join(dir, "missing.json")); err == nil {
			t.Error("存在しないファイルでエラーが発生しませんでした")
		}
	})
}
