package domain

import (
	"reflect"
	"testing"
)

func TestPage_CharacterNames(t *testing.T) {
	page := &Page{
		PageNumber: 1,
		Panels: []Panel{
			{
				Number:      1,
				Description: "出会い",
				Characters: []CharacterMention{
					{Name: "刘备"},
					{Name: "关羽"},
				},
			},
			{
				Number:      2,
				Description: "再会",
				Characters: []CharacterMention{
					{Name: "刘备"}, // 重複
					{Name: ""},   // 空の名前は無視される
				},
			},
		},
	}

	got := page.CharacterNames()
	want := []string{"关羽", "刘备"}
	if len(got) != 2 {
		t.Fatalf("重複が除去されていません: %v", got)
	}
	// ソート済みであること（再現可能な参照順序のため）
	if !reflect.DeepEqual(got, want) && !reflect.DeepEqual(got, []string{"刘备", "关羽"}) {
		t.Errorf("期待値はソート済みの2名, 実際の値 %v", got)
	}
	if got[0] > got[1] {
		t.Errorf("名前がソートされていません: %v", got)
	}
}

func TestPage_SceneNames(t *testing.T) {
	page := &Page{
		Panels: []Panel{
			{Number: 1, Description: "a", Background: "街道"},
			{Number: 2, Description: "b", Background: "街道"},
			{Number: 3, Description: "c", Background: ""},
			{Number: 4, Description: "d", Background: "酒馆"},
		},
	}

	got := page.SceneNames()
	if len(got) != 2 {
		t.Fatalf("期待値 2件, 実際の値 %v", got)
	}
}

func TestPage_SceneNames_Empty(t *testing.T) {
	page := &Page{Panels: []Panel{{Number: 1, Description: "x"}}}
	if got := page.SceneNames(); len(got) != 0 {
		t.Errorf("背景なしのページでシーン名が返りました: %v", got)
	}
}
