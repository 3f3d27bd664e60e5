package domain

import (
	"testing"
)

func TestSlug(t *testing.T) {
	t.Run("小文字化と空白の置換が行われること", func(t *testing.T) {
		if got := Slug("Liu Bei"); got != "liu_bei" {
			t.Errorf("期待値 'liu_bei', 実際の値 '%s'", got)
		}
	})

	t.Run("同じ名前から常に同じスラッグが導出されること", func(t *testing.T) {
		if Slug("街道") != Slug("街道") {
			t.Error("スラッグ導出が決定論的ではありません")
		}
	})

	t.Run("異なる名前でも正規化後に衝突しうること", func(t *testing.T) {
		// 既知の制限: 衝突検出は行わない
		if Slug("Liu Bei") != Slug("liu bei") {
			t.Error("大文字小文字のみ異なる名前は同じスラッグになるはずです")
		}
	})
}

func TestCharacterID(t *testing.T) {
	if got := CharacterID("Liu Bei"); got != "char_liu_bei" {
		t.Errorf("期待値 'char_liu_bei', 実際の値 '%s'", got)
	}
}

func TestSceneID(t *testing.T) {
	if got := SceneID("Night Street"); got != "scene_night_street" {
		t.Errorf("期待値 'scene_night_street', 実際の値 '%s'", got)
	}
}

func TestCharacter_String(t *testing.T) {
	c := Character{ID: "char_test", Name: "テスト名"}
	expected := "テスト名 (char_test)"
	if c.String() != expected {
		t.Errorf("期待値 '%s', 実際の値 '%s'", expected, c.String())
	}
}
