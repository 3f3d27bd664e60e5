package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestSceneStore(t *testing.T) (*SceneStore, *fakeGenerator, string) {
	t.Helper()
	dir := t.TempDir()
	gen := &fakeGenerator{payload: "data:image/jpeg;base64,QUJD"}
	store, err := LoadSceneStore(dir, gen)
	if err != nil {
		t.Fatalf("ストアのロードに失敗しました: %v", err)
	}
	return store, gen, dir
}

func TestSceneStore_CreateAndGet(t *testing.T) {
	store, _, dir := newTestSceneStore(t)
	ctx := context.Background()

	sc, err := store.Create(ctx, "Bamboo Forest", "月光下的竹林", CreateSceneOptions{Tags: []string{"night", "forest"}})
	if err != nil {
		t.Fatalf("作成に失敗しました: %v", err)
	}

	if sc.ID != "scene_bamboo_forest" {
		t.Errorf("期待値 'scene_bamboo_forest', 実際の値 '%s'", sc.ID)
	}
	if len(sc.Tags) != 2 {
		t.Errorf("タグが保存されていません: %v", sc.Tags)
	}

	for _, name := range []string{"scene_bamboo_forest.json", "scene_bamboo_forest.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("アーティファクトが存在しません: %s", name)
		}
	}
}

func TestSceneStore_CreateDefaultsTags(t *testing.T) {
	store, _, _ := newTestSceneStore(t)

	sc, err := store.Create(context.Background(), "Plain", "d", CreateSceneOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// タグ未指定でも nil ではなく空スライスを持つこと
	if sc.Tags == nil {
		t.Error("タグが nil のままです")
	}
}

func TestSceneStore_CreateFailure(t *testing.T) {
	store, gen, dir := newTestSceneStore(t)
	gen.failNext = true

	_, err := store.Create(context.Background(), "Ghost Town", "d", CreateSceneOptions{})

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("期待値 GenerationError, 実際の値 %v", err)
	}
	if genErr.Kind != "scene" {
		t.Errorf("期待値 'scene', 実際の値 '%s'", genErr.Kind)
	}

	entries, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(entries) != 0 {
		t.Errorf("失敗した作成のファイルが残っています: %v", entries)
	}
}

func TestSceneStore_Update(t *testing.T) {
	store, gen, _ := newTestSceneStore(t)
	ctx := context.Background()
	gen.payload = ""

	sc, err := store.Create(ctx, "Castle", "旧描述", CreateSceneOptions{})
	if err != nil {
		t.Fatal(err)
	}
	firstRef := sc.ReferenceImage.Base64

	updated, err := store.Update(ctx, "scene_castle", "新描述")
	if err != nil {
		t.Fatalf("更新に失敗しました: %v", err)
	}
	if updated.ReferenceImage.Base64 == firstRef {
		t.Error("参照画像が置き換えられていません")
	}
	if updated.Description != "新描述" {
		t.Errorf("説明が更新されていません: %s", updated.Description)
	}

	t.Run("未知のIDは no-op で nil が返ること", func(t *testing.T) {
		got, err := store.Update(ctx, "scene_unknown", "x")
		if err != nil || got != nil {
			t.Errorf("期待値 (nil, nil), 実際の値 (%+v, %v)", got, err)
		}
	})
}

func TestSceneStore_DeleteIdempotent(t *testing.T) {
	store, _, dir := newTestSceneStore(t)

	if _, err := store.Create(context.Background(), "Temp", "d", CreateSceneOptions{}); err != nil {
		t.Fatal(err)
	}

	if !store.Delete("scene_temp") {
		t.Error("1回目の削除が false を返しました")
	}
	if store.Delete("scene_temp") {
		t.Error("2回目の削除が true を返しました")
	}

	entries, _ := filepath.Glob(filepath.Join(dir, "scene_temp.*"))
	if len(entries) != 0 {
		t.Errorf("削除後にファイルが残っています: %v", entries)
	}
}

func TestLoadSceneStore_SkipsMalformedRecords(t *testing.T) {
	dir := t.TempDir()

	valid := `{"scene_id": "scene_ok", "name": "OK", "description": "d",
		"reference_image": {"base64": "QUJD", "path": "x.jpg", "model_used": "m"},
		"tags": [], "metadata": {"usage_count": 0}}`
	if err := os.WriteFile(filepath.Join(dir, "scene_ok.json"), []byte(valid), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scene_broken.json"), []byte(`[1,2`), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := LoadSceneStore(dir, &fakeGenerator{})
	if err != nil {
		t.Fatalf("壊れたレコードの存在がロード全体を失敗させました: %v", err)
	}
	if len(store.List()) != 1 {
		t.Errorf("期待値 1件, 実際の値 %d件", len(store.List()))
	}
}
