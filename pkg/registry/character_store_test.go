package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/gemini"
)

// fakeGenerator はテスト用の ReferenceGenerator 実装です。
type fakeGenerator struct {
	calls    int
	failNext bool
	payload  string
}

func (f *fakeGenerator) generate() (string, error) {
	f.calls++
	if f.failNext {
		return "", errors.New("mock failure")
	}
	if f.payload != "" {
		return f.payload, nil
	}
	// 呼び出しごとに異なるペイロードを返し、置き換えを検証できるようにする。
	// SaveDataURL がデコードするため、正しい base64 である必要がある
	payload := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("PAY%d", f.calls)))
	return "data:image/jpeg;base64," + payload, nil
}

func (f *fakeGenerator) GenerateCharacterReference(ctx context.Context, name, description string, opts gemini.ReferenceOptions) (string, error) {
	return f.generate()
}

func (f *fakeGenerator) GenerateSceneReference(ctx context.Context, name, description string, opts gemini.ReferenceOptions) (string, error) {
	return f.generate()
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func newTestCharacterStore(t *testing.T) (*CharacterStore, *fakeGenerator, string) {
	t.Helper()
	dir := t.TempDir()
	gen := &fakeGenerator{payload: "data:image/jpeg;base64,QUJD"}
	store, err := LoadCharacterStore(dir, gen)
	if err != nil {
		t.Fatalf("ストアのロードに失敗しました: %v", err)
	}
	return store, gen, dir
}

func TestCharacterStore_CreateAndGet(t *testing.T) {
	store, gen, dir := newTestCharacterStore(t)
	ctx := context.Background()

	ch, err := store.Create(ctx, "Liu Bei", "蓝色长袍的中年男性", CreateCharacterOptions{})
	if err != nil {
		t.Fatalf("作成に失敗しました: %v", err)
	}

	if ch.ID != "char_liu_bei" {
		t.Errorf("期待値 'char_liu_bei', 実際の値 '%s'", ch.ID)
	}
	if ch.ReferenceImage.Base64 != "QUJD" {
		t.Errorf("参照画像が直近の生成結果と一致しません: %s", ch.ReferenceImage.Base64)
	}
	if ch.ReferenceImage.Model != "fake-model" {
		t.Errorf("モデル識別子が記録されていません: %s", ch.ReferenceImage.Model)
	}
	if gen.calls != 1 {
		t.Errorf("生成呼び出し回数が期待と異なります: %d", gen.calls)
	}

	got, ok := store.Get("char_liu_bei")
	if !ok || got.Name != "Liu Bei" {
		t.Errorf("Get の結果が期待と異なります: %+v", got)
	}

	// 両方のアーティファクトが書き込まれていること
	for _, name := range []string{"char_liu_bei.json", "char_liu_bei.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("アーティファクトが存在しません: %s", name)
		}
	}
}

func TestCharacterStore_CreateFailure_NoPartialEntity(t *testing.T) {
	store, gen, dir := newTestCharacterStore(t)
	gen.failNext = true

	_, err := store.Create(context.Background(), "Ghost", "desc", CreateCharacterOptions{})

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("期待値 GenerationError, 実際の値 %v", err)
	}

	if _, ok := store.Get("char_ghost"); ok {
		t.Error("失敗した作成のエンティティがマップに残っています")
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(entries) != 0 {
		t.Errorf("失敗した作成のファイルが残っています: %v", entries)
	}
}

func TestCharacterStore_GetByName(t *testing.T) {
	store, _, _ := newTestCharacterStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "Liu Bei", "d", CreateCharacterOptions{}); err != nil {
		t.Fatal(err)
	}

	if _, ok := store.GetByName("Liu Bei"); !ok {
		t.Error("名前での検索に失敗しました")
	}
	// 名前の完全一致のみ。導出IDでは引けない
	if _, ok := store.GetByName("char_liu_bei"); ok {
		t.Error("導出IDで名前検索がヒットしてしまいました")
	}
}

func TestCharacterStore_Update(t *testing.T) {
	store, gen, _ := newTestCharacterStore(t)
	ctx := context.Background()
	gen.payload = "" // 呼び出しごとに異なるペイロードを返すモードへ

	ch, err := store.Create(ctx, "Hero", "最初の説明", CreateCharacterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	firstRef := ch.ReferenceImage.Base64

	t.Run("説明を変えずに再生成できること", func(t *testing.T) {
		updated, err := store.Update(ctx, "char_hero", "")
		if err != nil {
			t.Fatalf("更新に失敗しました: %v", err)
		}
		if updated.ID != "char_hero" {
			t.Errorf("更新でIDが変わりました: %s", updated.ID)
		}
		if updated.ReferenceImage.Base64 == firstRef {
			t.Error("参照画像が置き換えられていません")
		}
		if updated.Description != "最初の説明" {
			t.Errorf("説明が変わってしまいました: %s", updated.Description)
		}
	})

	t.Run("新しい説明が保存されること", func(t *testing.T) {
		updated, err := store.Update(ctx, "char_hero", "新しい説明")
		if err != nil {
			t.Fatal(err)
		}
		if updated.Description != "新しい説明" {
			t.Errorf("説明が更新されていません: %s", updated.Description)
		}
	})

	t.Run("未知のIDは no-op で nil が返ること", func(t *testing.T) {
		updated, err := store.Update(ctx, "char_unknown", "x")
		if err != nil {
			t.Errorf("未知のIDでエラーが返りました: %v", err)
		}
		if updated != nil {
			t.Errorf("未知のIDでエンティティが返りました: %+v", updated)
		}
	})
}

func TestCharacterStore_DeleteIdempotent(t *testing.T) {
	store, _, dir := newTestCharacterStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "Temp", "d", CreateCharacterOptions{}); err != nil {
		t.Fatal(err)
	}

	if !store.Delete("char_temp") {
		t.Error("1回目の削除が false を返しました")
	}
	if store.Delete("char_temp") {
		t.Error("2回目の削除が true を返しました")
	}

	entries, _ := filepath.Glob(filepath.Join(dir, "char_temp.*"))
	if len(entries) != 0 {
		t.Errorf("削除後にファイルが残っています: %v", entries)
	}
}

func TestCharacterStore_RecordUsage(t *testing.T) {
	store, _, _ := newTestCharacterStore(t)
	ctx := context.Background()

	ch, err := store.Create(ctx, "Hero", "d", CreateCharacterOptions{})
	if err != nil {
		t.Fatal(err)
	}

	store.RecordUsage(ch.ID)
	store.RecordUsage(ch.ID)

	got, _ := store.Get(ch.ID)
	if got.Metadata.UsageCount != 2 {
		t.Errorf("期待値 2, 実際の値 %d", got.Metadata.UsageCount)
	}
}

func TestLoadCharacterStore_SkipsMalformedRecords(t *testing.T) {
	dir := t.TempDir()

	// 正常なレコード
	valid := `{"character_id": "char_ok", "name": "OK", "description": "d",
		"reference_image": {"base64": "QUJD", "path": "x.jpg", "model_used": "m"},
		"visual_features": {}, "metadata": {"usage_count": 0}}`
	if err := os.WriteFile(filepath.Join(dir, "char_ok.json"), []byte(valid), 0o644); err != nil {
		t.Fatal(err)
	}
	// 壊れたレコード
	if err := os.WriteFile(filepath.Join(dir, "char_broken.json"), []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	// IDのないレコード
	if err := os.WriteFile(filepath.Join(dir, "char_empty.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := LoadCharacterStore(dir, &fakeGenerator{})
	if err != nil {
		t.Fatalf("壊れたレコードの存在がロード全体を失敗させました: %v", err)
	}

	if len(store.List()) != 1 {
		t.Errorf("期待値 1件, 実際の値 %d件", len(store.List()))
	}
	if _, ok := store.Get("char_ok"); !ok {
		t.Error("正常なレコードがロードされていません")
	}
}
