package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/gemini"
)

// SceneStore はシーンのレジストリです。CharacterStore と構造的に並行ですが、
// シーンはオーケストレーターによって自動作成されることはありません。
type SceneStore struct {
	dir    string
	gen    ReferenceGenerator
	scenes map[string]*domain.Scene
}

// LoadSceneStore はディレクトリを走査して全シーンを先行ロードします。
// 壊れたレコードは警告ログを出してスキップします。
func LoadSceneStore(dir string, gen ReferenceGenerator) (*SceneStore, error) {
	paths, err := scanRecords(dir)
	if err != nil {
		return nil, err
	}

	store := &SceneStore{
		dir:    dir,
		gen:    gen,
		scenes: make(map[string]*domain.Scene),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("シーンレコードの読み込みに失敗しました。スキップします", "path", path, "error", err)
			continue
		}
		var sc domain.Scene
		if err := json.Unmarshal(data, &sc); err != nil || sc.ID == "" {
			slog.Warn("シーンレコードのデコードに失敗しました。スキップします", "path", path, "error", err)
			continue
		}
		store.scenes[sc.ID] = &sc
		slog.Info("シーンをロードしました", "name", sc.Name, "id", sc.ID)
	}

	return store, nil
}

// CreateSceneOptions は Create に対する任意指定です。
type CreateSceneOptions struct {
	Tags          []string
	Style         string
	SeedReference string
}

// Create は名前からIDを導出し、参照画像を新規生成してシーンを登録します。
func (s *SceneStore) Create(ctx context.Context, name, description string, opts CreateSceneOptions) (*domain.Scene, error) {
	id := domain.SceneID(name)

	slog.InfoContext(ctx, "シーン参照画像を生成します", "name", name, "id", id)
	dataURL, err := s.gen.GenerateSceneReference(ctx, name, description, gemini.ReferenceOptions{
		Style:         opts.Style,
		SeedReference: opts.SeedReference,
	})
	if err != nil {
		return nil, &GenerationError{Kind: "scene", Name: name, Err: err}
	}

	imgPath := imagePath(s.dir, id)
	if err := gemini.SaveDataURL(dataURL, imgPath); err != nil {
		return nil, err
	}

	tags := opts.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	sc := &domain.Scene{
		ID:          id,
		Name:        name,
		Description: description,
		ReferenceImage: domain.ReferenceImage{
			Base64:      gemini.RawPayload(dataURL),
			Path:        imgPath,
			GeneratedAt: now,
			Model:       s.gen.Model(),
		},
		Tags:     tags,
		Metadata: domain.EntityMetadata{CreatedAt: now, UpdatedAt: now},
	}

	if err := saveRecord(s.dir, id, sc); err != nil {
		// 部分的なエンティティを残さない
		removeArtifacts(s.dir, id)
		return nil, err
	}

	s.scenes[id] = sc
	slog.InfoContext(ctx, "シーンを作成しました", "name", name, "id", id)
	return sc, nil
}

// Get はIDでシーンを返します。
func (s *SceneStore) Get(id string) (*domain.Scene, bool) {
	sc, ok := s.scenes[id]
	return sc, ok
}

// GetByName は名前の完全一致でシーンを線形探索します。
func (s *SceneStore) GetByName(name string) (*domain.Scene, bool) {
	for _, sc := range s.scenes {
		if sc.Name == name {
			return sc, true
		}
	}
	return nil, false
}

// List は全シーンのスナップショットをID順で返します。
func (s *SceneStore) List() []*domain.Scene {
	list := make([]*domain.Scene, 0, len(s.scenes))
	for _, sc := range s.scenes {
		list = append(list, sc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Update は参照画像を再生成して丸ごと置き換えます。未知のIDは no-op として
// (nil, nil) を返します。
func (s *SceneStore) Update(ctx context.Context, id, newDescription string) (*domain.Scene, error) {
	sc, ok := s.scenes[id]
	if !ok {
		slog.WarnContext(ctx, "更新対象のシーンが存在しません", "id", id)
		return nil, nil
	}

	description := newDescription
	if description == "" {
		description = sc.Description
	}

	slog.InfoContext(ctx, "シーン参照画像を更新します", "name", sc.Name, "id", id)
	dataURL, err := s.gen.GenerateSceneReference(ctx, sc.Name, description, gemini.ReferenceOptions{})
	if err != nil {
		return nil, &GenerationError{Kind: "scene", Name: sc.Name, Err: err}
	}

	imgPath := imagePath(s.dir, id)
	if err := gemini.SaveDataURL(dataURL, imgPath); err != nil {
		return nil, err
	}

	sc.ReferenceImage = domain.ReferenceImage{
		Base64:      gemini.RawPayload(dataURL),
		Path:        imgPath,
		GeneratedAt: time.Now(),
		Model:       s.gen.Model(),
	}
	if newDescription != "" {
		sc.Description = newDescription
	}
	sc.Metadata.UpdatedAt = time.Now()

	if err := saveRecord(s.dir, id, sc); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "シーン参照画像を更新しました", "name", sc.Name, "id", id)
	return sc, nil
}

// Delete はインメモリのレコードと両方の永続化ファイルを削除します（冪等）。
func (s *SceneStore) Delete(id string) bool {
	if _, ok := s.scenes[id]; !ok {
		slog.Warn("削除対象のシーンが存在しません", "id", id)
		return false
	}
	delete(s.scenes, id)
	removeArtifacts(s.dir, id)
	slog.Info("シーンを削除しました", "id", id)
	return true
}

// RecordUsage は参照画像が生成呼び出しへ取り込まれるたびに利用回数を加算します。
func (s *SceneStore) RecordUsage(id string) {
	if sc, ok := s.scenes[id]; ok {
		sc.Metadata.UsageCount++
		sc.Metadata.UpdatedAt = time.Now()
	}
}
