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

// CharacterStore はキャラクターのレジストリです。インメモリのマップと
// 背後のディレクトリ（<id>.json + <id>.jpg）を所有します。
// ロック機構は持たず、単一のオーケストレーター呼び出しが完了してから
// 次が始まる協調プロセスモデルを前提とします。
type CharacterStore struct {
	dir        string
	gen        ReferenceGenerator
	characters map[string]*domain.Character
}

// LoadCharacterStore はディレクトリを走査して全キャラクターを先行ロードします。
// 壊れたレコードは警告ログを出してスキップし、致命的エラーにはしません。
func LoadCharacterStore(dir string, gen ReferenceGenerator) (*CharacterStore, error) {
	paths, err := scanRecords(dir)
	if err != nil {
		return nil, err
	}

	store := &CharacterStore{
		dir:        dir,
		gen:        gen,
		characters: make(map[string]*domain.Character),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("キャラクターレコードの読み込みに失敗しました。スキップします", "path", path, "error", err)
			continue
		}
		var ch domain.Character
		if err := json.Unmarshal(data, &ch); err != nil || ch.ID == "" {
			slog.Warn("キャラクターレコードのデコードに失敗しました。スキップします", "path", path, "error", err)
			continue
		}
		store.characters[ch.ID] = &ch
		slog.Info("キャラクターをロードしました", "name", ch.Name, "id", ch.ID)
	}

	return store, nil
}

// CreateCharacterOptions は Create に対する任意指定です。
type CreateCharacterOptions struct {
	VisualFeatures *domain.VisualFeatures
	Style          string
	// SeedReference は条件付けに使う既存画像の base64 ペイロード（任意）
	SeedReference string
}

// Create は名前からIDを導出し、参照画像を新規生成してキャラクターを登録します。
// 生成が失敗した場合は GenerationError を返し、部分的なエンティティは残しません。
func (s *CharacterStore) Create(ctx context.Context, name, description string, opts CreateCharacterOptions) (*domain.Character, error) {
	id := domain.CharacterID(name)

	slog.InfoContext(ctx, "キャラクター参照画像を生成します", "name", name, "id", id)
	dataURL, err := s.gen.GenerateCharacterReference(ctx, name, description, gemini.ReferenceOptions{
		Style:         opts.Style,
		SeedReference: opts.SeedReference,
	})
	if err != nil {
		return nil, &GenerationError{Kind: "character", Name: name, Err: err}
	}

	imgPath := imagePath(s.dir, id)
	if err := gemini.SaveDataURL(dataURL, imgPath); err != nil {
		return nil, err
	}

	features := domain.VisualFeatures{}
	if opts.VisualFeatures != nil {
		features = *opts.VisualFeatures
	}

	now := time.Now()
	ch := &domain.Character{
		ID:          id,
		Name:        name,
		Description: description,
		ReferenceImage: domain.ReferenceImage{
			Base64:      gemini.RawPayload(dataURL),
			Path:        imgPath,
			GeneratedAt: now,
			Model:       s.gen.Model(),
		},
		VisualFeatures: features,
		Metadata:       domain.EntityMetadata{CreatedAt: now, UpdatedAt: now},
	}

	// 規約: 画像の書き込みが成功してからレコードを書く
	if err := saveRecord(s.dir, id, ch); err != nil {
		// 部分的なエンティティを残さない
		removeArtifacts(s.dir, id)
		return nil, err
	}

	s.characters[id] = ch
	slog.InfoContext(ctx, "キャラクターを作成しました", "name", name, "id", id)
	return ch, nil
}

// Get はIDでキャラクターを返します。
func (s *CharacterStore) Get(id string) (*domain.Character, bool) {
	ch, ok := s.characters[id]
	return ch, ok
}

// GetByName は名前の完全一致でキャラクターを線形探索します。
// 導出IDではなく name フィールドのみを比較します。
func (s *CharacterStore) GetByName(name string) (*domain.Character, bool) {
	for _, ch := range s.characters {
		if ch.Name == name {
			return ch, true
		}
	}
	return nil, false
}

// List は全キャラクターのスナップショットをID順で返します。
func (s *CharacterStore) List() []*domain.Character {
	list := make([]*domain.Character, 0, len(s.characters))
	for _, ch := range s.characters {
		list = append(list, ch)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Update は参照画像を再生成して丸ごと置き換えます。newDescription が空なら
// 元の説明を使って再生成し、説明自体は変更しません。未知のIDは no-op として
// (nil, nil) を返します。
func (s *CharacterStore) Update(ctx context.Context, id, newDescription string) (*domain.Character, error) {
	ch, ok := s.characters[id]
	if !ok {
		slog.WarnContext(ctx, "更新対象のキャラクターが存在しません", "id", id)
		return nil, nil
	}

	description := newDescription
	if description == "" {
		description = ch.Description
	}

	slog.InfoContext(ctx, "キャラクター参照画像を更新します", "name", ch.Name, "id", id)
	dataURL, err := s.gen.GenerateCharacterReference(ctx, ch.Name, description, gemini.ReferenceOptions{})
	if err != nil {
		return nil, &GenerationError{Kind: "character", Name: ch.Name, Err: err}
	}

	imgPath := imagePath(s.dir, id)
	if err := gemini.SaveDataURL(dataURL, imgPath); err != nil {
		return nil, err
	}

	ch.ReferenceImage = domain.ReferenceImage{
		Base64:      gemini.RawPayload(dataURL),
		Path:        imgPath,
		GeneratedAt: time.Now(),
		Model:       s.gen.Model(),
	}
	if newDescription != "" {
		ch.Description = newDescription
	}
	ch.Metadata.UpdatedAt = time.Now()

	if err := saveRecord(s.dir, id, ch); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "キャラクター参照画像を更新しました", "name", ch.Name, "id", id)
	return ch, nil
}

// Delete はインメモリのレコードと両方の永続化ファイルを削除します。
// 未知のIDに対しては警告を出して false を返します（冪等）。
func (s *CharacterStore) Delete(id string) bool {
	if _, ok := s.characters[id]; !ok {
		slog.Warn("削除対象のキャラクターが存在しません", "id", id)
		return false
	}
	delete(s.characters, id)
	removeArtifacts(s.dir, id)
	slog.Info("キャラクターを削除しました", "id", id)
	return true
}

// RecordUsage は参照画像が生成呼び出しへ取り込まれるたびに利用回数を
// 加算します。カウンタはインメモリのみで、次回のレコード保存時に永続化されます。
func (s *CharacterStore) RecordUsage(id string) {
	if ch, ok := s.characters[id]; ok {
		ch.Metadata.UsageCount++
		ch.Metadata.UpdatedAt = time.Now()
	}
}
