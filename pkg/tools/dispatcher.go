// Package tools はレジストリとページ生成を名前付き操作として公開する
// ディスパッチャです。結果は常にJSONペイロードで返し、呼び出し失敗も
// success=false のペイロードに畳み込みます。
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/ingest"
	"github.com/shouni/go-comic-kit/pkg/registry"
)

// Dispatcher は操作名をレジストリ・生成系の呼び出しへ振り分けます。
type Dispatcher struct {
	characters *registry.CharacterStore
	scenes     *registry.SceneStore
	pages      *generator.PageGenerator
}

// NewDispatcher は Dispatcher を構築します。
func NewDispatcher(characters *registry.CharacterStore, scenes *registry.SceneStore, pages *generator.PageGenerator) *Dispatcher {
	return &Dispatcher{characters: characters, scenes: scenes, pages: pages}
}

// Invoke は名前付き操作を実行してJSON結果を返します。エラーを返さない
// 契約であり、あらゆる失敗は success=false のペイロードになります。
func (d *Dispatcher) Invoke(ctx context.Context, name string, args []byte) []byte {
	if len(args) == 0 {
		args = []byte("{}")
	}

	var (
		result any
		err    error
	)

	switch name {
	case "generate_character_reference":
		result, err = d.generateCharacterReference(ctx, args)
	case "generate_scene_reference":
		result, err = d.generateSceneReference(ctx, args)
	case "generate_comic_page":
		result, err = d.generateComicPage(ctx, args, false)
	case "regenerate_page":
		result, err = d.generateComicPage(ctx, args, true)
	case "list_characters":
		result = d.listCharacters()
	case "list_scenes":
		result = d.listScenes()
	case "update_character_reference":
		result, err = d.updateCharacterReference(ctx, args)
	case "update_scene_reference":
		result, err = d.updateSceneReference(ctx, args)
	case "delete_character":
		result, err = d.deleteCharacter(args)
	case "delete_scene":
		result, err = d.deleteScene(args)
	default:
		return mustMarshal(map[string]any{
			"success": false,
			"error":   "未知工具: " + name,
		})
	}

	if err != nil {
		slog.ErrorContext(ctx, "操作の実行に失敗しました", "tool", name, "error", err)
		return mustMarshal(map[string]any{
			"success": false,
			"error":   "错误: " + err.Error(),
		})
	}
	return mustMarshal(result)
}

// mustMarshal は結果ペイロードをエンコードします。結果は常にプレーンな
// マップとドメイン型から組み立てるため、エンコード失敗はプログラミング
// エラーとして扱います。
func mustMarshal(v any) []byte {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return []byte(fmt.Sprintf(`{"success": false, "error": "错误: %v"}`, err))
	}
	return data
}

type characterReferenceArgs struct {
	CharacterName  string                 `json:"character_name"`
	Description    string                 `json:"description"`
	VisualFeatures *domain.VisualFeatures `json:"visual_features,omitempty"`
	Style          string                 `json:"style,omitempty"`
}

func (d *Dispatcher) generateCharacterReference(ctx context.Context, raw []byte) (any, error) {
	var args characterReferenceArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("引数のデコードに失敗しました: %w", err)
	}
	if args.CharacterName == "" || args.Description == "" {
		return nil, fmt.Errorf("character_name と description は必須です")
	}

	ch, err := d.characters.Create(ctx, args.CharacterName, args.Description, registry.CreateCharacterOptions{
		VisualFeatures: args.VisualFeatures,
		Style:          args.Style,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":         true,
		"character_id":    ch.ID,
		"name":            ch.Name,
		"message":         fmt.Sprintf("人物参考图已生成并保存到 %s", ch.ReferenceImage.Path),
		"visual_features": ch.VisualFeatures,
		"next_step":       fmt.Sprintf("在 JSON 中使用 character_name: '%s' 来引用这个角色", ch.Name),
	}, nil
}

type sceneReferenceArgs struct {
	SceneName   string   `json:"scene_name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Style       string   `json:"style,omitempty"`
}

func (d *Dispatcher) generateSceneReference(ctx context.Context, raw []byte) (any, error) {
	var args sceneReferenceArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("引数のデコードに失敗しました: %w", err)
	}
	if args.SceneName == "" || args.Description == "" {
		return nil, fmt.Errorf("scene_name と description は必須です")
	}

	sc, err := d.scenes.Create(ctx, args.SceneName, args.Description, registry.CreateSceneOptions{
		Tags:  args.Tags,
		Style: args.Style,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":   true,
		"scene_id":  sc.ID,
		"name":      sc.Name,
		"message":   fmt.Sprintf("场景参考图已生成并保存到 %s", sc.ReferenceImage.Path),
		"tags":      sc.Tags,
		"next_step": fmt.Sprintf("在 JSON 的 background 字段中使用 '%s' 来引用这个场景", sc.Name),
	}, nil
}

type comicPageArgs struct {
	JSONPath    string `json:"json_path"`
	ImageSize   string `json:"image_size,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Style       string `json:"style,omitempty"`
}

func (d *Dispatcher) generateComicPage(ctx context.Context, raw []byte, regenerate bool) (any, error) {
	var args comicPageArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("引数のデコードに失敗しました: %w", err)
	}
	if args.JSONPath == "" {
		return nil, fmt.Errorf("json_path は必須です")
	}

	page, err := ingest.ParsePageFile(args.JSONPath)
	if err != nil {
		return nil, err
	}

	opts := generator.Options{
		ImageSize:   args.ImageSize,
		AspectRatio: args.AspectRatio,
		Style:       args.Style,
	}
	if regenerate {
		return d.pages.Regenerate(ctx, page, opts)
	}
	return d.pages.Generate(ctx, page, opts)
}

func (d *Dispatcher) listCharacters() any {
	characters := d.characters.List()
	result := make([]map[string]any, 0, len(characters))
	for _, ch := range characters {
		result = append(result, map[string]any{
			"character_id":    ch.ID,
			"name":            ch.Name,
			"description":     ch.Description,
			"visual_features": ch.VisualFeatures,
			"usage_count":     ch.Metadata.UsageCount,
			"reference_image": ch.ReferenceImage.Path,
		})
	}
	return result
}

func (d *Dispatcher) listScenes() any {
	scenes := d.scenes.List()
	result := make([]map[string]any, 0, len(scenes))
	for _, sc := range scenes {
		result = append(result, map[string]any{
			"scene_id":        sc.ID,
			"name":            sc.Name,
			"description":     sc.Description,
			"tags":            sc.Tags,
			"usage_count":     sc.Metadata.UsageCount,
			"reference_image": sc.ReferenceImage.Path,
		})
	}
	return result
}

type updateCharacterArgs struct {
	CharacterID    string `json:"character_id"`
	NewDescription string `json:"new_description"`
}

func (d *Dispatcher) updateCharacterReference(ctx context.Context, raw []byte) (any, error) {
	var args updateCharacterArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("引数のデコードに失敗しました: %w", err)
	}
	if args.CharacterID == "" {
		return nil, fmt.Errorf("character_id は必須です")
	}

	ch, err := d.characters.Update(ctx, args.CharacterID, args.NewDescription)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return map[string]any{
			"success": false,
			"error":   "角色不存在: " + args.CharacterID,
		}, nil
	}

	return map[string]any{
		"success":      true,
		"character_id": ch.ID,
		"name":         ch.Name,
		"message":      "参考图已更新: " + ch.ReferenceImage.Path,
	}, nil
}

type updateSceneArgs struct {
	SceneID        string `json:"scene_id"`
	NewDescription string `json:"new_description"`
}

func (d *Dispatcher) updateSceneReference(ctx context.Context, raw []byte) (any, error) {
	var args updateSceneArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("引数のデコードに失敗しました: %w", err)
	}
	if args.SceneID == "" {
		return nil, fmt.Errorf("scene_id は必須です")
	}

	sc, err := d.scenes.Update(ctx, args.SceneID, args.NewDescription)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return map[string]any{
			"success": false,
			"error":   "场景不存在: " + args.SceneID,
		}, nil
	}

	return map[string]any{
		"success":  true,
		"scene_id": sc.ID,
		"name":     sc.Name,
		"message":  "参考图已更新: " + sc.ReferenceImage.Path,
	}, nil
}

func (d *Dispatcher) deleteCharacter(raw []byte) (any, error) {
	var args struct {
		CharacterID string `json:"character_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("引数のデコードに失敗しました: %w", err)
	}
	if args.CharacterID == "" {
		return nil, fmt.Errorf("character_id は必須です")
	}

	if !d.characters.Delete(args.CharacterID) {
		return map[string]any{
			"success": false,
			"error":   "角色不存在: " + args.CharacterID,
		}, nil
	}
	return map[string]any{
		"success": true,
		"message": "角色已删除: " + args.CharacterID,
	}, nil
}

func (d *Dispatcher) deleteScene(raw []byte) (any, error) {
	var args struct {
		SceneID string `json:"scene_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("引数のデコードに失敗しました: %w", err)
	}
	if args.SceneID == "" {
		return nil, fmt.Errorf("scene_id は必須です")
	}

	if !d.scenes.Delete(args.SceneID) {
		return map[string]any{
			"success": false,
			"error":   "场景不存在: " + args.SceneID,
		}, nil
	}
	return map[string]any{
		"success": true,
		"message": "场景已删除: " + args.SceneID,
	}, nil
}
