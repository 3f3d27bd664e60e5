// Package registry はキャラクターとシーンの参照画像レジストリを提供します。
// 各エンティティは <id>.json のレコードと <id>.jpg の画像の2ファイルで
// 永続化され、起動時にディレクトリを走査して一括ロードされます。
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/go-comic-kit/pkg/gemini"
)

// ReferenceGenerator は参照画像の生成を担うプロトコルアダプタの契約です。
// 本番では gemini.Client がこれを満たします。
type ReferenceGenerator interface {
	GenerateCharacterReference(ctx context.Context, name, description string, opts gemini.ReferenceOptions) (string, error)
	GenerateSceneReference(ctx context.Context, name, description string, opts gemini.ReferenceOptions) (string, error)
	Model() string
}

// GenerationError はエンティティ作成・更新の裏側の生成呼び出しが失敗した
// ことを表します。失敗時には部分的なエンティティは一切残しません。
type GenerationError struct {
	Kind string // "character" または "scene"
	Name string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("参照画像の生成に失敗しました (%s: %s): %v", e.Kind, e.Name, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// recordPath / imagePath はエンティティIDをファイル名の軸にした
// 2つの永続化アーティファクトのパスを返します。
func recordPath(dir, id string) string { return filepath.Join(dir, id+".json") }
func imagePath(dir, id string) string  { return filepath.Join(dir, id+".jpg") }

// saveRecord はエンティティレコードをJSONとして書き込みます。
// 画像の書き込みが成功した後に呼ぶのが規約です。
func saveRecord(dir, id string, record any) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("レコードのエンコードに失敗しました: %w", err)
	}
	if err := os.WriteFile(recordPath(dir, id), data, 0o644); err != nil {
		return fmt.Errorf("レコードの書き込みに失敗しました: %w", err)
	}
	return nil
}

// removeArtifacts はレコードと画像の両方を削除します。
// 存在しないファイルはエラー扱いしません。
func removeArtifacts(dir, id string) {
	for _, path := range []string{recordPath(dir, id), imagePath(dir, id)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("アーティファクトの削除に失敗しました", "path", path, "error", err)
		}
	}
}

// scanRecords はディレクトリ内のレコードファイルを列挙します。
func scanRecords(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("レジストリディレクトリの作成に失敗しました (%s): %w", dir, err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("レジストリディレクトリの走査に失敗しました (%s): %w", dir, err)
	}
	return paths, nil
}
