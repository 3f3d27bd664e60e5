package gemini

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SplitDataURL は data URL を mime タイプと base64 ペイロードに分解します。
// data: プレフィックスを持たない文字列は JPEG のペイロードとみなします。
func SplitDataURL(s string) (mimeType, payload string) {
	if !strings.HasPrefix(s, "data:") {
		return "image/jpeg", s
	}
	prefix, data, ok := strings.Cut(s, ",")
	if !ok {
		return "image/jpeg", strings.TrimPrefix(s, "data:")
	}
	mimeType = strings.TrimPrefix(prefix, "data:")
	mimeType, _, _ = strings.Cut(mimeType, ";")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return mimeType, data
}

// RawPayload は data URL プレフィックスがあれば取り除き、生の base64 ペイロードを返します。
// APIの inline_data はプレフィックスなしのペイロードのみを受け付けます。
func RawPayload(s string) string {
	_, payload := SplitDataURL(s)
	return payload
}

// SaveDataURL は data URL（またはプレフィックスなしの base64 文字列）をデコードし、
// 親ディレクトリを作成した上でファイルに書き込みます。
func SaveDataURL(dataURL, path string) error {
	payload := RawPayload(dataURL)
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("画像ペイロードのデコードに失敗しました: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(path, decoded, 0o644); err != nil {
		return fmt.Errorf("画像の書き込みに失敗しました (%s): %w", path, err)
	}
	return nil
}
