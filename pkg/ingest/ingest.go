// Package ingest は外部プロセスが出力したページJSONの取り込みを担当します。
// 入力は別のテキスト生成プロセスが作るため頻繁に壊れており、決定論的な
// 修復を1回だけ試みた上で、直せないものは即座に拒否します。
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// trailingSeparatorRegex は閉じ括弧の直前にある余分な区切り文字に一致します。
// 例: `[{...},]` や `{"a":1,}`
var trailingSeparatorRegex = regexp.MustCompile(`,\s*([}\]])`)

// ValidationError は修復不能なページJSONを表します。元のデコードエラーの
// 文言を保持したまま呼び出し側へ伝播します。
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ページJSONの形式が不正で自動修復もできませんでした: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParsePage は生のJSONバイト列を domain.Page にデコードします。
//
// まず素直にデコードを試み、失敗した場合はエラーの種類を検査します。
// 閉じ括弧の直前の余分な区切り文字を示すエラーに限り、区切り文字を除去する
// 修復を1回だけ適用して再試行します。それ以外の失敗（エスケープ漏れの
// 引用符など）は修復を試みず ValidationError として返します。引用符の
// ヒューリスティック修復は誤爆しやすいため意図的に行いません。
func ParsePage(data []byte) (*domain.Page, error) {
	page := &domain.Page{}
	err := json.Unmarshal(data, page)
	if err == nil {
		return page, validatePage(page)
	}

	if !isTrailingSeparatorError(err) {
		return nil, &ValidationError{Err: err}
	}

	slog.Warn("ページJSONのデコードに失敗しました。末尾の区切り文字の除去を試みます", "error", err)

	repaired := trailingSeparatorRegex.ReplaceAll(data, []byte("$1"))
	page = &domain.Page{}
	if retryErr := json.Unmarshal(repaired, page); retryErr != nil {
		// 修復後も失敗した場合は元のエラーを報告する
		return nil, &ValidationError{Err: err}
	}

	slog.Info("ページJSONを修復しました: 余分な区切り文字を除去")
	return page, validatePage(page)
}

// ParsePageFile はファイルからページJSONを読み込んでデコードします。
func ParsePageFile(path string) (*domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ページJSONの読み込みに失敗しました (%s): %w", path, err)
	}
	return ParsePage(data)
}

// isTrailingSeparatorError は、デコードエラーが「閉じ括弧の直前の余分な
// 区切り文字」に起因するものかを判定します。その場合 encoding/json は
// 値や キーの開始位置で閉じ括弧に遭遇した旨の構文エラーを返します。
func isTrailingSeparatorError(err error) bool {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return false
	}
	return strings.Contains(syntaxErr.Error(), "looking for beginning of")
}

// validatePage はデコード後の必須項目を検査します。
func validatePage(page *domain.Page) error {
	for _, panel := range page.Panels {
		if strings.TrimSpace(panel.Description) == "" {
			return &ValidationError{Err: fmt.Errorf("パネル %d に description がありません", panel.Number)}
		}
	}
	return nil
}
