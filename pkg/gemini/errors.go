package gemini

import (
	"errors"
	"fmt"
)

// ErrEmptyResult はレスポンスが構造的には正しいものの、
// どの抽出戦略でも画像データが見つからなかったことを示します。
var ErrEmptyResult = errors.New("APIレスポンスに画像データが見つかりませんでした")

// TransportError はHTTP層の失敗（接続エラーや非2xxステータス）を表します。
type TransportError struct {
	StatusCode int    // 0 の場合は接続自体の失敗
	Detail     string // レスポンスボディなどの補足情報
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTPリクエストが失敗しました (status=%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("HTTPリクエストが失敗しました: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError はレスポンスJSONが期待する構造を欠いていたことを表します。
// レスポンスが明示的なエラーオブジェクトを含む場合は Message にそのメッセージを載せます。
type MalformedResponseError struct {
	Message string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("APIがエラーを返しました: %s", e.Message)
	}
	return fmt.Sprintf("APIレスポンスの形式が不正です: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
