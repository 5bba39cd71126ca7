// Package apperr はレイヤー間で共有するセンチネルエラーを定義します。
// 呼び出し側は errors.Is で照合してください。
package apperr

import "errors"

var (
	// ErrNotFound は対象のレコードが存在しないことを表します。
	ErrNotFound = errors.New("not found")

	// ErrConflict は一意制約違反（メールアドレスの重複など）を表します。
	ErrConflict = errors.New("conflict")
)
