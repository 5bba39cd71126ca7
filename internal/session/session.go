// Package session はトークンをキーとするサーバーサイドセッションを提供します。
//
// セッション本体は Store が所有し、リクエスト側はトークンだけを持ちます。
// バックエンドはプロセス内メモリ（揮発・単一インスタンス向け）と
// Redis（共有・水平スケール向け）の2種類で、起動時に注入して切り替えます。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrNotFound はトークンに対応するセッションが存在しない（または期限切れ）
	// ことを表します。
	ErrNotFound = errors.New("session not found")

	// ErrStoreUnavailable はバックエンドとの通信失敗を表します。
	// 呼び出し側は 500 に分類し、握りつぶさないでください。
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Data はセッションペイロードです。フィールドは固定スキーマで、
// 現状はサインイン済みユーザーのIDのみを保持します。
// 生のパスワードを格納してはいけません。
type Data struct {
	UserID string `json:"user_id,omitempty"`
}

// Store はセッションバックエンドの契約です。
// 各操作は1トークン単位でアトミックです。同一トークンへの並行 Save は
// 後勝ち（last save wins）となり、ペイロードが混在することはありません。
type Store interface {
	// Create は推測不能な新しいトークンを発行し、空のペイロードで初期化します。
	Create(ctx context.Context) (string, error)

	// Load は生存中のトークンのペイロードを返します。
	// 存在しない・期限切れの場合は ErrNotFound を返します。
	Load(ctx context.Context, token string) (Data, error)

	// Save はペイロードを上書きし、有効期限を更新します。
	Save(ctx context.Context, token string, data Data) error

	// Destroy はエントリを削除します。存在しないトークンでもエラーにしません。
	Destroy(ctx context.Context, token string) error
}

// newToken は暗号学的乱数による256ビットのトークンを生成します。
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
