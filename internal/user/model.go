// Package user はユーザーの登録・認証・CRUDを提供します。
package user

import "github.com/google/uuid"

// User はユーザーエンティティです。IDはランダム生成で不変、メールアドレスは
// 一意です。PasswordHash はレスポンスに含めません。
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
}
