// Package post は投稿のCRUDと所有権チェックを提供します。
package post

import "github.com/google/uuid"

// Post は投稿エンティティです。IDは連番で不変、UserID は作成時に
// 決まる所有者で以後変更されません。
type Post struct {
	ID     int64     `json:"id"`
	Title  string    `json:"title"`
	Text   string    `json:"text"`
	UserID uuid.UUID `json:"user_id"`
}
