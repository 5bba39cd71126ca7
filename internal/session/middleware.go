package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const (
	// CookieName はセッショントークンを運ぶクッキー名です。
	CookieName = "sg_session"

	contextKey = "session.accessor"

	// バックエンド障害時にリクエストを無期限に待たせないための上限。
	// 超過は ErrStoreUnavailable として扱います。
	storeTimeout = 3 * time.Second
)

// Accessor は1リクエスト分のセッションを束ねるファサードです。
//
// UserID だけを使う読み取り専用のハンドラーはバックエンドに書き戻しません。
// SetUserID / Destroy を呼んだハンドラーは、レスポンスを書く前に Save を
// 呼んで永続化してください（クッキーの発行もここで行うため、レスポンス
// 送出後では手遅れになります）。同じリクエスト内で SetUserID と Destroy の
// 両方が呼ばれた場合は Destroy が常に優先されます。
type Accessor struct {
	token     string
	data      Data
	dirty     bool
	destroyed bool

	store  Store
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

// UserID はセッションからサインイン済みユーザーのIDを取り出します。
// 未サインイン、または格納値がUUIDとして解釈できない場合は false を返します。
func (a *Accessor) UserID() (uuid.UUID, bool) {
	if a.data.UserID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(a.data.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetUserID はサインイン済みユーザーのIDをペイロードに書き込みます。
// 永続化には Save の呼び出しが必要です。
func (a *Accessor) SetUserID(id uuid.UUID) {
	a.data.UserID = id.String()
	a.dirty = true
}

// Destroy はセッションの破棄を予約します。Save で実際に削除されます。
// セッションが存在しない状態で呼んでもエラーにはなりません（冪等）。
func (a *Accessor) Destroy() {
	a.destroyed = true
}

// Save は予約済みの変更をバックエンドへ反映し、クッキーを発行・削除します。
//   - Destroy 予約あり: エントリを削除し、クッキーを無効化します。
//   - 書き込みあり: トークン未発行なら発行し、ペイロードを保存して
//     署名付きクッキーを（再）発行します。
//   - 変更なし: 何もしません。
//
// 同一トークンへの並行 Save は後勝ちで、ペイロードが混在することはありません。
func (a *Accessor) Save(c *gin.Context) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if a.destroyed {
		if a.token != "" {
			if err := a.store.Destroy(ctx, a.token); err != nil {
				return err
			}
			a.token = ""
		}
		a.data = Data{}
		a.dirty = false
		a.destroyed = false
		c.SetCookie(CookieName, "", -1, "/", "", a.secure, true)
		return nil
	}

	if !a.dirty {
		return nil
	}

	if a.token == "" {
		token, err := a.store.Create(ctx)
		if err != nil {
			return err
		}
		a.token = token
	}

	if err := a.store.Save(ctx, a.token, a.data); err != nil {
		return err
	}

	encoded, err := a.codec.Encode(CookieName, a.token)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}
	c.SetCookie(CookieName, encoded, int(a.ttl.Seconds()), "/", "", a.secure, true)
	a.dirty = false
	return nil
}

// Default は gin のコンテキストから Accessor を取り出します。
// Middleware を経由しないルートで呼ぶと panic します。
func Default(c *gin.Context) *Accessor {
	return c.MustGet(contextKey).(*Accessor)
}

// Middleware は受信クッキーからセッションを読み込み、Accessor をコンテキストに
// 載せる gin ミドルウェアを返します。クッキーの署名は codec（SESSION_SECRET由来）
// で検証し、署名不正・期限切れは新規セッションとして扱います。バックエンドとの
// 通信失敗だけは 500 で中断します。
func Middleware(store Store, codec *securecookie.SecureCookie, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc := &Accessor{
			store:  store,
			codec:  codec,
			ttl:    ttl,
			secure: secure,
		}

		if value, err := c.Cookie(CookieName); err == nil {
			var token string
			if err := codec.Decode(CookieName, value, &token); err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
				data, err := store.Load(ctx, token)
				cancel()
				switch {
				case err == nil:
					acc.token = token
					acc.data = data
				case errors.Is(err, ErrNotFound):
					// 期限切れなどは新規セッション扱い
				default:
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"code":    "SESSION_BACKEND_UNAVAILABLE",
						"message": "セッションバックエンドに接続できません",
					})
					return
				}
			}
		}

		c.Set(contextKey, acc)
		c.Next()
	}
}
