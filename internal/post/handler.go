package post

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AdoryVo/starter-go-rest-api/internal/apperr"
	"github.com/AdoryVo/starter-go-rest-api/internal/session"
	"github.com/AdoryVo/starter-go-rest-api/internal/user"
)

// UserFinder は投稿作成時にユーザーの実在確認へ使う最小限の契約です。
// user.Repository がこれを満たします。
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Handler は投稿関連のHTTPハンドラーをまとめた構造体です。
type Handler struct {
	posts Repository
	users UserFinder
}

// NewHandler は Handler を作成します。
func NewHandler(posts Repository, users UserFinder) *Handler {
	return &Handler{posts: posts, users: users}
}

type postForm struct {
	Title string `json:"title" binding:"required"`
	Text  string `json:"text"`
}

// Create は POST /posts のハンドラーです。サインイン中のユーザーが
// 所有者として記録されます。
func (h *Handler) Create(c *gin.Context) {
	userID, ok := session.Default(c).UserID()
	if !ok {
		unauthorized(c)
		return
	}

	var form postForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "title と text を JSON で送ってください",
		})
		return
	}

	// セッションが残ったままユーザーだけ削除された場合に備える
	if _, err := h.users.GetByID(c.Request.Context(), userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return
		}
		databaseError(c)
		return
	}

	p, err := h.posts.Create(c.Request.Context(), form.Title, form.Text, userID)
	if err != nil {
		databaseError(c)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// List は GET /posts のハンドラーです。認証不要の公開一覧です。
func (h *Handler) List(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		databaseError(c)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetByID は GET /posts/:post_id のハンドラーです。認証不要の公開取得です。
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}

	p, err := h.posts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return
		}
		databaseError(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update は PUT /posts/:post_id のハンドラーです。所有者のみ更新できます。
func (h *Handler) Update(c *gin.Context) {
	p, ok := h.authorizeMutation(c)
	if !ok {
		return
	}

	var form postForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "title と text を JSON で送ってください",
		})
		return
	}

	p.Title = form.Title
	p.Text = form.Text
	if err := h.posts.Update(c.Request.Context(), p); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return
		}
		databaseError(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete は DELETE /posts/:post_id のハンドラーです。所有者のみ削除できます。
func (h *Handler) Delete(c *gin.Context) {
	p, ok := h.authorizeMutation(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), p.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return
		}
		databaseError(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// authorizeMutation は変更系ハンドラーの所有権ゲートです。
// 存在確認 → 認証確認 → 所有者確認の順で検査するため、存在しない投稿は
// 呼び出し側の認証状態にかかわらず常に404になります。失敗時は応答済みで
// false を返します。
func (h *Handler) authorizeMutation(c *gin.Context) (*Post, bool) {
	id, ok := parsePostID(c)
	if !ok {
		return nil, false
	}

	p, err := h.posts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return nil, false
		}
		databaseError(c)
		return nil, false
	}

	userID, signedIn := session.Default(c).UserID()
	if !signedIn {
		unauthorized(c)
		return nil, false
	}
	if p.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"code":    "FORBIDDEN",
			"message": "この投稿を変更する権限がありません",
		})
		return nil, false
	}
	return p, true
}

func parsePostID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "post_id は整数で指定してください",
		})
		return 0, false
	}
	return id, true
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": "サインインが必要です",
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"code":    "NOT_FOUND",
		"message": "対象が見つかりません",
	})
}

func databaseError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "DATABASE_ERROR",
		"message": "データベース操作に失敗しました",
	})
}
