package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AdoryVo/starter-go-rest-api/internal/apperr"
	"github.com/AdoryVo/starter-go-rest-api/internal/password"
	"github.com/AdoryVo/starter-go-rest-api/internal/session"
)

// Handler はユーザー関連のHTTPハンドラーをまとめた構造体です。
type Handler struct {
	users Repository
}

// NewHandler は Handler を作成します。
func NewHandler(users Repository) *Handler {
	return &Handler{users: users}
}

type credentialsForm struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

// Signup は POST /users のハンドラーです。
// 登録に成功するとそのままサインイン状態になります。
// メールアドレスが登録済みの場合は 409 を返します。
func (h *Handler) Signup(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "email と password を JSON で送ってください",
		})
		return
	}
	// 空パスワードの拒否は登録ポリシー（ハッシュ化自体は失敗しない）
	if form.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "password は必須です",
		})
		return
	}

	hash, err := password.Hash(form.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "HASHING_FAILED",
			"message": "パスワードのハッシュ化に失敗しました",
		})
		return
	}

	u, err := h.users.Create(c.Request.Context(), form.Email, hash)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"code":    "EMAIL_TAKEN",
				"message": "このメールアドレスは既に登録されています",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "DATABASE_ERROR",
			"message": "ユーザーの登録に失敗しました",
		})
		return
	}

	acc := session.Default(c)
	acc.SetUserID(u.ID)
	if err := acc.Save(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	c.JSON(http.StatusCreated, u)
}

// Signin は POST /signin のハンドラーです。
// 「ユーザーが存在しない」と「パスワード不一致」は、アカウントの存在を
// 漏らさないよう呼び出し側からは区別できない同一の401で応答します。
func (h *Handler) Signin(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "email と password を JSON で送ってください",
		})
		return
	}

	u, err := h.users.GetByEmail(c.Request.Context(), form.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			unauthorized(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "DATABASE_ERROR",
			"message": "ユーザーの取得に失敗しました",
		})
		return
	}

	ok, err := password.Verify(form.Password, u.PasswordHash)
	if err != nil {
		// 保存済みハッシュの破損は認証失敗ではなくサーバー側の異常
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "MALFORMED_HASH",
			"message": "保存済みの認証情報が破損しています",
		})
		return
	}
	if !ok {
		unauthorized(c)
		return
	}

	acc := session.Default(c)
	acc.SetUserID(u.ID)
	if err := acc.Save(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// Signout は POST /signout のハンドラーです。冪等で、セッションが
// 既に無い状態でもエラーにしません。
func (h *Handler) Signout(c *gin.Context) {
	acc := session.Default(c)
	acc.Destroy()
	if err := acc.Save(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの削除に失敗しました",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCurrent は GET /users のハンドラーです。サインイン中のユーザーを返します。
func (h *Handler) GetCurrent(c *gin.Context) {
	id, ok := session.Default(c).UserID()
	if !ok {
		unauthorized(c)
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "DATABASE_ERROR",
			"message": "ユーザーの取得に失敗しました",
		})
		return
	}
	c.JSON(http.StatusOK, u)
}

// GetByID は GET /users/:user_id のハンドラーです。認証不要の公開取得です。
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "user_id はUUIDで指定してください",
		})
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "DATABASE_ERROR",
			"message": "ユーザーの取得に失敗しました",
		})
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateCurrent は PUT /users のハンドラーです。メールアドレスは常に、
// パスワードは空でないときだけ更新します。保存するハッシュは必ず
// Credential Manager（password パッケージ）経由で再生成します。
func (h *Handler) UpdateCurrent(c *gin.Context) {
	id, ok := session.Default(c).UserID()
	if !ok {
		unauthorized(c)
		return
	}

	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "email と password を JSON で送ってください",
		})
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "DATABASE_ERROR",
			"message": "ユーザーの取得に失敗しました",
		})
		return
	}

	u.Email = form.Email
	if form.Password != "" {
		hash, err := password.Hash(form.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "HASHING_FAILED",
				"message": "パスワードのハッシュ化に失敗しました",
			})
			return
		}
		u.PasswordHash = hash
	}

	if err := h.users.Update(c.Request.Context(), u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"code":    "EMAIL_TAKEN",
				"message": "このメールアドレスは既に登録されています",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "DATABASE_ERROR",
			"message": "ユーザーの更新に失敗しました",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete は DELETE /users/:user_id のハンドラーです。
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "user_id はUUIDで指定してください",
		})
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			notFound(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "DATABASE_ERROR",
			"message": "ユーザーの削除に失敗しました",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// unauthorized はサインインが必要、または認証失敗の応答です。
// サインイン失敗時の2経路（ユーザー不在・パスワード不一致）で
// 完全に同じボディを返すことが重要です。
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
