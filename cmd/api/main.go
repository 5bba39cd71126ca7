// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/AdoryVo/starter-go-rest-api/internal/config"
	"github.com/AdoryVo/starter-go-rest-api/internal/migrations"
	"github.com/AdoryVo/starter-go-rest-api/internal/post"
	"github.com/AdoryVo/starter-go-rest-api/internal/session"
	"github.com/AdoryVo/starter-go-rest-api/internal/user"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// データベースの初期化とマイグレーション
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// セッションバックエンドの選択（揮発 or 共有、起動時に注入）
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	store, err := newSessionStore(cfg, sessionTTL)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// セッションミドルウェア（クッキー署名鍵は必須）
	codec := securecookie.New([]byte(cfg.SessionSecret), nil)
	secure := cfg.GinMode == gin.ReleaseMode
	router.Use(session.Middleware(store, codec, sessionTTL, secure))

	// ルーティングの設定
	setupRoutes(router, db)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s, session store: %s)",
		addr, cfg.GinMode, cfg.SessionStore)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openDatabase はPostgresへ接続し、埋め込みマイグレーションを適用します。
func openDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		db.Close()
		return nil, err
	}
	if err := goose.UpContext(context.Background(), db, "."); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// newSessionStore は設定に応じたセッションバックエンドを作成します。
func newSessionStore(cfg *config.Config, ttl time.Duration) (session.Store, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(redis.NewClient(opt), ttl), nil
	default:
		return session.NewMemoryStore(ttl), nil
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "starter-go-rest-api",
		"version": "0.1.0",
	})
}

// setupRoutes は各リソースのルートを配線します。
func setupRoutes(router *gin.Engine, db *sql.DB) {
	router.GET("/health", handleHealth)

	users := user.NewPostgresRepository(db)
	posts := post.NewPostgresRepository(db)

	userHandler := user.NewHandler(users)
	postHandler := post.NewHandler(posts, users)

	router.POST("/signin", userHandler.Signin)
	router.POST("/signout", userHandler.Signout)

	router.GET("/users", userHandler.GetCurrent)
	router.POST("/users", userHandler.Signup)
	router.PUT("/users", userHandler.UpdateCurrent)
	router.GET("/users/:user_id", userHandler.GetByID)
	router.DELETE("/users/:user_id", userHandler.Delete)

	router.GET("/posts", postHandler.List)
	router.POST("/posts", postHandler.Create)
	router.GET("/posts/:post_id", postHandler.GetByID)
	router.PUT("/posts/:post_id", postHandler.Update)
	router.DELETE("/posts/:post_id", postHandler.Delete)
}
