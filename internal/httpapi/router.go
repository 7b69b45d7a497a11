// Package httpapi is the REST surface around the real-time gateway.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/VitaminP8/postsync/internal/auth"
	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/post"
	"github.com/VitaminP8/postsync/internal/user"
	"github.com/gin-gonic/gin"
)

type Users interface {
	user.UserStorage
	Me(ctx context.Context, id string) (*model.User, error)
}

type Deps struct {
	Users     Users
	Posts     post.PostStorage
	Tokens    *auth.Manager
	Gateway   http.Handler
	UploadDir string
	Logger    *slog.Logger
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger), auth.GinMiddleware(d.Tokens))

	authHandler := &AuthHandler{users: d.Users, logger: d.Logger}
	postHandler := &PostHandler{posts: d.Posts, uploadDir: d.UploadDir, logger: d.Logger}

	// Public routes
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)
	r.GET("/posts", postHandler.List)
	r.GET("/posts/:id", postHandler.Get)
	if d.Gateway != nil {
		r.GET("/ws", gin.WrapH(d.Gateway))
	}
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(auth.Required())
	{
		authorized.POST("/logout", authHandler.Logout)
		authorized.GET("/me", authHandler.Me)
		authorized.GET("/user/posts", postHandler.ListOwn)
		authorized.POST("/posts", postHandler.Create)
		authorized.PUT("/posts/:id", postHandler.Update)
		authorized.DELETE("/posts/:id", postHandler.Delete)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
