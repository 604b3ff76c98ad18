package api

import (
	"accounts/internal/auth"
	"accounts/internal/config"
	"accounts/internal/entity/db"
	"accounts/internal/service"
	"accounts/internal/storage"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestTimeout bounds the work a single handler may do.
const requestTimeout = 5 * time.Second

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg      config.Config
	accounts *service.AccountService
	tokens   *auth.Manager
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, accounts *service.AccountService, tokens *auth.Manager) *HTTPHandler {
	return &HTTPHandler{
		cfg:      cfg,
		accounts: accounts,
		tokens:   tokens,
	}
}

// RegisterRoutes 注册全部路由。store 为本地存储时额外挂载静态文件目录。
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, store storage.Storage) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/verify-email/:id/:token", h.VerifyEmail)
	authGroup.GET("/me", h.AuthMiddleware(), h.Me)

	users := apiGroup.Group("/users")
	users.Use(h.AuthMiddleware())
	users.PATCH("/me", h.UpdateMe)
	users.PUT("/me/picture", h.UploadMyPicture)

	staff := users.Group("")
	staff.Use(RequireRoles(db.UserRoleAdmin, db.UserRoleManager))
	staff.GET("", h.ListUsers)
	staff.GET("/:id", h.GetUser)
	staff.POST("/:id/lock", h.LockUser)
	staff.POST("/:id/unlock", h.UnlockUser)
	staff.PATCH("/:id/role", RequireRoles(db.UserRoleAdmin), h.UpdateUserRole)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := storage.NormalizePublicBase(h.cfg.StoragePublicBaseURL)
		if strings.HasPrefix(publicPrefix, "/") {
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}
}
