package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/messages-backend/internal/cache"
	"github.com/shinyyama/messages-backend/internal/config"
	"github.com/shinyyama/messages-backend/internal/handler"
	appmw "github.com/shinyyama/messages-backend/internal/middleware"
	"github.com/shinyyama/messages-backend/internal/repository"
	"github.com/shinyyama/messages-backend/internal/service"
	"gorm.io/gorm"
)

type Server struct {
	e *echo.Echo
}

func New(db *gorm.DB, cfg *config.Config, inv cache.Invalidator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	userRepo := repository.NewUserRepository(db)

	users := service.NewUserDirectory(userRepo)
	quota := service.NewQuotaChecker(msgRepo, cfg.MessageQuota, service.QuotaScope(cfg.QuotaScope))
	convSvc := service.NewConversationService(db, convRepo, msgRepo, users, quota, inv, cfg.TopicsPerPage)
	convHandler := handler.NewConversationHandler(convSvc, users, cfg.TopicsPerPage)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api/messages", appmw.RequireIdentity)
	api.GET("", convHandler.Inbox)
	api.GET("/inbox", convHandler.Inbox)
	api.GET("/archived", convHandler.Archived)
	api.GET("/archived/count", convHandler.ArchivedCount)
	api.GET("/quota", convHandler.Quota)
	api.POST("", convHandler.Compose)
	api.GET("/:id", convHandler.View)
	api.POST("/:id/reply", convHandler.Reply)
	api.POST("/:id/archive", convHandler.Archive)
	api.POST("/:id/unarchive", convHandler.Unarchive)
	api.DELETE("/:id", convHandler.Delete)
	api.GET("/raw/:messageId", convHandler.Raw)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
