package router

import (
	"time"

	"github.com/Xushengqwer/go-common/core"
	commonMiddleware "github.com/Xushengqwer/go-common/middleware"

	"github.com/Xushengqwer/forum_search/config"
	"github.com/Xushengqwer/forum_search/constants"
	_ "github.com/Xushengqwer/forum_search/docs"
	"github.com/Xushengqwer/forum_search/internal/api"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// SetupRouter 初始化 Gin 引擎，注册全局中间件与论坛搜索服务的所有路由。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *config.ForumSearchConfig,
	searchHandler *api.SearchHandler,
) *gin.Engine {
	router := gin.Default()

	// 中间件顺序：链路追踪在最外层，之后是 panic 恢复、请求日志与超时。
	router.Use(otelgin.Middleware(constants.ServiceName))
	router.Use(commonMiddleware.ErrorHandlingMiddleware(logger))

	if baseLogger := logger.Logger(); baseLogger != nil {
		router.Use(commonMiddleware.RequestLoggerMiddleware(baseLogger))
	} else {
		logger.Warn("无法获取底层的 *zap.Logger 实例，跳过请求日志中间件的注册。")
	}

	requestTimeout := cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		logger.Warn("配置中的请求超时 (server.requestTimeout) 无效或未设置，使用默认值 10 秒。",
			zap.Duration("parsed_duration_from_config", cfg.Server.RequestTimeout),
		)
		requestTimeout = 10 * time.Second
	}
	router.Use(commonMiddleware.RequestTimeoutMiddleware(logger, requestTimeout))

	apiV1Group := router.Group("/api/v1")
	if searchHandler == nil {
		logger.Error("SearchHandler 实例为 nil，其 API 路由无法注册！")
		panic("致命错误：SearchHandler 未初始化，无法注册 API 路由。")
	}
	searchHandler.RegisterRoutes(apiV1Group)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logger.Info("论坛搜索服务的所有路由注册完成。",
		zap.Duration("request_timeout", requestTimeout),
	)
	return router
}
