package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Xushengqwer/go-common/core"
	sharedTracing "github.com/Xushengqwer/go-common/core/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Xushengqwer/forum_search/config"
	"github.com/Xushengqwer/forum_search/constants"
	_ "github.com/Xushengqwer/forum_search/docs"
	"github.com/Xushengqwer/forum_search/internal/analytics"
	"github.com/Xushengqwer/forum_search/internal/api"
	coreES "github.com/Xushengqwer/forum_search/internal/core/es"
	coreKafka "github.com/Xushengqwer/forum_search/internal/core/kafka"
	"github.com/Xushengqwer/forum_search/internal/privileges"
	"github.com/Xushengqwer/forum_search/internal/query"
	"github.com/Xushengqwer/forum_search/internal/repositories"
	"github.com/Xushengqwer/forum_search/internal/service"
	"github.com/Xushengqwer/forum_search/router"
)

// @title 论坛搜索服务 API
// @version 1.0.0
// @description 论坛搜索服务的 API 文档。提供帖子搜索、权限范围控制与热门搜索词统计，索引数据来自论坛内容服务的 Kafka 事件。
// @termsOfService http://swagger.io/terms/

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8084
// @schemes http https
func main() {
	// --- 配置与日志 ---
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "指定配置文件的路径")
	flag.Parse()

	var cfg config.ForumSearchConfig
	if err := core.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("致命错误: 加载配置文件 '%s' 失败: %v", configFile, err)
	}

	logger, loggerErr := core.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("致命错误: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("警告: ZapLogger Sync 操作失败: %v\n", err)
		}
	}()
	logger.Info("Logger 初始化成功。")

	// --- HTTP Transport 与链路追踪 ---
	baseHttpTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	var esHttpClientTransport http.RoundTripper = baseHttpTransport

	if cfg.TracerConfig.Enabled {
		tracerShutdown, err := sharedTracing.InitTracerProvider(
			constants.ServiceName,
			constants.ServiceVersion,
			cfg.TracerConfig,
		)
		if err != nil {
			logger.Fatal("初始化分布式追踪 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerShutdown(shutdownCtx); err != nil {
				logger.Error("关闭分布式追踪 TracerProvider 时发生错误", zap.Error(err))
			}
		}()
		esHttpClientTransport = otelhttp.NewTransport(baseHttpTransport)
		logger.Info("分布式追踪功能已初始化。")
	} else {
		logger.Info("分布式追踪功能已禁用 (根据配置)。")
	}

	// --- Elasticsearch 与仓库层 ---
	esClient, err := coreES.NewESClient(&cfg.ElasticsearchConfig, logger, esHttpClientTransport)
	if err != nil {
		logger.Fatal("创建 Elasticsearch 客户端失败", zap.Error(err))
	}

	postRepo := repositories.NewESPostRepository(esClient, cfg.ElasticsearchConfig.PostsIndex.Name, logger)
	counterRepo := repositories.NewESCounterRepository(esClient, cfg.ElasticsearchConfig.CountersIndex.Name, logger)
	lookupRepo := repositories.NewESLookupRepository(esClient, cfg.ElasticsearchConfig.PostsIndex.Name, logger)

	// --- 搜索统计防抖器 ---
	debouncer := analytics.NewDebouncer(counterRepo, cfg.AnalyticsConfig.DebounceWindow, logger)
	defer debouncer.Close()
	logger.Info("搜索统计防抖器初始化成功。",
		zap.Duration("debounce_window", cfg.AnalyticsConfig.DebounceWindow))

	// --- 权限解析器 ---
	privilegeBackend := privileges.NewConfigBackend(cfg.PrivilegesConfig)
	privilegeResolver := privileges.NewResolver(privilegeBackend, logger)

	// --- 业务服务层 ---
	normalizer := query.NewNormalizer(cfg.SearchConfig)
	renderAssembler := service.NewRenderAssembler(lookupRepo, lookupRepo, lookupRepo, logger)
	searchSvc := service.NewSearchService(
		normalizer,
		privilegeResolver,
		postRepo,
		counterRepo,
		debouncer,
		renderAssembler,
		logger,
	)
	logger.Info("SearchService 初始化成功。")

	// --- Kafka 事件链路 ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saramaCfg, err := coreKafka.ConfigureSarama(&cfg.KafkaConfig, logger)
	if err != nil {
		logger.Fatal("配置 Sarama (Kafka 客户端库) 失败", zap.Error(err))
	}

	dlqProducer, err := coreKafka.NewSyncProducer(&cfg.KafkaConfig, saramaCfg, logger)
	if err != nil {
		logger.Fatal("创建 Kafka DLQ 同步生产者失败", zap.Error(err))
	}
	defer func() {
		if err := dlqProducer.Close(); err != nil {
			logger.Error("关闭 Kafka DLQ 生产者时发生错误", zap.Error(err))
		}
	}()

	eventSvc := coreKafka.NewEventService(postRepo, logger)
	if err := coreKafka.StartConsumerGroup(ctx, &cfg.KafkaConfig, eventSvc, dlqProducer, logger); err != nil {
		logger.Fatal("启动 Kafka 消费者组失败", zap.Error(err))
	}
	logger.Info("Kafka 消费者组已启动，开始在后台消费帖子事件。")

	// --- HTTP 服务 ---
	searchApiHandler := api.NewSearchHandler(searchSvc, logger)
	ginRouter := router.SetupRouter(logger, &cfg, searchApiHandler)

	serverAddr := cfg.Server.ListenAddr
	if serverAddr == "" {
		serverAddr = ":" + cfg.Server.Port
	} else if !strings.Contains(serverAddr, ":") {
		serverAddr = serverAddr + ":" + cfg.Server.Port
	}

	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: ginRouter,
	}

	go func() {
		logger.Info("HTTP API 服务器正在启动...", zap.String("listen_address", serverAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP API 服务器启动失败或意外停止", zap.Error(err))
			cancel()
		}
	}()

	// --- 优雅关闭 ---
	quitSignal := make(chan os.Signal, 1)
	signal.Notify(quitSignal, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("服务已成功启动。正在监听中断或终止信号以进行优雅关闭...")

	receivedSignal := <-quitSignal
	logger.Info("接收到关闭信号，开始进行服务的优雅关闭...", zap.String("signal", receivedSignal.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭 HTTP API 服务器时发生错误", zap.Error(err))
	} else {
		logger.Info("HTTP API 服务器已成功关闭。")
	}

	// 防抖器的 Close 由 defer 执行，会同步提交所有尚未落库的待统计查询。
	logger.Info("服务所有组件已完成关闭流程，程序即将退出。")
}
