package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	httpHandler "github.com/Site-21/organ-painter/internal/handler/http"
	wsHandler "github.com/Site-21/organ-painter/internal/handler/websocket"
	"github.com/Site-21/organ-painter/internal/hub"
	"github.com/Site-21/organ-painter/internal/service"
)

// Config 结构体用于存储从环境变量或 .env 文件加载的配置。
type Config struct {
	ServerPort        string
	LogLevel          string
	AppEnv            string // development/production
	CORSAllowedOrigin string
	DefaultGridWidth  int
	DefaultGridHeight int
}

// LoadConfig 从环境变量加载配置。
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件（如果存在），忽略错误以允许只用环境变量
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:        os.Getenv("SERVER_PORT"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		AppEnv:            os.Getenv("APP_ENV"),
		CORSAllowedOrigin: os.Getenv("CORS_ALLOWED_ORIGIN"),
	}

	// --- 设置默认值 ---
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// 初始网格尺寸；非法或非正值退回默认并由 service 再钳制一次
	cfg.DefaultGridWidth = envInt("GRID_WIDTH", 32)
	cfg.DefaultGridHeight = envInt("GRID_HEIGHT", 24)

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		logrus.Warnf("Invalid %s '%s', using default %d", key, raw, def)
		return def
	}
	return v
}

// App 结构体包含应用的所有组件和配置。
type App struct {
	Config     *Config
	Log        *logrus.Logger
	Session    *service.SessionService
	Hub        *hub.Hub
	HttpServer *http.Server
}

// NewApp 创建并初始化应用的所有组件。
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // 已在 LoadConfig 验证
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	logrus.SetLevel(logLevel) // 包级 logger 与 App logger 保持同级
	log.Infof("Logger initialized (Level: %s)", logLevel.String())

	// 3. 初始化 Services
	log.Info("Initializing services...")
	sessionService, err := service.NewSessionService(cfg.DefaultGridWidth, cfg.DefaultGridHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to create SessionService: %w", err)
	}
	transferService := service.NewTransferService(sessionService)
	log.Info("Services initialized")

	// 4. 初始化 Hub 并订阅变更通知
	log.Info("Initializing hub...")
	hubInstance := hub.NewHub(sessionService)
	sessionService.SetNotifier(hubInstance)
	log.Info("Hub initialized")

	// 5. 初始化 Handlers
	sessionHandler := httpHandler.NewSessionHandler(sessionService, transferService)
	websocketHandler := wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSAllowedOrigin)

	// 6. 初始化 Gin Engine 和路由
	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware(cfg.CORSAllowedOrigin))

	api := router.Group("/api")
	{
		api.GET("/materials", sessionHandler.ListMaterials)

		sess := api.Group("/session")
		{
			sess.GET("", sessionHandler.GetState)
			sess.POST("/resize", sessionHandler.Resize)
			sess.POST("/clear", sessionHandler.Clear)
			sess.POST("/view", sessionHandler.SetView)
			sess.POST("/name", sessionHandler.SetName)
			sess.POST("/material", sessionHandler.SelectMaterial)
			sess.GET("/export", sessionHandler.Export)
			sess.POST("/import", sessionHandler.Import)
			sess.GET("/render", sessionHandler.Render)
		}
	}
	router.GET("/ws", websocketHandler.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	// 7. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	return &App{
		Config:     cfg,
		Log:        log,
		Session:    sessionService,
		Hub:        hubInstance,
		HttpServer: httpServer,
	}, nil
}

// Start 启动 Hub 事件循环和 HTTP 服务器。
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用。
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	a.Hub.Stop()
	a.Log.Info("Application shutdown complete.")
}

// corsMiddleware 设置 CORS 响应头并处理预检请求。
func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000" // 开发默认
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志。
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
