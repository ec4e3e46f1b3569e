package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/practicelog/internal/app/controllers"
	"github.com/yigit/practicelog/internal/app/media"
	"github.com/yigit/practicelog/internal/app/normalizer"
	appRepos "github.com/yigit/practicelog/internal/app/repositories"
	appRoutes "github.com/yigit/practicelog/internal/app/routes"
	appServices "github.com/yigit/practicelog/internal/app/services"
	"github.com/yigit/practicelog/internal/config"
	appMiddleware "github.com/yigit/practicelog/internal/middleware"
	pkgAuth "github.com/yigit/practicelog/internal/pkg/auth"
	"github.com/yigit/practicelog/internal/pkg/filestorage"
	"github.com/yigit/practicelog/internal/pkg/logger"
	"github.com/yigit/practicelog/internal/pkg/mediacache"
	"github.com/yigit/practicelog/internal/pkg/notion"
	"github.com/yigit/practicelog/internal/pkg/validation"
)

// DefaultConfigPath is where the YAML configuration is looked up
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Core holds the data-access layer shared by the server and the CLI
type Core struct {
	Repos          *appRepos.Repositories
	Normalizer     *normalizer.Normalizer
	MediaCache     *mediacache.Cache
	Walker         *media.Walker
	CheckinService appServices.CheckinService
}

// Dependencies holds all the HTTP application dependencies
type Dependencies struct {
	*Core
	AuthService       *appServices.AuthService
	SessionService    *pkgAuth.SessionService
	FileStorage       *filestorage.LocalStorage
	AuthController    *appControllers.AuthController
	CheckinController *appControllers.CheckinController
	UploadController  *appControllers.UploadController
	AuthMiddleware    *appMiddleware.AuthMiddleware
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads .env, the configuration and initializes the logger on stdout.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}
	return cfg, SetupLogger(cfg, os.Stdout), nil
}

// LoadConfig reads .env (if present) and then the YAML file and environment.
func LoadConfig(configPath string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Err(err).Msg("Failed to read .env file")
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return config.LoadConfig(configPath)
}

// SetupLogger configures the global logger from cfg, writing to out.
func SetupLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	logCfg := logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format)
	logCfg.Output = out
	lgr := logger.Configure(logCfg)
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")

	if cfg.Notion.Token == "" || cfg.Notion.MembersDBID == "" || cfg.Notion.SubmissionsDBID == "" {
		lgr.Warn().
			Bool("token", cfg.Notion.Token != "").
			Bool("membersCollection", cfg.Notion.MembersDBID != "").
			Bool("submissionsCollection", cfg.Notion.SubmissionsDBID != "").
			Msg("Provider settings incomplete, reads will be empty and writes will fail")
	}
	return lgr
}

// BuildCore wires the REST provider client into a new Core.
func BuildCore(cfg *config.Config, lgr zerolog.Logger) (*Core, error) {
	client := notion.NewClient(notion.ClientConfig{
		Token:                cfg.Notion.Token,
		BaseURL:              cfg.Notion.BaseURL,
		Version:              cfg.Notion.Version,
		Timeout:              cfg.Notion.Timeout,
		MaxRetries:           cfg.Notion.MaxRetries,
		RetryInitialInterval: cfg.Notion.RetryInitialInterval,
	})
	return NewCore(cfg, client, lgr)
}

// NewCore wires caches, repositories and the checkin service over api.
func NewCore(cfg *config.Config, client notion.API, lgr zerolog.Logger) (*Core, error) {
	cache, err := mediacache.New(cfg.Media.CacheTTL, cfg.Media.CacheSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create media cache: %w", err)
	}

	core := &Core{
		Normalizer: normalizer.New(cfg.Schema),
		MediaCache: cache,
		Walker:     media.NewWalker(client, cache, cfg.Media.WalkTimeout, lgr),
	}
	core.Repos = appRepos.NewRepositories(
		client,
		appRepos.Collections{MembersID: cfg.Notion.MembersDBID, SubmissionsID: cfg.Notion.SubmissionsDBID},
		appRepos.QueryLimits{PageSize: cfg.Notion.PageSize, MaxRows: cfg.Notion.MaxRows},
		cfg.Schema.RelationName,
		core.Normalizer,
		lgr,
	)
	core.CheckinService = appServices.NewCheckinService(core.Repos, core.Normalizer, core.Walker, appServices.CheckinOptions{
		Association: appServices.AssociationOptions{
			MaxDepth:    cfg.Media.MaxDepth,
			MaxItems:    cfg.Media.MaxItems,
			Concurrency: cfg.Media.Concurrency,
			OrphanSweep: cfg.Association.OrphanSweep,
		},
		PublicBaseURL: cfg.Server.PublicBaseURL,
	}, lgr)
	return core, nil
}

// BuildDependencies adds sessions, storage and controllers on top of core.
func BuildDependencies(cfg *config.Config, core *Core, lgr zerolog.Logger) (*Dependencies, error) {
	if err := cfg.RequireSession(); err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}

	if err := validation.RegisterBindingRules(); err != nil {
		return nil, fmt.Errorf("failed to register binding rules: %w", err)
	}

	deps := &Dependencies{Core: core, Logger: lgr}

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, strings.TrimRight(cfg.Server.PublicBaseURL, "/")+"/uploads")
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.SessionService = pkgAuth.NewSessionService(pkgAuth.SessionConfig{
		SecretKey:   cfg.Session.Secret,
		Expiration:  cfg.Session.Expiration,
		TokenIssuer: cfg.Session.Issuer,
	})
	deps.AuthService = appServices.NewAuthService(core.Repos.MemberRepository, deps.SessionService, lgr)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.SessionService, cfg.Session.CookieName)

	deps.AuthController = appControllers.NewAuthController(
		deps.AuthService,
		core.CheckinService,
		appControllers.CookieOptions{Name: cfg.Session.CookieName, Secure: isProduction(cfg)},
		lgr,
	)
	deps.CheckinController = appControllers.NewCheckinController(core.CheckinService)
	deps.UploadController = appControllers.NewUploadController(deps.FileStorage, cfg.Server.MaxUploadBytes, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if isProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestID(), appMiddleware.RequestLogger(logger.Component(lgr, "http")))

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.CheckinController,
		deps.UploadController,
		deps.AuthMiddleware,
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

func isProduction(cfg *config.Config) bool {
	return strings.EqualFold(cfg.Server.Mode, "production")
}
