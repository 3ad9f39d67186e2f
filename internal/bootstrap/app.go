package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"autofill-backend/internal/account"
	"autofill-backend/internal/answers"
	"autofill-backend/internal/fieldmap"
	"autofill-backend/internal/llm"
	openai "autofill-backend/internal/llm/openai"
	"autofill-backend/internal/profile"
	"autofill-backend/internal/shared/cache"
	"autofill-backend/internal/shared/config"
	"autofill-backend/internal/shared/server"
	"autofill-backend/internal/shared/storage/db"
	"autofill-backend/internal/usage"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Cache  cache.Cache

	AnswerRepo  fieldmap.AnswerRepo
	SharedRepo  fieldmap.SharedRepo
	HistoryRepo fieldmap.HistoryRepo

	MapService     *fieldmap.Service
	Recorder       *fieldmap.Recorder
	ProfileService *profile.Service
	AnswersService *answers.Service
	UsageService   *usage.Service
	AccountService *account.Service

	FieldMapHandler *fieldmap.Handler
	ProfileHandler  *profile.Handler
	AnswersHandler  *answers.Handler
	UsageHandler    *usage.Handler
	AccountHandler  *account.Handler
}

// Build prepares shared dependencies and the route table.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Cache:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		FieldMapHandler: app.FieldMapHandler,
		ProfileHandler:  app.ProfileHandler,
		AnswersHandler:  app.AnswersHandler,
		UsageHandler:    app.UsageHandler,
		AccountHandler:  app.AccountHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

// buildCache picks the shared Redis backend when configured, otherwise an
// in-process LRU. Mapping results and autofill context share the backend
// under distinct key prefixes.
func buildCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return cache.NewMemory(cfg.MappingCacheCap), nil
	}
	r, err := cache.NewRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	if err := r.Ping(ctx); err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: redis ping failed; using in-process cache: %v", err)
			return cache.NewMemory(cfg.MappingCacheCap), nil
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return r, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	var answerRepo fieldmap.AnswerRepo
	var sharedRepo fieldmap.SharedRepo
	var historyRepo fieldmap.HistoryRepo
	var profileRepo profile.Repo
	var customRepo answers.Repo

	if app.DB != nil {
		answerRepo = &fieldmap.PGAnswerRepo{DB: app.DB}
		sharedRepo = &fieldmap.PGSharedRepo{DB: app.DB}
		historyRepo = &fieldmap.PGHistoryRepo{DB: app.DB}
		profileRepo = &profile.PGRepo{DB: app.DB}
		customRepo = &answers.PGRepo{DB: app.DB}
	} else {
		answerRepo = fieldmap.NewMemoryAnswerRepo()
		sharedRepo = fieldmap.NewMemorySharedRepo()
		historyRepo = fieldmap.NewMemoryHistoryRepo()
		profileRepo = profile.NewMemoryRepo()
		customRepo = answers.NewMemoryRepo()
	}

	var usageSvc *usage.Service
	if app.DB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		usageSvc = usage.NewService()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if cfg.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			if !isDevLike(cfg.Env) {
				return err
			}
			log.Printf("bootstrap: %v; generative mapping disabled", err)
		} else {
			llmClient = openaiClient
		}
	}

	// Profile and custom-answer writes invalidate the per-user autofill
	// context so the extension never refills from a stale snapshot.
	dropContext := func(ctx context.Context, userID string) {
		app.Cache.Delete(ctx, fieldmap.ContextCacheKey(userID))
	}
	profileSvc := &profile.Service{Repo: profileRepo, OnChange: dropContext}
	customSvc := &answers.Service{Repo: customRepo, OnChange: dropContext}

	mapSvc := &fieldmap.Service{
		Answers:       answerRepo,
		Shared:        sharedRepo,
		LLM:           llmClient,
		Usage:         usageSvc,
		Cache:         fieldmap.NewResultCache(app.Cache, cfg.MappingCacheTTL),
		PromptVersion: cfg.PromptVersion,
	}
	recorder := &fieldmap.Recorder{
		Answers: answerRepo,
		Shared:  sharedRepo,
		History: historyRepo,
	}
	accountSvc := account.NewService(answerRepo, historyRepo, customSvc)

	app.AnswerRepo = answerRepo
	app.SharedRepo = sharedRepo
	app.HistoryRepo = historyRepo
	app.MapService = mapSvc
	app.Recorder = recorder
	app.ProfileService = profileSvc
	app.AnswersService = customSvc
	app.UsageService = usageSvc
	app.AccountService = accountSvc
	app.FieldMapHandler = fieldmap.NewHandler(mapSvc, recorder, profileSvc, customSvc, app.Cache)
	app.ProfileHandler = profile.NewHandler(profileSvc)
	app.AnswersHandler = answers.NewHandler(customSvc)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.AccountHandler = account.NewHandler(accountSvc)

	return nil
}
