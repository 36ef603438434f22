package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"werkly-backend/internal/chat"
	"werkly-backend/internal/companies"
	"werkly-backend/internal/documents"
	"werkly-backend/internal/embeddings"
	"werkly-backend/internal/ingest"
	"werkly-backend/internal/queue"
	"werkly-backend/internal/retrieval"
	"werkly-backend/internal/shared/config"
	"werkly-backend/internal/shared/server"
	"werkly-backend/internal/shared/storage/db"
	"werkly-backend/internal/shared/storage/object"
	localstore "werkly-backend/internal/shared/storage/object/local"
	s3store "werkly-backend/internal/shared/storage/object/s3"
	"werkly-backend/internal/suggestions"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	CompaniesRepo companies.Repo
	DocumentsRepo documents.Repo
	ChatRepo      chat.Repo
	ChunkStore    embeddings.ChunkStore
	Embedder      embeddings.Gateway
	Generator     chat.Generator
	Ranker        *retrieval.Ranker

	CompaniesService   *companies.Service
	DocumentsService   *documents.Service
	IngestService      *ingest.Service
	ChatService        *chat.Service
	SuggestionsService *suggestions.Service

	// DocumentProcessor allows callers to override ingestion for tests.
	DocumentProcessor DocumentProcessor

	CompaniesHandler   *companies.Handler
	DocumentsHandler   *documents.Handler
	IngestHandler      *ingest.Handler
	ChatHandler        *chat.Handler
	SuggestionsHandler *suggestions.Handler
}

// DocumentProcessor runs the ingestion pipeline for one document.
type DocumentProcessor interface {
	Ingest(ctx context.Context, documentID string) (ingest.Result, error)
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		CompaniesHandler:   app.CompaniesHandler,
		DocumentsHandler:   app.DocumentsHandler,
		IngestHandler:      app.IngestHandler,
		ChatHandler:        app.ChatHandler,
		SuggestionsHandler: app.SuggestionsHandler,
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

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("WK_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var companiesRepo companies.Repo
	var documentsRepo documents.Repo
	var chatRepo chat.Repo
	var chunkStore embeddings.ChunkStore

	if app.DB != nil {
		companiesRepo = &companies.PGRepo{DB: app.DB}
		documentsRepo = &documents.PGRepo{DB: app.DB}
		chatRepo = &chat.PGRepo{DB: app.DB}
		chunkStore = &embeddings.PGChunkStore{DB: app.DB}
	} else {
		companiesRepo = companies.NewMemoryRepo()
		documentsRepo = documents.NewMemoryRepo()
		chatRepo = chat.NewMemoryRepo()
		chunkStore = embeddings.NewMemoryChunkStore()
	}

	embedder := embeddings.NewOpenAIGateway(app.Config.OpenAIAPIKey, app.Config.OpenAIBaseURL, app.Config.EmbedModel)
	generator := chat.NewOpenAIGenerator(app.Config.OpenAIAPIKey, app.Config.OpenAIBaseURL, app.Config.ChatModel)

	ranker := &retrieval.Ranker{
		Gateway:        embedder,
		Store:          chunkStore,
		CandidateFloor: app.Config.CandidateFloor,
		AcceptFloor:    app.Config.AcceptFloor,
		TopK:           app.Config.TopK,
		CandidateLimit: app.Config.CandidateLimit,
	}

	companiesSvc := &companies.Service{Repo: companiesRepo}
	documentsSvc := &documents.Service{
		Store:  app.Store,
		Repo:   documentsRepo,
		Chunks: chunkStore,
	}
	ingestSvc := &ingest.Service{
		Docs:         documentsRepo,
		Store:        app.Store,
		Gateway:      embedder,
		Chunks:       chunkStore,
		MaxChunkSize: app.Config.ChunkMaxSize,
		ChunkOverlap: app.Config.ChunkOverlap,
		Concurrency:  app.Config.IngestConcurrency,
	}
	chatSvc := &chat.Service{
		Repo:      chatRepo,
		Ranker:    ranker,
		Generator: generator,
	}
	suggestionsSvc := &suggestions.Service{
		Docs:    documentsRepo,
		Chats:   chatRepo,
		Gateway: embedder,
		Chunks:  chunkStore,
	}

	app.CompaniesRepo = companiesRepo
	app.DocumentsRepo = documentsRepo
	app.ChatRepo = chatRepo
	app.ChunkStore = chunkStore
	app.Embedder = embedder
	app.Generator = generator
	app.Ranker = ranker

	app.CompaniesService = companiesSvc
	app.DocumentsService = documentsSvc
	app.IngestService = ingestSvc
	app.ChatService = chatSvc
	app.SuggestionsService = suggestionsSvc
	app.DocumentProcessor = ingestSvc

	app.CompaniesHandler = companies.NewHandler(companiesSvc)
	app.DocumentsHandler = documents.NewHandler(documentsSvc, companiesRepo, app.Queue)
	app.IngestHandler = ingest.NewHandler(ingestSvc, companiesRepo)
	app.ChatHandler = chat.NewHandler(chatSvc, companiesRepo)
	app.SuggestionsHandler = suggestions.NewHandler(suggestionsSvc, companiesRepo)
}
