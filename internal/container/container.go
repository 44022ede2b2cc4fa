// Package container wires every collaborator named in §3 together with
// go.uber.org/dig, the same dependency-injection idiom the teacher uses for
// its own BuildContainer. The container handed in here is the process-wide
// singleton internal/runtime also exposes, so providers registered here are
// also visible to the package-internal runtime.GetContainer().Invoke calls
// models/chat and models/embedding make for their "local" (Ollama) source.
package container

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/raghavpatnecha/ragserve/internal/cache"
	chatorch "github.com/raghavpatnecha/ragserve/internal/chat"
	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/followup"
	"github.com/raghavpatnecha/ragserve/internal/graph"
	"github.com/raghavpatnecha/ragserve/internal/handler"
	"github.com/raghavpatnecha/ragserve/internal/judge"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	llmchat "github.com/raghavpatnecha/ragserve/internal/models/chat"
	"github.com/raghavpatnecha/ragserve/internal/models/embedding"
	"github.com/raghavpatnecha/ragserve/internal/models/rerank"
	"github.com/raghavpatnecha/ragserve/internal/models/utils/ollama"
	"github.com/raghavpatnecha/ragserve/internal/quota"
	"github.com/raghavpatnecha/ragserve/internal/reasoning"
	"github.com/raghavpatnecha/ragserve/internal/retrieval"
	"github.com/raghavpatnecha/ragserve/internal/retry"
	"github.com/raghavpatnecha/ragserve/internal/router"
	"github.com/raghavpatnecha/ragserve/internal/search"
	"github.com/raghavpatnecha/ragserve/internal/store"
	"github.com/raghavpatnecha/ragserve/internal/tracing"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
	"github.com/raghavpatnecha/ragserve/internal/worker"
)

// must panics on a dig wiring error — a malformed provider graph is a
// startup-time programming error, not a runtime condition to recover from.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// BuildContainer registers every provider needed to resolve the HTTP router,
// in dependency order. container is the same *dig.Container
// internal/runtime.GetContainer returns, so providers registered here are
// also visible to the package-internal runtime.GetContainer().Invoke calls
// models/chat and models/embedding make for their "local" (Ollama) source.
func BuildContainer(container *dig.Container) *dig.Container {
	must(container.Provide(NewResourceCleaner))
	must(container.Provide(config.LoadConfig))
	must(container.Provide(tracing.InitTracer))

	must(container.Provide(initDatabase))
	must(container.Provide(initRedisClient))
	must(container.Provide(initAntsPool))
	must(container.Invoke(registerPoolCleanup))
	must(container.Provide(embedding.NewBatchEmbedder))
	must(container.Provide(initOllamaService))
	must(container.Provide(initGraphDriver))

	must(container.Provide(initRetryer))
	must(container.Provide(initEmbedder))
	must(container.Provide(initReranker))
	must(container.Provide(initLLM))

	must(container.Provide(store.NewStore))
	must(container.Provide(store.NewTenantService))
	must(container.Provide(initCache))
	must(container.Provide(initQuotaChecker))

	must(container.Provide(initSearchEngine))
	must(container.Provide(search.NewReformulator))
	must(container.Provide(initGraphManager))
	must(container.Provide(initRetrievalOrchestrator))

	must(container.Provide(initReasoner))
	must(container.Provide(initJudge))
	must(container.Provide(initFollowupGenerator))
	must(container.Provide(initChatOrchestrator))

	must(container.Provide(initSweeper))
	must(container.Invoke(startSweeper))

	must(container.Provide(handler.NewRetrievalHandler))
	must(container.Provide(handler.NewChatHandler))
	must(container.Provide(router.NewRouter))

	return container
}

// initDatabase opens the postgres+pgvector connection, runs the struct
// migrations, then the raw-SQL vector/BM25 migration search.Migrate needs
// since halfvec columns and BM25 indexes have no portable gorm mapping.
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.DBName, cfg.Database.SSLMode,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.AutoMigrate(
		&types.Tenant{},
		&types.Collection{},
		&types.Document{},
		&types.Chunk{},
		&types.ChatSession{},
		&types.ChatMessage{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	if err := search.Migrate(db, cfg.Database.VectorDimension); err != nil {
		return nil, fmt.Errorf("vector/bm25 migrate: %w", err)
	}

	return db, nil
}

// initRedisClient builds the shared redis.Client the quota checker needs;
// internal/cache builds its own client from the same config through its own
// NewCache(redisCfg, cacheCfg) constructor.
func initRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func initCache(cfg *config.Config) (interfaces.Cache, error) {
	return cache.NewCache(cfg.Redis, cfg.Cache)
}

func initQuotaChecker(client *redis.Client, cfg *config.Config) *quota.Checker {
	return quota.NewChecker(client, cfg.Quota)
}

// initAntsPool sizes the shared goroutine pool embedding batch calls run on.
// CONCURRENCY_POOL_SIZE mirrors the teacher's own pool-sizing knob.
func initAntsPool(cfg *config.Config) (*ants.Pool, error) {
	poolSize := os.Getenv("CONCURRENCY_POOL_SIZE")
	if poolSize == "" {
		poolSize = "5"
	}
	poolSizeInt, err := strconv.Atoi(poolSize)
	if err != nil {
		return nil, err
	}
	return ants.NewPool(poolSizeInt, ants.WithPreAlloc(true))
}

func registerPoolCleanup(pool *ants.Pool, cleaner interfaces.ResourceCleaner) {
	cleaner.RegisterWithName("AntsPool", func() error {
		pool.Release()
		return nil
	})
}

func initOllamaService() (*ollama.OllamaService, error) {
	return ollama.GetOllamaService()
}

// initGraphDriver opens the Neo4j driver used by the Graph Instance Manager
// (§4.6) when graph config is enabled. Connection coordinates stay in env
// vars rather than config.yaml, matching how the teacher keeps external
// service credentials out of its own checked-in config.
func initGraphDriver(cfg *config.Config) (neo4j.Driver, error) {
	if cfg.Graph == nil || !cfg.Graph.Enabled {
		logger.Debugf(context.Background(), "graph retrieval disabled, skipping neo4j driver")
		return nil, nil
	}
	uri := os.Getenv("NEO4J_URI")
	username := os.Getenv("NEO4J_USERNAME")
	password := os.Getenv("NEO4J_PASSWORD")

	driver, err := neo4j.NewDriver(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyAuthentication(context.Background(), nil); err != nil {
		return nil, fmt.Errorf("verify neo4j auth: %w", err)
	}
	return driver, nil
}

// initGraphManager returns a true nil interfaces.GraphManager when graph
// retrieval is disabled; retrieval.Orchestrator's graph dispatch already
// nil-checks graphManager before calling it (§4.7 step 4).
func initGraphManager(cfg *config.Config, driver neo4j.Driver) interfaces.GraphManager {
	if cfg.Graph == nil || !cfg.Graph.Enabled || driver == nil {
		return nil
	}
	return graph.NewManager(driver, cfg.Graph)
}

func initRetryer(cfg *config.Config) *retry.Retryer {
	return retry.New(cfg.Retry)
}

// modelConfig finds the configured model of the given type ("embedding",
// "rerank" or "chat") by scanning cfg.Models; the chat model doubles as the
// LLM for the Judge, Deep Reasoner, Query Reformulator and Follow-up
// Generator, since SPEC_FULL's config surface carries only one generation
// model per deployment.
func modelConfig(cfg *config.Config, modelType string) (*config.ModelConfig, error) {
	for i := range cfg.Models {
		if strings.EqualFold(cfg.Models[i].Type, modelType) {
			return &cfg.Models[i], nil
		}
	}
	return nil, fmt.Errorf("no %s model configured", modelType)
}

func initEmbedder(cfg *config.Config, retryer *retry.Retryer) (embedding.Embedder, error) {
	m, err := modelConfig(cfg, "embedding")
	if err != nil {
		return nil, err
	}
	e, err := embedding.NewEmbedder(embedding.Config{
		Source:     types.ModelSource(m.Source),
		BaseURL:    m.BaseURL,
		ModelName:  m.ModelName,
		APIKey:     m.APIKey,
		Dimensions: m.Dimensions,
		ModelID:    m.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	return retry.WrapEmbedder(e, retryer), nil
}

func initReranker(cfg *config.Config, retryer *retry.Retryer) (rerank.Reranker, error) {
	m, err := modelConfig(cfg, "rerank")
	if err != nil {
		return nil, err
	}
	r, err := rerank.NewReranker(&rerank.RerankerConfig{
		APIKey:    m.APIKey,
		BaseURL:   m.BaseURL,
		ModelName: m.ModelName,
		Source:    types.ModelSource(m.Source),
		ModelID:   m.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("build reranker: %w", err)
	}
	return retry.WrapReranker(r, retryer), nil
}

func initLLM(cfg *config.Config, retryer *retry.Retryer) (llmchat.Chat, error) {
	m, err := modelConfig(cfg, "chat")
	if err != nil {
		return nil, err
	}
	c, err := llmchat.NewChat(&llmchat.ChatConfig{
		Source:    types.ModelSource(m.Source),
		BaseURL:   m.BaseURL,
		ModelName: m.ModelName,
		APIKey:    m.APIKey,
		ModelID:   m.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("build chat model: %w", err)
	}
	return retry.WrapChat(c, retryer), nil
}

func initSearchEngine(db *gorm.DB, cfg *config.Config) *search.Engine {
	return search.NewEngine(db, cfg.Database.VectorDimension, cfg.Search, cfg.Hierarchical)
}

func initRetrievalOrchestrator(
	store interfaces.Store,
	cacheClient interfaces.Cache,
	engine *search.Engine,
	reranker rerank.Reranker,
	reformulator *search.Reformulator,
	embedder embedding.Embedder,
	graphManager interfaces.GraphManager,
	cfg *config.Config,
) interfaces.Retriever {
	return retrieval.NewOrchestrator(
		store, cacheClient, engine, reranker, reformulator, embedder, graphManager,
		cfg.Search, cfg.Hierarchical, cfg.Context, cfg.Cache,
	)
}

func initReasoner(llm llmchat.Chat, retriever interfaces.Retriever, cfg *config.Config) *reasoning.Reasoner {
	return reasoning.NewReasoner(llm, retriever, cfg.DeepReasoning)
}

func initJudge(llm llmchat.Chat, cfg *config.Config) *judge.Judge {
	return judge.NewJudge(llm, cfg.Judge)
}

func initFollowupGenerator(llm llmchat.Chat, cfg *config.Config) *followup.Generator {
	return followup.NewGenerator(llm, cfg.Chat)
}

func initChatOrchestrator(
	store interfaces.Store,
	retriever interfaces.Retriever,
	reasoner *reasoning.Reasoner,
	j *judge.Judge,
	followups *followup.Generator,
	llm llmchat.Chat,
	cfg *config.Config,
) *chatorch.Orchestrator {
	return chatorch.NewOrchestrator(store, retriever, reasoner, j, followups, llm, cfg.Chat)
}

func initSweeper(store interfaces.Store, cfg *config.Config) *worker.Sweeper {
	return worker.NewSweeper(store, cfg.Asynq)
}

// startSweeper launches the periodic ingestion-status sweep in the
// background for the lifetime of the process; it sits off the request path,
// so it is started here rather than returned as a provider.
func startSweeper(sweeper *worker.Sweeper, cleaner interfaces.ResourceCleaner) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := sweeper.Run(ctx); err != nil {
			logger.Errorf(ctx, "ingestion sweeper stopped: %v", err)
		}
	}()
	cleaner.RegisterWithName("IngestionSweeper", func() error {
		cancel()
		return nil
	})
}
