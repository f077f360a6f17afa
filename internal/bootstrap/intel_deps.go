package bootstrap

import (
	"context"
	"fmt"
	"time"

	"intel_server/adapter/in/http"
	"intel_server/adapter/in/worker"
	"intel_server/adapter/out/graph"
	"intel_server/adapter/out/lock"
	"intel_server/adapter/out/memory"
	"intel_server/adapter/out/messaging"
	"intel_server/adapter/out/mongodb"
	"intel_server/adapter/out/persistence"
	"intel_server/config"
	"intel_server/core/agent/llm"
	"intel_server/core/port/in"
	"intel_server/core/port/out"
	"intel_server/core/service/classification"
	"intel_server/core/service/draft"
	"intel_server/core/service/email"
	"intel_server/core/service/embedding"
	"intel_server/core/service/learning"
	"intel_server/infra/database"
	"intel_server/pkg/cache"
	"intel_server/pkg/logger"
	"intel_server/pkg/metrics"
	"intel_server/pkg/ratelimit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dispatch modes for LEARNING_DISPATCH.
const (
	DispatchAuto   = "auto"
	DispatchPool   = "pool"
	DispatchStream = "stream"
)

// Dependencies holds every connection, adapter and service of the process.
// Stores whose URL is unset fall back to in-memory repositories.
type Dependencies struct {
	Config *config.Config

	// Connections (nil when not configured)
	DB    *pgxpool.Pool
	SQLDB *sqlx.DB
	Redis *redis.Client
	Mongo *mongo.Client
	Neo4j neo4j.DriverWithContext

	LLM *llm.Client

	// Services
	EmbeddingStore *embedding.Store
	Classifier     *classification.Engine
	Learning       *learning.Service
	EmailService   *email.Service
	DraftService   *draft.Service

	// Learning dispatch
	LearningPool *worker.LearningPool
	Dispatcher   in.LearningDispatcher
	Publisher    out.EventPublisher

	Checks  map[string]http.PingFunc
	Latency *metrics.Registry
	Limiter ratelimit.Limiter // nil without Redis
}

type repositories struct {
	embeddings out.EmbeddingRepository
	patterns   out.PatternRepository
	tones      out.ToneProfileRepository
	drafts     out.DraftRepository
	emails     out.ProcessedEmailRepository
}

// NewDependencies connects the configured stores and wires the services.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{
		Config:  cfg,
		Checks:  map[string]http.PingFunc{},
		Latency: metrics.NewRegistry(1000),
	}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to PostgreSQL...")
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.DefaultPostgresConfig())
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		deps.DB = db
		cleanups = append(cleanups, db.Close)
		deps.Checks["postgres"] = db.Ping

		sqlDB, err := database.NewSQLX(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		deps.SQLDB = sqlDB
		cleanups = append(cleanups, func() { sqlDB.Close() })

		if err := persistence.EnsureSchema(ctx, sqlDB); err != nil {
			return fail(err)
		}
	}

	if cfg.RedisURL != "" {
		logger.Info("Connecting to Redis...")
		client, err := database.NewRedis(ctx, cfg.RedisURL, database.DefaultRedisConfig())
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		deps.Redis = client
		cleanups = append(cleanups, func() { client.Close() })
		deps.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		if cfg.RateLimitPerMinute > 0 {
			deps.Limiter = ratelimit.NewSlidingWindow(client, cfg.RateLimitPerMinute, time.Minute)
		}
	}

	if cfg.MongoDBURL != "" {
		logger.Info("Connecting to MongoDB...")
		client, err := mongodb.NewClient(ctx, cfg.MongoDBURL)
		if err != nil {
			return fail(err)
		}
		deps.Mongo = client
		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Disconnect(ctx)
		})
		deps.Checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}

	if cfg.Neo4jURL != "" {
		logger.Info("Connecting to Neo4j...")
		driver, err := graph.NewDriver(ctx, cfg.Neo4jURL, cfg.Neo4jUsername, cfg.Neo4jPassword)
		if err != nil {
			return fail(err)
		}
		deps.Neo4j = driver
		cleanups = append(cleanups, func() { driver.Close(context.Background()) })
		deps.Checks["neo4j"] = driver.VerifyConnectivity
	}

	repos, err := deps.repositories(ctx)
	if err != nil {
		return fail(err)
	}

	if err := deps.wireServices(repos); err != nil {
		return fail(err)
	}
	if deps.LearningPool != nil {
		pool := deps.LearningPool
		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			pool.Stop(ctx)
		})
	}

	return deps, cleanup, nil
}

func (d *Dependencies) repositories(ctx context.Context) (repositories, error) {
	repos := repositories{
		embeddings: memory.NewEmbeddingRepository(),
		patterns:   memory.NewPatternRepository(),
		tones:      memory.NewToneProfileRepository(),
		drafts:     memory.NewDraftRepository(),
		emails:     memory.NewProcessedEmailRepository(),
	}

	if d.DB != nil {
		repos.embeddings = persistence.NewEmbeddingAdapter(d.DB)
	}
	if d.SQLDB != nil {
		repos.patterns = persistence.NewPatternAdapter(d.SQLDB)
		repos.tones = persistence.NewToneProfileAdapter(d.SQLDB)
		repos.drafts = persistence.NewDraftAdapter(d.SQLDB)
	}
	if d.Neo4j != nil {
		tones := graph.NewToneProfileAdapter(d.Neo4j, "")
		if err := tones.EnsureIndexes(ctx); err != nil {
			return repos, err
		}
		repos.tones = tones
	}
	if d.Mongo != nil {
		emails := mongodb.NewProcessedEmailAdapter(d.Mongo.Database(d.Config.MongoDBName))
		if err := emails.EnsureIndexes(ctx); err != nil {
			return repos, err
		}
		repos.emails = emails
	}

	if d.DB == nil || d.Mongo == nil {
		logger.Warn("Running with in-memory repositories for unconfigured stores; data is not persisted")
	}
	return repos, nil
}

func (d *Dependencies) lockers() (learnLocker, foldLocker out.OwnerLocker) {
	if d.Redis != nil {
		return lock.NewRedisLocker(d.Redis, "learn", d.Config.OwnerLockTTL),
			lock.NewRedisLocker(d.Redis, "fold", d.Config.OwnerLockTTL)
	}
	return lock.NewLocalLocker(64), lock.NewLocalLocker(64)
}

func (d *Dependencies) wireServices(repos repositories) error {
	cfg := d.Config
	zlog := logger.Default().Zerolog()

	d.LLM = llm.NewClient(llm.ClientConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.LLMModel,
		EmbeddingModel: cfg.LLMEmbeddingModel,
		MaxTokens:      cfg.LLMMaxTokens,
		Temperature:    cfg.LLMTemperature,
		Timeout:        cfg.LLMTimeout(),
	})
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; classification and drafting will use fallbacks")
	}

	var embedder out.EmbeddingProvider = d.LLM
	if d.Redis != nil {
		ttl := time.Duration(cfg.EmbeddingCacheTTLMin) * time.Minute
		embedder = llm.NewCachedEmbedder(d.LLM, cache.NewRedisCache(d.Redis, "emb"), cfg.LLMEmbeddingModel, ttl)
	}

	d.EmbeddingStore = embedding.NewStore(repos.embeddings, embedder)
	d.Classifier = classification.NewEngine(d.EmbeddingStore, embedder, d.LLM, d.LLM, classification.Config{
		SimilarLimit:       cfg.ClassifySimilarLimit,
		MinSimilarity:      cfg.ClassifyMinSimilarity,
		ConsensusThreshold: cfg.ClassifyConsensusThreshold,
		DigestSize:         cfg.ClassifyDigestSize,
		DigestMaxWords:     cfg.ClassifyDigestMaxWords,
		ProviderTimeout:    cfg.LLMTimeout(),
	})

	learnLocker, foldLocker := d.lockers()
	learner := learning.NewPatternLearner(repos.patterns, embedder, learnLocker)
	tone := learning.NewToneBuilder(repos.tones, learnLocker)
	d.Learning = learning.NewService(learner, tone, repos.drafts, repos.tones, foldLocker, cfg.ToneUpdateEvery)

	if d.Redis != nil {
		d.Publisher = messaging.NewRedisProducer(d.Redis)
	}

	switch dispatchMode(cfg.LearningDispatch, d.Publisher != nil) {
	case DispatchStream:
		if d.Publisher == nil {
			return fmt.Errorf("LEARNING_DISPATCH=stream requires REDIS_URL")
		}
		d.Dispatcher = messaging.NewStreamDispatcher(d.Publisher, zlog)
	default:
		d.LearningPool = worker.NewLearningPool(d.Learning, worker.PoolConfig{
			Workers:   cfg.LearningWorkers,
			QueueSize: cfg.LearningQueueSize,
			Budget:    cfg.LearningBudget,
		}, zlog)
		if err := d.LearningPool.Start(); err != nil {
			return fmt.Errorf("start learning pool: %w", err)
		}
		d.Dispatcher = d.LearningPool
	}

	d.EmailService = email.NewService(repos.emails, d.Classifier, learner, d.Publisher)
	d.DraftService = draft.NewService(repos.drafts, repos.emails, d.Learning, d.LLM, d.Dispatcher)
	return nil
}

// dispatchMode resolves "auto": the stream when Redis is available, the in-process pool otherwise.
func dispatchMode(mode string, hasStream bool) string {
	switch mode {
	case DispatchPool, DispatchStream:
		return mode
	}
	if hasStream {
		return DispatchStream
	}
	return DispatchPool
}
