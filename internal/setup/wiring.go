package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/techleadershub/gita-counsellor/internal/api"
	"github.com/techleadershub/gita-counsellor/internal/cache"
	"github.com/techleadershub/gita-counsellor/internal/config"
	"github.com/techleadershub/gita-counsellor/internal/embedding"
	"github.com/techleadershub/gita-counsellor/internal/guardrails"
	"github.com/techleadershub/gita-counsellor/internal/ingestion"
	"github.com/techleadershub/gita-counsellor/internal/llm"
	"github.com/techleadershub/gita-counsellor/internal/llm/bedrock"
	"github.com/techleadershub/gita-counsellor/internal/redis"
	"github.com/techleadershub/gita-counsellor/internal/research"
	"github.com/techleadershub/gita-counsellor/internal/vectorstore/qdrant"
	"github.com/techleadershub/gita-counsellor/internal/verses"
)

type Config struct {
	AWSRegion        string
	ClaudeModelID    string
	EmbedModelID     string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	DBPath           string
	VersesPath       string
	Port             string
	RedisAddr        string
	RedisPassword    string
	RedisTTL         time.Duration
	ResearchConfig   string
	LogLevel         string
	GuardrailsLLM    bool
}

type Dependencies struct {
	Agent    *research.Agent
	Store    *verses.Store
	Ingestor *ingestion.Service
	Handler  *api.Handler
	Logger   zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:    getEnv("CLAUDE_MODEL_ID", "anthropic.claude-3-5-sonnet-20240620-v1:0"),
		EmbedModelID:     getEnv("EMBED_MODEL_ID", "amazon.titan-embed-text-v2:0"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "bhagavad_gita_verses"),
		DBPath:           getEnv("DB_PATH", "gita.db"),
		VersesPath:       getEnv("VERSES_PATH", "data/verses.json"),
		Port:             getEnv("PORT", "8000"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTTL:         getEnvDuration("REDIS_TTL", 30*time.Minute),
		ResearchConfig:   getEnv("RESEARCH_CONFIG", "research.yaml"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		GuardrailsLLM:    getEnvBool("GUARDRAILS_LLM", false),
	}
}

func Wire(ctx context.Context, cfg *Config, logger zerolog.Logger) (*Dependencies, error) {
	llmClient, err := bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID, 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock client: %w", err)
	}

	embedder, err := embedding.NewBedrockEmbedder(ctx, cfg.AWSRegion, cfg.EmbedModelID, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := verses.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open verse store: %w", err)
	}

	index := qdrant.NewStorage(qdrant.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	})

	researchCfg, err := config.LoadResearchConfig(cfg.ResearchConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load research config: %w", err)
	}

	agent := research.NewAgent(llmClient, embedder, index, store, researchCfg, logger)
	ingestor := ingestion.NewService(store, embedder, index, logger)

	var resultCache *cache.ResultCache
	if cfg.RedisAddr != "" {
		redisClient, err := redis.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		resultCache = cache.NewResultCache(redisClient, "research_cache:", cfg.RedisTTL)
	}

	var validatorClient llm.Client
	if cfg.GuardrailsLLM {
		validatorClient = llmClient
	}
	validator := guardrails.NewGuardrails(validatorClient)

	handler := api.NewHandler(agent, store, index, ingestor, validator, resultCache, cfg.VersesPath, logger)

	return &Dependencies{
		Agent:    agent,
		Store:    store,
		Ingestor: ingestor,
		Handler:  handler,
		Logger:   logger,
	}, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}
