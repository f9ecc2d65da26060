package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/docscout/internal/config"
	"github.com/kirillkom/docscout/internal/core/ports"
	"github.com/kirillkom/docscout/internal/core/usecase"
	"github.com/kirillkom/docscout/internal/infrastructure/lexical/bleveindex"
	"github.com/kirillkom/docscout/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/docscout/internal/infrastructure/memory/redismem"
	"github.com/kirillkom/docscout/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docscout/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docscout/internal/infrastructure/resilience"
	"github.com/kirillkom/docscout/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Questions ports.QuestionService
	Passages  ports.PassageReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewPassageRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	lexical, err := bleveindex.Open(cfg.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("open lexical index: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init outcome publisher: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewEmbedder(ollamaClient)
	scorer := ollama.NewRelevanceScorer(ollamaClient, executor, cfg.OllamaScoringRPS)
	generator := ollama.NewGenerator(ollamaClient, executor)

	semantic := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder)
	memory := redismem.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		time.Duration(cfg.SessionTTLHours)*time.Hour)

	params := usecase.DefaultParams()
	params.RRFK = cfg.RetrievalRRFK
	params.CandidateMultiplier = cfg.RetrievalCandidateMult
	params.MinCandidates = cfg.RetrievalMinCandidates
	params.NeighborDecrement = cfg.RetrievalNeighborDecrement
	params.TrustWeighting = cfg.RetrievalTrustWeighted
	params.SearchTimeout = cfg.RetrievalSearchTimeout
	params.RerankTimeout = cfg.RerankTimeout
	params.MaxRetries = cfg.CorrectiveMaxRetries
	params.MinResults = cfg.CorrectiveMinResults
	params.RetrySpareResults = cfg.CorrectiveSpareResults
	params.CoverageLow = cfg.CorrectiveCoverageLow
	params.CoverageMid = cfg.CorrectiveCoverageMid
	params.ScoreFloorLow = cfg.CorrectiveScoreFloorLow
	params.ScoreFloorMid = cfg.CorrectiveScoreFloorMid
	params.Weights = usecase.ConfidenceWeights{
		Retrieval:     cfg.ConfidenceWeightRetrieval,
		Coverage:      cfg.ConfidenceWeightCoverage,
		AnswerQuality: cfg.ConfidenceWeightAnswer,
		Consistency:   cfg.ConfidenceWeightConsistency,
	}

	controller := usecase.NewController(
		usecase.NewAnalyzer(memory),
		usecase.NewRetriever(semantic, lexical, params),
		usecase.NewExpander(repo, params),
		usecase.NewReranker(scorer, params),
		usecase.NewConfidenceScorer(params),
		generator,
		publisher,
		params,
	)

	return &App{
		Config: cfg,

		Questions: controller,
		Passages:  repo,

		closeFn: func() {
			publisher.Close()
			_ = memory.Close()
			_ = lexical.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
