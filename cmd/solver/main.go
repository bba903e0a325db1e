// The solver command runs the end-to-end pipeline: load the three
// reference datasets (snapshot cache first), fetch a challenge,
// interpret it through the completion backend, and submit the answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"challenge-solver/internal/adapter"
	"challenge-solver/internal/adapter/completion"
	"challenge-solver/internal/cache"
	"challenge-solver/internal/catalog"
	"challenge-solver/internal/challenge"
	"challenge-solver/internal/config"
	"challenge-solver/internal/domain"
	"challenge-solver/internal/logger"
	"challenge-solver/internal/retry"
	"challenge-solver/internal/solver"
	"challenge-solver/internal/throttle"

	"go.uber.org/zap"
)

func main() {
	testMode := flag.Bool("test", false, "use the dry-run challenge endpoint")
	noSubmit := flag.Bool("no-submit", false, "interpret but do not submit the answer")
	rounds := flag.Int("rounds", 1, "number of challenges to solve")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	// Snapshot cache. A missing Redis degrades to fetch-every-run.
	var backing domain.Cache
	if redisClient, err := cache.NewRedisClient(cfg.Redis); err != nil {
		appLogger.Warn("Redis unavailable, running without snapshot cache", zap.Error(err))
	} else {
		backing = adapter.NewRedisCacheAdapter(redisClient)
	}
	store := cache.NewSnapshotStore(backing, map[string]cache.DatasetConfig{
		cache.DatasetPlanets: {TTL: cfg.Cache.TTL, MaxBytes: cfg.Cache.MaxBytes},
		cache.DatasetPeople:  {TTL: cfg.Cache.TTL, MaxBytes: cfg.Cache.MaxBytes},
		cache.DatasetCreatures: {
			TTL:      cfg.Cache.TTL,
			MaxBytes: cfg.Cache.CreatureMaxBytes,
			Reduce:   catalog.ReduceCreatures,
		},
	})

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       cfg.Retry.Delay,
		Backoff:     cfg.Retry.Backoff,
		MaxDelay:    cfg.Retry.MaxDelay,
	}

	mode := catalog.Coerce
	if cfg.Catalog.StrictRecords {
		mode = catalog.Strict
	}
	swapiClient := catalog.NewSWAPIClient(cfg.Catalog.SwapiBaseURL,
		catalog.WithPageDelay(cfg.Catalog.PageDelay),
		catalog.WithSWAPIMode(mode),
	)
	pokeClient := catalog.NewPokeClient(cfg.Catalog.PokeBaseURL,
		catalog.WithCreatureLimit(cfg.Catalog.CreatureLimit),
		catalog.WithDetailBatch(cfg.Catalog.DetailBatch),
		catalog.WithPokeLimiter(throttle.NewLimiter(cfg.Catalog.MinInterval)),
	)
	loader := catalog.NewLoader(store, swapiClient, pokeClient, policy)

	completer, err := newCompleter(cfg)
	if err != nil {
		appLogger.Fatal("Failed to create completion backend", zap.Error(err))
	}
	solverService := solver.NewService(completer)

	challengeClient := challenge.NewClient(cfg.Challenge.BaseURL, cfg.Challenge.AuthToken,
		challenge.WithRejectZero(cfg.Challenge.RejectZeroAnswer),
		challenge.WithRetryPolicy(policy),
	)

	appLogger.Info("Loading reference data")
	data, err := loader.Load(ctx)
	if err != nil {
		appLogger.Fatal("Failed to load reference data", zap.Error(err))
	}

	for round := 0; round < *rounds; round++ {
		if err := solveOne(ctx, challengeClient, solverService, data, *testMode, *noSubmit); err != nil {
			appLogger.Error("Round failed", zap.Int("round", round+1), zap.Error(err))
			os.Exit(1)
		}
	}
}

func newCompleter(cfg *config.Config) (domain.Completer, error) {
	switch cfg.LLM.Backend {
	case "openai":
		return completion.NewOpenAICompleter(cfg.LLM.APIKey, cfg.LLM.Model, "")
	case "relay":
		return completion.NewRelayCompleter(cfg.LLM.RelayURL, cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unsupported llm backend: %s", cfg.LLM.Backend)
	}
}

func solveOne(
	ctx context.Context,
	client *challenge.Client,
	svc *solver.Service,
	data *domain.ReferenceData,
	testMode, noSubmit bool,
) error {
	appLogger := logger.Get()

	var ch *domain.Challenge
	var err error
	if testMode {
		ch, err = client.FetchTest(ctx)
	} else {
		ch, err = client.Fetch(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Problema [%s]: %s\n", ch.ID, ch.Problem)

	answer, err := svc.Interpret(ctx, ch, data)
	if err != nil {
		return err
	}
	if answer.Solution == nil {
		fmt.Println("Sin solución: datos insuficientes")
		fmt.Printf("Razonamiento: %s\n", answer.Reasoning)
		return nil
	}
	fmt.Printf("Solución: %s\n", solver.FormatAnswer(*answer.Solution))

	if testMode && ch.Solution != nil {
		fmt.Printf("Solución de referencia: %s\n", solver.FormatAnswer(*ch.Solution))
	}
	if noSubmit || testMode {
		return nil
	}

	result, err := client.Submit(ctx, answer.ProblemID, *answer.Solution)
	if err != nil {
		return err
	}
	appLogger.Info("Submission result",
		zap.Bool("success", result.Success),
		zap.String("message", result.Message))
	fmt.Printf("Resultado: %v (%s)\n", result.Success, result.Message)
	return nil
}
