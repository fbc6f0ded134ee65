package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/quiz-bank/internal/config"
	"github.com/gokatarajesh/quiz-bank/internal/logging"
	"github.com/gokatarajesh/quiz-bank/internal/metrics"
	"github.com/gokatarajesh/quiz-bank/internal/question"
	"github.com/gokatarajesh/quiz-bank/internal/question/external"
	"github.com/gokatarajesh/quiz-bank/internal/server"
	"github.com/gokatarajesh/quiz-bank/internal/session"
	"github.com/gokatarajesh/quiz-bank/internal/storage"
	ws "github.com/gokatarajesh/quiz-bank/pkg/http/ws"
)

// Application aggregates shared infrastructure (storage, question bank, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	kv          storage.KV
	store       *question.Store
	http        *http.Server
	unsubscribe func()
	closeOnce   sync.Once
}

// New bootstraps the logger, metrics, storage backend, question bank and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("storage", cfg.Storage.Backend).Msg("starting application bootstrap")

	kv, err := OpenStorage(ctx, cfg, logging.Component(logger, "storage"))
	if err != nil {
		return nil, err
	}
	return build(ctx, cfg, logger, kv), nil
}

func build(ctx context.Context, cfg *config.App, logger zerolog.Logger, kv storage.KV) *Application {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store := question.NewStore(ctx, kv, question.StoreOptions{
		Key:            cfg.Storage.Key,
		PersistTimeout: cfg.Storage.Timeout,
		ExportFilename: cfg.Bank.ExportFilename,
		Metrics:        m,
	}, logger)

	hub := ws.NewHub(logging.Component(logger, "ws_hub"))
	quizWS := session.NewHandler(store, hub, server.NewUpgrader(cfg.CORS), session.Options{
		TimeLimit:     cfg.Quiz.QuestionTimeLimit,
		TickInterval:  cfg.Quiz.TickInterval,
		FeedbackDelay: cfg.Quiz.FeedbackDelay,
		DefaultCount:  cfg.Quiz.DefaultQuestionCount,
		Metrics:       m,
	}, logger)
	unsubscribe := store.Subscribe(quizWS.BroadcastBankSize)

	questions := question.NewHTTPHandlers(store, cfg.Bank.ImportMaxBytes, logger)
	if cfg.Trivia.Enabled {
		client := &http.Client{Timeout: cfg.Trivia.Timeout}
		questions.
			WithProvider("opentdb", external.NewOpenTDBClient(cfg.Trivia.OpenTDB, client)).
			WithProvider("triviaapi", external.NewTriviaAPIClient(cfg.Trivia.TriviaAPI, cfg.Trivia.APIKey, client))
	}
	apiServer := server.NewHTTPServer(cfg, logger, reg, server.Routes{
		Questions: questions,
		QuizWS:    quizWS,
		Storage:   kv,
	})

	return &Application{
		cfg:         cfg,
		logger:      logger,
		kv:          kv,
		store:       store,
		http:        apiServer,
		unsubscribe: unsubscribe,
	}
}

// Handler exposes the root HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.http.Handler
}

// Run starts the HTTP server and waits for a termination signal or ctx to end.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		a.logger.Info().Msg("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	err := eg.Wait()
	a.Close()
	a.logger.Info().Msg("shutdown complete")
	return err
}

// Close releases the storage backend. It is safe to call more than once.
func (a *Application) Close() {
	a.closeOnce.Do(func() {
		a.unsubscribe()
		if err := a.kv.Close(); err != nil {
			a.logger.Error().Err(err).Msg("storage shutdown error")
		}
	})
}
