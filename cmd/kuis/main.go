// Command kuis plays a quiz in the terminal against the configured question bank.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/quiz-bank/internal/app"
	"github.com/gokatarajesh/quiz-bank/internal/config"
	"github.com/gokatarajesh/quiz-bank/internal/logging"
	"github.com/gokatarajesh/quiz-bank/internal/question"
	"github.com/gokatarajesh/quiz-bank/internal/session"
	"github.com/gokatarajesh/quiz-bank/internal/ui/play"
)

func main() {
	logFile := flag.String("log", "", "Write logs to this file (the terminal is taken by the UI)")
	noColor := flag.Bool("no-color", false, "Disable colors")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatal().Err(err).Str("path", *logFile).Msg("failed to open log file")
		}
		defer f.Close()
		out = f
	}
	logger := logging.NewWithWriter(out, cfg.Name, cfg.Env)

	kv, err := app.OpenStorage(ctx, cfg, logging.Component(logger, "storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer kv.Close()

	store := question.NewStore(ctx, kv, question.StoreOptions{
		Key:            cfg.Storage.Key,
		PersistTimeout: cfg.Storage.Timeout,
		ExportFilename: cfg.Bank.ExportFilename,
	}, logger)

	feed := play.NewFeed(64)
	sess := session.New(store, session.Options{
		TimeLimit:     cfg.Quiz.QuestionTimeLimit,
		TickInterval:  cfg.Quiz.TickInterval,
		FeedbackDelay: cfg.Quiz.FeedbackDelay,
		DefaultCount:  cfg.Quiz.DefaultQuestionCount,
		OnEvent:       feed.Publish,
	}, logger)

	model := play.NewModel(sess, feed.Events(), play.Options{
		TimeLimit: cfg.Quiz.QuestionTimeLimit,
		NoColor:   *noColor,
	})
	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	// Close stops the timers, so nothing publishes after the feed closes.
	sess.Close()
	feed.Close()

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("terminal UI failed")
	}
}
