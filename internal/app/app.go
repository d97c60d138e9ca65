package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/koyif/payouts/internal/config"
	"github.com/koyif/payouts/internal/postgres"
	"github.com/koyif/payouts/internal/service"
)

type App struct {
	Config     *config.Config
	DB         *sql.DB
	Dispatcher *service.Dispatcher

	payouts *service.PayoutService
}

func New(cfg *config.Config) (*App, error) {
	db, err := initDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	repo := postgres.New(db)
	if err := repo.Bootstrap(context.Background()); err != nil {
		return nil, err
	}

	gateway := service.NewSimulatedGateway(cfg.StageDelay)
	processor := service.NewProcessor(repo, gateway)

	dispatcher := service.NewDispatcher(processor, service.DispatcherOptions{
		Workers:         cfg.WorkerCount,
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      cfg.RetryDelay,
		InProgressDelay: cfg.InProgressRetryDelay,
		TaskTimeout:     cfg.TaskTimeLimit,
	})

	return &App{
		Config:     cfg,
		DB:         db,
		Dispatcher: dispatcher,
		payouts:    service.NewPayoutService(repo, dispatcher, cfg.ScheduleDelay),
	}, nil
}

func initDB(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.Ping(); err != nil {
		err := db.Close()
		if err != nil {
			return nil, fmt.Errorf("error closing database after ping failure: %w", err)
		}
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return db, nil
}
