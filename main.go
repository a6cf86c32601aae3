package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MJE43/lilyhop/internal/api"
	"github.com/MJE43/lilyhop/internal/config"
	"github.com/MJE43/lilyhop/internal/play"
	"github.com/MJE43/lilyhop/internal/store"
	"github.com/MJE43/lilyhop/internal/tasks"
)

func main() {
	logger := log.New(os.Stdout, "[LILYHOP] ", log.LstdFlags|log.Lshortfile)
	if err := run(logger); err != nil {
		logger.Fatalf("fatal error=%v", err)
	}
}

func run(logger *log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	params, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return err
	}

	board, err := openBoard(cfg)
	if err != nil {
		return err
	}
	defer board.Close()

	queue := tasks.New(128, nil)
	sessions := play.NewManager(params, nil)
	if cfg.AutoSubmit {
		sessions.OnGameOver = autoSubmit(board, queue, cfg.MaxNameLength)
	}

	srv := api.NewServer(board, sessions, api.Config{
		TopN:           cfg.TopN,
		Capacity:       cfg.LeaderboardCapacity,
		MaxNameLength:  cfg.MaxNameLength,
		SubmitToken:    cfg.SubmitToken,
		StaticDir:      cfg.StaticDir,
		RequestTimeout: cfg.RequestTimeout,
	})

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	httpServer := &http.Server{
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv.LogStartup(ln.Addr().String(), map[string]interface{}{
		"store":       cfg.Store,
		"db_path":     cfg.DBPath,
		"tuning_file": cfg.TuningFile,
		"auto_submit": cfg.AutoSubmit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Printf("shutdown_started reason=%v", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		// Websocket connections are hijacked and ignored by Shutdown.
		sessions.Shutdown()
		err := httpServer.Shutdown(shutdownCtx)
		if qerr := queue.Close(shutdownCtx); qerr != nil {
			logger.Printf("task_queue_close_failed error=%v", qerr)
		}
		return err
	})

	err = g.Wait()
	reason := "signal"
	if err != nil {
		reason = err.Error()
	}
	srv.LogShutdown(reason)
	return err
}

func openBoard(cfg config.Config) (store.Leaderboard, error) {
	if cfg.Store == config.StoreMemory {
		return store.NewMemoryStore(cfg.LeaderboardCapacity), nil
	}
	db, err := store.NewSQLiteDB(cfg.DBPath, cfg.LeaderboardCapacity)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// autoSubmit posts finished named runs to the board off the session
// goroutine.
func autoSubmit(board store.Leaderboard, queue *tasks.Queue, maxName int) func(play.Result) {
	return func(res play.Result) {
		if res.Name == "" || len([]rune(res.Name)) > maxName {
			return
		}
		queue.Submit(tasks.Job{
			Name:    "submit_score session=" + res.SessionID,
			Timeout: 5 * time.Second,
			Run: func(ctx context.Context) error {
				_, err := board.Submit(ctx, store.Entry{Name: res.Name, Score: int64(res.Score)})
				return err
			},
		})
	}
}
