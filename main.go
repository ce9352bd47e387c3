package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teo1264/enel-system/internal/alert"
	apihttp "github.com/teo1264/enel-system/internal/api/http"
	baseline "github.com/teo1264/enel-system/internal/baseline/domain"
	baselinemem "github.com/teo1264/enel-system/internal/baseline/infrastructure/memory"
	baselinepg "github.com/teo1264/enel-system/internal/baseline/infrastructure/postgres"
	"github.com/teo1264/enel-system/internal/batch"
	"github.com/teo1264/enel-system/internal/batch/application"
	"github.com/teo1264/enel-system/internal/config"
	ledger "github.com/teo1264/enel-system/internal/ledger/domain"
	ledgermem "github.com/teo1264/enel-system/internal/ledger/infrastructure/memory"
	ledgerpg "github.com/teo1264/enel-system/internal/ledger/infrastructure/postgres"
	"github.com/teo1264/enel-system/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var db *sql.DB
	var ledgerStore ledger.Store
	var historyStore baseline.HistoryStore
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		ledgerStore = ledgerpg.NewLedgerStore(db)
		historyStore = baselinepg.NewHistoryStore(db)
		logger.Printf("stores: postgres")
	} else {
		ledgerStore = ledgermem.NewLedgerStore()
		historyStore = baselinemem.NewHistoryStore()
		logger.Printf("stores: in-memory (no DATABASE_URL)")
	}

	metrics.Init(db, logger)

	channel := alert.Channel(alert.NewLogChannel(logger))
	if cfg.WebhookURL != "" {
		webhook, err := alert.NewWebhookChannel(cfg.WebhookURL)
		if err != nil {
			logger.Fatalf("alert webhook error: %v", err)
		}
		channel = webhook
	}
	var tpl *alert.Template
	if cfg.AlertTemplate != "" {
		tpl, err = alert.NewTemplate(cfg.AlertTemplate)
		if err != nil {
			logger.Fatalf("alert template error: %v", err)
		}
	}
	dispatcher, err := alert.NewDispatcher(channel, tpl)
	if err != nil {
		logger.Fatalf("alert dispatcher error: %v", err)
	}
	var notifier batch.AlertNotifier = dispatcher

	service, err := application.NewService(cfg, nil, ledgerStore, historyStore, notifier, logger)
	if err != nil {
		logger.Fatalf("pipeline service error: %v", err)
	}

	handler := apihttp.NewMux(service, []byte(cfg.JWTSecret))
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(handler, logger)}

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown error: %v", err)
	}
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
