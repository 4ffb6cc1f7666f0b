// cmd/server/main.go

// 本服務以 RESTful API 提供開戶、存提款、撤銷、刪除與交易紀錄查詢。
// 狀態只存在記憶體中，程式結束即捨棄。

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankledger/internal/bank"
	"bankledger/internal/logger"
	"bankledger/internal/server"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		addr     = flag.String("addr", envOr("BANK_ADDR", ":8080"), "HTTP listen address (or set BANK_ADDR env)")
		logLevel = flag.String("log-level", envOr("BANK_LOG_LEVEL", "info"), "log level: debug, info, warn, error (or set BANK_LOG_LEVEL env)")
		jsonLogs = flag.Bool("json-logs", os.Getenv("BANK_JSON_LOGS") != "", "emit JSON logs instead of console output (or set BANK_JSON_LOGS env)")
	)
	flag.Parse()

	log := logger.New(os.Stdout, *logLevel)
	if *jsonLogs {
		log = logger.NewWithWriter(os.Stdout, *logLevel)
	}
	if _, err := logger.ParseLevel(*logLevel); err != nil {
		log.Warn().Str("level", *logLevel).Msg("unknown log level, using info")
	}

	reg := bank.NewRegistry(bank.WithLogger(log))
	s := server.NewServer(reg, log)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", *addr).Msg("Bank server running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}
