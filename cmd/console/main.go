// cmd/console/main.go

// 互動式選單版本：與 HTTP 服務共用同一個 bank.Registry 核心。

package main

import (
	"flag"
	"os"

	"github.com/peterh/liner"

	"bankledger/internal/bank"
	"bankledger/internal/console"
	"bankledger/internal/logger"
)

func main() {
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	// 選單與提示使用 stdout，日誌改走 stderr 以免混在畫面中。
	log := logger.New(os.Stderr, *logLevel)
	if _, err := logger.ParseLevel(*logLevel); err != nil {
		log.Warn().Str("level", *logLevel).Msg("unknown log level, using info")
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	shell := console.New(bank.NewRegistry(bank.WithLogger(log)), line, os.Stdout, log)
	err := shell.Run()
	line.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("console input failed")
	}
}
