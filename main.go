package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/mordilloSan/simplelogger/config"
	"github.com/mordilloSan/simplelogger/logger"
)

type order struct {
	ID    int      `json:"id"`
	Items []string `json:"items"`
	Total float64  `json:"total"`
}

func checkout(o order) (float64, error) {
	if len(o.Items) == 0 {
		return 0, errors.New("empty order")
	}
	return o.Total * 1.2, nil
}

// Example demonstrating the simplelogger hierarchy.
// Settings come from logger.yaml, .env and LOGGER_* variables, e.g.
//
//	LOGGER_LEVEL=trace LOGGER_FILEPATH=./app.log ./simplelogger
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.Apply(logger.Default); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	defer logger.Close()

	app := logger.NewLogger(nil, logger.WithName("app"))
	app.Infof("starting at %v with level %s", time.Now().Format(time.RFC3339), logger.GetDefaultLevel())

	db := app.GetChild("db")
	db.DebugKV("cache lookup",
		"key", "user:123",
		"hit", true,
		"ttl_seconds", 300)
	db.WarningKV("database connection slow",
		"host", "localhost",
		"port", 5432,
		"retry_count", 3)

	app.InfoJSON("order received", order{ID: 7, Items: []string{"book", "pen"}, Total: 12.5})

	// TRACE records only appear when LOGGER_LEVEL=trace.
	traced := logger.Trace(checkout)
	if _, err := traced(order{ID: 8}); err != nil {
		app.ErrorTB(err, "checkout failed for order ", 8)
	}

	app.API(200, "request successful")
	app.API(301, "redirect to new location")
	app.API(404, "resource not found", "path", "/missing")
	app.API(500, "internal server error")

	app.Fatal("fatal records are logged at CRITICAL and do not exit")
}
