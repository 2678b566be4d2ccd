package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/logger"
)

// bootstrap builds the logger and the config shared by every command.
// The returned context is cancelled on SIGINT and SIGTERM.
func bootstrap() (context.Context, context.CancelFunc, *zap.Logger, *Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Debug("starting", zap.String("app", app), zap.String("version", version))

	return ctx, stop, logger, config
}

func mustApplication(ctx context.Context, config *Config, logger *zap.Logger) *application {
	a, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}
	return a
}

func prettyJSON(v any) string {
	// do not bother error since the values are plain data
	pretty, _ := json.MarshalIndent(v, "", "  ")
	return string(pretty)
}

func printLetter(subject, letter, model string) {
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Model: %s\n\n", model)
	fmt.Println(letter)
}
