// hmsctl signs in to the hospital administration backend and works with the
// feature collections from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-hms-admin/internal/config"
	"github.com/jrsteele09/go-hms-admin/ui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	setupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp(config.New())).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Colourize(isTerminal(os.Stderr), ui.Red, "Error: "+err.Error()))
		os.Exit(1)
	}
}

func setupLogger() {
	level, err := zerolog.ParseLevel(config.GetEnv("LOG_LEVEL", "warn"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
