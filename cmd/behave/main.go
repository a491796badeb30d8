package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/denizgursoy/behave/internal/app"
	"github.com/denizgursoy/behave/internal/comment_parser"
	"github.com/denizgursoy/behave/internal/generator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	newCodeParser := func(logger *slog.Logger) generator.GoCodeParser {
		return comment_parser.NewGoSourceFileParser(logger)
	}
	if err := app.StartApplication(ctx, newCodeParser, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "behave:", err)
		stop()
		os.Exit(1)
	}
}
