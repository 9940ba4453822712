package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/idilsaglam/todostate/internal/cli"
	"github.com/idilsaglam/todostate/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	dataDir := flag.String("data", ".", "directory the todo data lives in")
	backend := flag.String("backend", "file", "storage backend: file or badger")
	status := flag.String("status", "all", "ls filter: all, active or completed")
	search := flag.String("q", "", "ls filter: case-insensitive title substring")
	where := flag.String("where", "", "ls filter: boolean expression, e.g. '!completed && position < 3'")
	mono := flag.Bool("mono", false, "disable colors and unicode symbols")
	verbose := flag.Bool("v", false, "log diagnostics to stderr")
	flag.Parse()

	if *mono {
		ui.Mono()
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		DataDir: *dataDir,
		Backend: *backend,
		Status:  *status,
		Search:  *search,
		Where:   *where,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
