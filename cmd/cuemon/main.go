package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/five82/cueweb/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override cueweb config path (optional)")
	pollSeconds := flag.Int("poll", 0, "refresh interval in seconds (optional, defaults to 5s)")
	username := flag.String("user", "", "username for autoload, kill reasons and saved state (optional)")
	theme := flag.String("theme", "", "color theme: Dracula or Slate (optional)")
	logPath := flag.String("log", filepath.Join(os.TempDir(), "cuemon.log"), "log file; the terminal is taken by the UI")
	flag.Parse()

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cuemon: open log: %v\n", err)
		return 1
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, Username: *username, ThemeName: *theme}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "cuemon: %v\n", err)
		return 1
	}
	return 0
}
