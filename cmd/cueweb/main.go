package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/cueweb/internal/config"
	"github.com/five82/cueweb/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override cueweb config path (optional)")
	listen := flag.String("listen", "", "listen address (optional, defaults to :3000)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath, config.RoleServer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cueweb: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cueweb: %v\n", err)
		return 1
	}
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cueweb: %v\n", err)
		return 1
	}
	return 0
}
