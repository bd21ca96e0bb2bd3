// File path: cmd/queryscope/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"queryscope/internal/api"
	"queryscope/internal/common"
	"queryscope/internal/querystats"
	"queryscope/internal/search"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("queryscope: .env file not loaded", "error", err)
	} else {
		logger.Info("queryscope: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	logger.Info("queryscope: startup initiated", "addr", *addr)

	searchCfg, err := search.LoadConfig()
	if err != nil {
		logger.Error("queryscope: search config load failed", "error", err)
		fmt.Println("search config error:", err)
		os.Exit(1)
	}
	client, err := search.New(ctx, searchCfg)
	if err != nil {
		logger.Error("queryscope: search client initialization failed", "error", err)
		fmt.Println("search client error:", err)
		os.Exit(1)
	}
	defer client.Close()
	if client.Available() {
		logger.Info("queryscope: backend available", "index", client.Index())
	} else {
		logger.Warn("queryscope: backend unreachable", "index", client.Index())
	}

	statsCfg, err := querystats.LoadConfig()
	if err != nil {
		logger.Error("queryscope: stats config load failed", "error", err)
		fmt.Println("stats config error:", err)
		os.Exit(1)
	}
	stats := querystats.NewService(client, statsCfg)

	server, err := api.NewServer(stats, client)
	if err != nil {
		logger.Error("queryscope: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("queryscope: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("queryscope: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("queryscope: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}
