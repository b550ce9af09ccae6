package main

import (
	"os"

	"github.com/birlikkoshan/todo-api/internal/client"
	"github.com/birlikkoshan/todo-api/internal/config"
	"github.com/birlikkoshan/todo-api/internal/tui"

	"github.com/charmbracelet/log"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "todo-tui"})

	cfg, err := config.LoadClient()
	if err != nil {
		logger.Fatal("config", "err", err)
	}

	api := client.New(cfg.APIURL, cfg.Timeout.Duration())
	if err := tui.Run(api, cfg.Timeout.Duration()); err != nil {
		logger.Fatal("tui", "err", err)
	}
}
