package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/nicofic01/chatbot-backend/internal/config"
	"github.com/nicofic01/chatbot-backend/internal/export"
	"github.com/nicofic01/chatbot-backend/internal/llm"
	"github.com/nicofic01/chatbot-backend/internal/logger"
	"github.com/nicofic01/chatbot-backend/internal/pipeline"
	"github.com/nicofic01/chatbot-backend/internal/server"
	"github.com/nicofic01/chatbot-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	// The store is constructed first and injected everywhere it is needed,
	// so nothing can observe an uninitialized connection.
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		logger.L.Error("failed to open conversation store", "path", cfg.Storage.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	completer := llm.NewCompletionClient(llm.NewClient(cfg.LLM), cfg.LLM)
	p := pipeline.New(pipeline.NewValidator(cfg.Chat.RequireEmail), completer, st)
	srv := server.New(p, st, export.NewJob(st))

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.L.Info("starting server", "address", serverAddr)
	if err := http.ListenAndServe(serverAddr, srv.Handler()); err != nil {
		logger.L.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
