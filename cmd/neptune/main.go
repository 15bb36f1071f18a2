// Neptune: conversational token swap and payment agent.
// Resolves user intent with a tool-calling model, quotes swaps via the NEAR
// Intents 1-Click API, and prepares unsigned transactions for wallet signing.
package main

import (
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/joho/godotenv"

	"github.com/neptuneai/swap-agent/config"
	"github.com/neptuneai/swap-agent/engine"
	"github.com/neptuneai/swap-agent/hotpay"
	"github.com/neptuneai/swap-agent/nearintents"
	"github.com/neptuneai/swap-agent/quote"
	"github.com/neptuneai/swap-agent/server"
	"github.com/neptuneai/swap-agent/tokens"
	"github.com/neptuneai/swap-agent/tools"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// 1-Click API client, shared by the token directory and quote service
	oneClick := nearintents.NewClient(cfg.OneClickKey)

	directory := tokens.NewDirectory(oneClick)
	quotes := quote.NewService(oneClick, directory)
	payments := hotpay.NewClient(cfg.HotPayToken)

	catalog := tools.NewCatalog(directory, quotes, payments)

	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey))
	var opts []engine.Option
	if cfg.Model != "" {
		opts = append(opts, engine.WithModel(cfg.Model))
	}
	orchestrator := engine.NewOrchestrator(engine.NewAnthropicModel(client), catalog, opts...)

	store, err := server.NewStore()
	if err != nil {
		log.Fatal(err)
	}
	srv := server.New(orchestrator, store)

	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("Neptune swap agent running")
	log.Printf("WebSocket endpoint: ws://localhost:%d/ws", cfg.Port)
	log.Printf("Health check: http://localhost:%d/health", cfg.Port)
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if err := srv.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal(err)
	}
}
