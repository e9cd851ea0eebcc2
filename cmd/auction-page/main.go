package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	aptos_nft_auction "aptos-nft-auction"
	"aptos-nft-auction/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	marketplace, err := aptos_nft_auction.New(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to start marketplace: %v", err)
	}
	defer marketplace.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := marketplace.Run(ctx); err != nil {
		marketplace.Logger.Error("Marketplace stopped with error", err, nil)
		marketplace.Close()
		os.Exit(1)
	}
	marketplace.Logger.Info("Marketplace stopped", nil)
}
