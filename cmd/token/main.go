package main

import (
	"flag"
	"fmt"
	"time"

	"rps_webapp/internal/config"
	"rps_webapp/internal/logger"
	"rps_webapp/internal/service"
)

// Prints a token for the given user id, or for a fresh guest id
func main() {
	userID := flag.Int64("user", 0, "user id (0 picks a guest id)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "error", err)
	}

	tokens, err := service.NewTokenService(cfg.JWTSecret, *ttl)
	if err != nil {
		logger.Fatal("token service", "error", err)
	}

	id := *userID
	if id == 0 {
		if id, err = service.NewGuestID(); err != nil {
			logger.Fatal("guest id", "error", err)
		}
	}

	token, err := tokens.Generate(id)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}

	fmt.Printf("user_id=%d\ntoken=%s\n", id, token)
}
