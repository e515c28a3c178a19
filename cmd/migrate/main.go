package main

import (
	"flag"
	"fmt"
	"os"

	"rps_webapp/internal/logger"
	"rps_webapp/internal/migrations"
)

func main() {
	down := flag.Bool("down", false, "roll back one migration")
	status := flag.Bool("status", false, "print the current version and exit")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), false)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	m, err := migrations.New(dsn, logger.Component("migrate"))
	if err != nil {
		logger.Fatal("open migrations", "error", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("close migrator", "error", err)
		}
	}()

	switch {
	case *status:
		v, dirty, err := m.Version()
		if err != nil {
			fmt.Println("version: none")
			return
		}
		fmt.Printf("version: %d dirty: %v\n", v, dirty)
	case *down:
		if err := m.Down(); err != nil {
			logger.Fatal("migrate down", "error", err)
		}
		fmt.Println("rolled back one version")
	default:
		if err := m.Up(); err != nil {
			logger.Fatal("migrate up", "error", err)
		}
		fmt.Println("schema up to date")
	}
}
