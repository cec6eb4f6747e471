package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"cabanas/internal/config"
	"cabanas/internal/database"
	"cabanas/internal/domain"
	"cabanas/internal/pgstore"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		cabinsPath = flag.String("cabins", "configs/cabins.yaml", "path to cabins.yaml")
		dbPath     = flag.String("db", "./data/cabanas.db", "path to sqlite db")
		pgDSN      = flag.String("pg", "", "postgres DSN; overrides -db when set")
	)
	flag.Parse()

	cabins, err := config.LoadCabins(*cabinsPath)
	if err != nil {
		return err
	}
	if len(cabins) == 0 {
		return fmt.Errorf("no cabins in yaml")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store domain.Repository
	if *pgDSN != "" {
		store, err = pgstore.New(ctx, *pgDSN, &logger)
	} else {
		store, err = database.NewDB(*dbPath, &logger)
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	created := 0
	updated := 0
	for i := range cabins {
		c := &cabins[i]
		_, err = store.GetCabin(ctx, c.ID)
		switch {
		case err == nil:
			updated++
		case errors.Is(err, domain.ErrCabinNotFound):
			created++
		default:
			return fmt.Errorf("get %s: %w", c.ID, err)
		}
		if err = store.UpsertCabin(ctx, c); err != nil {
			return fmt.Errorf("upsert %s: %w", c.ID, err)
		}
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
