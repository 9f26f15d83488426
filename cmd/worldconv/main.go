// worldconv imports a legacy worlds.yml into the worlds table.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/buildsystem/server/internal/config"
	"github.com/buildsystem/server/internal/data"
	"github.com/buildsystem/server/internal/persist"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: worldconv <worlds.yml> [server.toml]")
		os.Exit(1)
	}
	cfgPath := "config/server.toml"
	if len(os.Args) > 2 {
		cfgPath = os.Args[2]
	}

	if err := run(os.Args[1], cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(worldsPath, cfgPath string) error {
	legacy, err := data.LoadLegacyWorlds(worldsPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log := zap.NewNop()
	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
		return err
	}

	repo := persist.NewWorldRepo(db)
	written, skipped := 0, 0
	for _, w := range legacy {
		existing, err := repo.Load(ctx, w.Name)
		if err != nil {
			return fmt.Errorf("load %s: %w", w.Name, err)
		}
		if existing != nil {
			skipped++
			continue
		}
		if err := repo.Save(ctx, w.Record()); err != nil {
			return fmt.Errorf("save %s: %w", w.Name, err)
		}
		written++
	}

	fmt.Printf("Wrote %d worlds from %s (%d already present)\n", written, worldsPath, skipped)
	return nil
}
