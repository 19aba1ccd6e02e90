package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"

	"stablecircle/internal/config"
	"stablecircle/internal/db"
	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
	"stablecircle/internal/repository"
	"stablecircle/internal/service"
)

// import_legacy replays a browser export into the store. No tokens move:
// contributions keep their original rounds and transaction hashes.
func main() {
	file := flag.String("file", "", "path to the legacy JSON export")
	dryRun := flag.Bool("dry-run", false, "convert and validate without writing")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), false)
	if *file == "" {
		logger.Fatal("-file is required")
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("read export", "file", *file, "error", err)
	}
	var export domain.LegacyExport
	if err := json.Unmarshal(raw, &export); err != nil {
		logger.Fatal("decode export", "error", err)
	}

	byGroup := make(map[string][]domain.LegacyContribution)
	for _, c := range export.Contributions {
		byGroup[c.GroupID] = append(byGroup[c.GroupID], c)
	}

	var migrated []*domain.MigratedHub
	for _, g := range export.Groups {
		m, err := domain.MigrateGroup(g, export.Members, byGroup[g.ID])
		if err != nil {
			logger.Error("skipping group", "group_id", g.ID, "error", err)
			continue
		}
		migrated = append(migrated, m)
	}
	logger.Info("export converted", "groups", len(export.Groups), "hubs", len(migrated))
	if *dryRun {
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	pool := db.Connect(dsn)
	defer pool.Close()
	store := repository.NewPostgres(pool)

	ledgerCfg := config.DefaultLedger()
	audit := service.NewAuditService(store)
	users := service.NewUserService(store, ledgerCfg, audit, nil)
	hubs := service.NewHubService(store, users, ledgerCfg, audit, nil, nil)
	ledger := service.NewLedgerService(store, users, nil, ledgerCfg, 0, audit, nil, nil)

	ctx := context.Background()
	var imported, entries int
	for _, m := range migrated {
		if err := hubs.ImportHub(ctx, m.Hub); err != nil {
			if errors.Is(err, domain.ErrStorageConflict) {
				logger.Warn("hub already imported", "hub_id", m.Hub.ID, "error", err)
			} else {
				logger.Error("import hub failed", "hub_id", m.Hub.ID, "error", err)
				continue
			}
		} else {
			imported++
		}
		for _, c := range m.Contributions {
			res, err := ledger.ImportContribution(ctx, c)
			if err != nil {
				logger.Error("import contribution failed", "id", c.ID, "hub_id", c.HubID, "error", err)
				continue
			}
			if !res.Replayed {
				entries++
			}
		}
	}
	logger.Info("import finished", "hubs", imported, "contributions", entries)
}
