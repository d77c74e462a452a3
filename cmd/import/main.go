// Command import copies the CSV dataset into PostgreSQL so the server can run
// with DATASET_SOURCE=postgres.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"carintel/internal/config"
	"carintel/internal/logger"
	"carintel/internal/model"
	"carintel/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var (
		dataDir = flag.String("data-dir", cfg.Dataset.Dir, "Directory holding the CSV partitions, car_rankings.csv and last_updated.txt")
		dsn     = flag.String("dsn", cfg.GetPostgreSQLDSN(), "PostgreSQL connection string")
		dryRun  = flag.Bool("dry-run", false, "Read the CSV files and report counts without writing")
	)
	flag.Parse()

	logg := logger.Must(cfg.Logging.Level)
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataset, err := repository.NewCSVLoader(*dataDir, logg).Load(ctx)
	if err != nil {
		logg.Fatal("Failed to read CSV dataset", zap.String("dir", *dataDir), zap.Error(err))
	}
	logg.Info("CSV dataset read",
		zap.Any("records", dataset.Size()),
		zap.Int("rankings", len(dataset.Rankings())),
	)

	if *dryRun {
		logg.Info("Dry run, nothing written")
		return
	}

	repo, err := repository.NewPostgresRepository(*dsn, cfg.PostgreSQL.MaxConnections, cfg.PostgreSQL.MaxIdleConnections)
	if err != nil {
		logg.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		logg.Fatal("Failed to create schema", zap.Error(err))
	}

	failed := 0
	for _, vt := range model.VehicleTypes {
		p, ok := dataset.Partition(vt)
		if !ok {
			logg.Warn("Partition missing, table left unchanged", zap.String("vehicle_type", string(vt)))
			continue
		}
		success, errs := repo.ReplaceVehicles(ctx, vt, p.Records)
		failed += len(errs)
		logImport(logg, string(vt), success, errs)
	}

	success, errs := repo.ReplaceRankings(ctx, dataset.Rankings())
	failed += len(errs)
	logImport(logg, "rankings", success, errs)

	if err := repo.SetLastUpdated(ctx, dataset.LastUpdated()); err != nil {
		logg.Fatal("Failed to store last updated", zap.Error(err))
	}

	if failed > 0 {
		logg.Error("Import finished with errors", zap.Int("failed", failed))
		os.Exit(1)
	}
	logg.Info("✅ Import finished")
}

func logImport(logg *zap.Logger, table string, success int, errs []string) {
	if len(errs) > 0 {
		logg.Warn("Rows rejected",
			zap.String("table", table),
			zap.Int("imported", success),
			zap.Strings("errors", errs),
		)
		return
	}
	logg.Info("Rows imported", zap.String("table", table), zap.Int("imported", success))
}
