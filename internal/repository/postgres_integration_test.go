//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"carintel/internal/model"
)

func TestPostgresRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("car_intel"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewPostgresRepository(dsn, 4, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.EnsureSchema(ctx))

	lastUpdated, err := repo.LastUpdated(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultLastUpdated, lastUpdated)

	city, hwy := 9.0, 6.5
	class := "SUV: Small"
	records := []model.VehicleRecord{
		{ModelYear: 2024, Make: "Toyota", VehicleClass: &class, Model: "RAV4", CityLPer100Km: &city, HighwayLPer100Km: &hwy},
		{ModelYear: 2024, Make: "Toyota", Model: "RAV4"},
	}
	n, errs := repo.ReplaceVehicles(ctx, model.VehicleConventional, records)
	assert.Empty(t, errs)
	assert.Equal(t, 2, n)

	source := "MotorTrend"
	n, errs = repo.ReplaceRankings(ctx, []model.RankingEntry{
		{Year: 2024, Category: "Best SUV", Rank: 1, Model: "RAV4", Manufacturer: "Toyota", Source: &source, Rationale: "Solid"},
	})
	assert.Empty(t, errs)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.SetLastUpdated(ctx, "Data Last updated: 2025-02-01"))

	ds, err := repo.Load(ctx)
	require.NoError(t, err)

	p, ok := ds.Partition(model.VehicleConventional)
	require.True(t, ok)
	require.Len(t, p.Records, 2)
	assert.Equal(t, 9.0, *p.Records[0].CityLPer100Km, "insertion order keeps the first row canonical")
	assert.Nil(t, p.Records[1].VehicleClass)
	assert.Equal(t, "Data Last updated: 2025-02-01", ds.LastUpdated())
	require.Len(t, ds.Rankings(), 1)
	assert.Equal(t, "MotorTrend", *ds.Rankings()[0].Source)

	// replacing a partition drops its previous rows
	n, errs = repo.ReplaceVehicles(ctx, model.VehicleConventional, records[:1])
	assert.Empty(t, errs)
	assert.Equal(t, 1, n)
}
