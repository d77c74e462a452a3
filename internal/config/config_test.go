package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Dataset.Source)
	assert.Equal(t, "data", cfg.Dataset.Dir)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.PriceModel)
	assert.Equal(t, 0.7, cfg.LLM.ChatTemperature)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, 15000.0, cfg.Estimator.DefaultAnnualDistanceKm)
	assert.Equal(t, 1.80, cfg.Estimator.DefaultFuelPrice)
	assert.Equal(t, 0.14, cfg.Estimator.DefaultElectricityPrice)
	assert.Equal(t, 30*time.Second, cfg.Advisory.CallTimeout)
	assert.Equal(t, "memory", cfg.Chat.Store)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_BASE", "http://localhost:9999/v1/")
	t.Setenv("DATASET_SOURCE", "POSTGRES")
	t.Setenv("ADVISORY_CALL_TIMEOUT", "5s")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "http://localhost:9999/v1", cfg.LLM.APIBase)
	assert.Equal(t, "postgres", cfg.Dataset.Source)
	assert.Equal(t, 5*time.Second, cfg.Advisory.CallTimeout)
	assert.Equal(t, 8080, cfg.Server.Port, "invalid integers fall back to the default")
}

func TestLoad_InvalidEnumerations(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "dataset source", key: "DATASET_SOURCE", val: "excel"},
		{name: "llm provider", key: "LLM_PROVIDER", val: "carrier-pigeon"},
		{name: "chat store", key: "CHAT_STORE", val: "disk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host:     "db",
		Port:     5433,
		User:     "u",
		Password: "p",
		Database: "cars",
		SSLMode:  "disable",
	}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=cars sslmode=disable", cfg.GetPostgreSQLDSN())

	cfg.PostgreSQL.DSN = "postgres://u:p@db/cars"
	assert.Equal(t, "postgres://u:p@db/cars", cfg.GetPostgreSQLDSN())
}
