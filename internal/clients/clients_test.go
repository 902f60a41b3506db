package clients

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/alertledger/internal/application/pipeline"
	"github.com/eshaffer321/alertledger/internal/application/service"
	"github.com/eshaffer321/alertledger/internal/domain/message"
	"github.com/eshaffer321/alertledger/internal/infrastructure/config"
	"github.com/eshaffer321/alertledger/internal/infrastructure/logging"
	"github.com/eshaffer321/alertledger/internal/infrastructure/rulestore"
	"github.com/eshaffer321/alertledger/internal/infrastructure/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Pipeline: config.PipelineConfig{Timezone: "UTC", UnmatchedPolicy: "review"},
		Storage:  config.StorageConfig{DatabasePath: filepath.Join(t.TempDir(), "test.db")},
	}
}

func TestNewClients_Success(t *testing.T) {
	// Arrange
	cfg := testConfig(t)

	// Act
	clients, err := NewClients(cfg, logging.Discard(), Options{})

	// Assert
	require.NoError(t, err)
	defer clients.Close()
	assert.NotNil(t, clients.Storage)
	assert.NotNil(t, clients.Ingest)
	assert.IsType(t, rulestore.EmbeddedSource{}, clients.Rules)

	result, err := clients.Ingest.Ingest(context.Background(), service.IngestRequest{
		Messages: []message.Body{{Text: "Prime Visa: You made a $75.96 transaction with COSTCO WHSE #1696 on Nov 12, 2025 at 7:40 PM ET."}},
		Source:   service.SourceCLI,
	})
	require.NoError(t, err)
	assert.False(t, result.DryRun)

	run, err := clients.Storage.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.RunStatusCompleted, run.Status)
}

func TestNewClients_NoStorage(t *testing.T) {
	// Arrange
	cfg := testConfig(t)

	// Act
	clients, err := NewClients(cfg, logging.Discard(), Options{NoStorage: true})

	// Assert
	require.NoError(t, err)
	assert.Nil(t, clients.Storage)
	assert.NoError(t, clients.Close())

	result, err := clients.Ingest.Ingest(context.Background(), service.IngestRequest{
		Messages: []message.Body{{Text: "hello"}},
	})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
}

func TestNewClients_FileRules(t *testing.T) {
	// Arrange
	cfg := testConfig(t)
	cfg.Rules.Path = "rules.yaml"

	// Act
	clients, err := NewClients(cfg, logging.Discard(), Options{NoStorage: true})

	// Assert
	require.NoError(t, err)
	assert.IsType(t, &rulestore.FileSource{}, clients.Rules)
}

func TestNewClients_InvalidConfig(t *testing.T) {
	// Arrange
	cfg := testConfig(t)
	cfg.Pipeline.UnmatchedPolicy = "ignore"

	// Act
	_, err := NewClients(cfg, logging.Discard(), Options{NoStorage: true})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestPipelineOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Timezone = "America/Los_Angeles"
	cfg.Pipeline.UnmatchedPolicy = "drop"
	cfg.Accounts = config.AccountsConfig{
		Enabled: true,
		Primary: "alex",
		Holders: []config.HolderConfig{
			{Name: "sam", Markers: []string{"ending in 0569"}},
			{Name: "alex", Markers: []string{"(8385)"}},
		},
	}

	opts, err := PipelineOptions(cfg, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, pipeline.UnmatchedDrop, opts.Unmatched)
	assert.Equal(t, "America/Los_Angeles", opts.Location.String())
	require.NotNil(t, opts.Router)
	assert.True(t, opts.Router.Enabled())
	assert.Equal(t, "alex", opts.Router.DefaultChannel())
	assert.Equal(t, "sam", opts.Router.Route("card ending in 0569"))

	// the engine clock stays unset so it follows the wall clock
	assert.Nil(t, opts.Now)
}
