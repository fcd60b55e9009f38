package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  backend: bigquery
  project: my-project
  dataset: finance
mailbox:
  dir: /var/mail/drop
exchange:
  page_size: 100
subscriptions:
  - origin: CURSOR
    description: Cursor subscription
    amount: "20.00"
    currency: USD
    day_of_month: 5
notion:
  token: secret
  database_id: db-1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bigquery", cfg.Storage.Backend)
	assert.Equal(t, "my-project", cfg.Storage.Project)
	assert.Equal(t, "/var/mail/drop", cfg.Mailbox.Dir)
	assert.Equal(t, 100, cfg.Exchange.PageSize)
	assert.Equal(t, "0 8 * * *", cfg.Mailbox.Cron, "default cron applied")
	assert.Equal(t, "SELL", cfg.Exchange.TradeType, "default trade type applied")

	require.Len(t, cfg.Subscriptions, 1)
	assert.Equal(t, "CURSOR", cfg.Subscriptions[0].Origin)
	assert.Equal(t, 5, cfg.Subscriptions[0].DayOfMonth)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bigquery without project",
			yaml: "storage:\n  backend: bigquery\n",
		},
		{
			name: "unknown backend",
			yaml: "storage:\n  backend: dynamo\n",
		},
		{
			name: "subscription without origin",
			yaml: "subscriptions:\n  - amount: \"5.00\"\n    currency: USD\n    day_of_month: 3\n",
		},
		{
			name: "subscription day out of range",
			yaml: "subscriptions:\n  - origin: X\n    day_of_month: 31\n",
		},
		{
			name: "notion token without database",
			yaml: "notion:\n  token: secret\n",
		},
		{
			name: "exchange key without secret",
			yaml: "exchange:\n  api_key: key\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, Save(path, Default()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 50, cfg.Exchange.PageSize)
}
