package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-ledger/internal/logger"
)

func TestLogNotifier_WritesBatchSummary(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf)
	ctx := logger.WithContext(context.Background(), log)

	require.NoError(t, (&LogNotifier{}).NotifyBatch(ctx, sampleEvent()))

	out := buf.String()
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "email")
	assert.Contains(t, out, "120.50")
}
