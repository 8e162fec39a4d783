package pgstore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"s2klaunch/cli/internal/journal"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgsColumnOrder(t *testing.T) {
	id := uuid.New()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	args := Args(journal.Entry{
		CycleID:  id,
		At:       at,
		Mode:     "net",
		Strategy: "remote",
		Host:     "calc-01",
		Outcome:  journal.OutcomeFailed,
		Kind:     "remote_spawn_failed",
		Reason:   "cannot connect with remote computer",
		Elapsed:  1500 * time.Millisecond,
	})

	require.Len(t, args, strings.Count(insert, "$"))
	assert.Equal(t, id.String(), args[0])
	assert.Equal(t, at.UTC(), args[1])
	assert.Equal(t, "failed", args[5])
	assert.Equal(t, int64(1500), args[9])
	assert.Equal(t, false, args[10])
}

// TestStoreRoundTrip runs against a real database when S2KLAUNCH_TEST_JOURNAL_DSN is set.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("S2KLAUNCH_TEST_JOURNAL_DSN")
	if dsn == "" {
		t.Skip("S2KLAUNCH_TEST_JOURNAL_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record(ctx, journal.Entry{
		CycleID:  uuid.New(),
		At:       time.Now(),
		Mode:     "com",
		Strategy: "registry",
		Outcome:  journal.OutcomeReady,
		Version:  "23.3.0",
		Elapsed:  time.Second,
	}))
}
