package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_UpDownPairs(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %q", n)
		}
	}
	require.Equal(t, ups, downs)
}

func TestMigrationFiles_CreateAnalyticsEvents(t *testing.T) {
	body, err := fs.ReadFile(MigrationFiles, "000001_create_analytics_events.up.sql")
	require.NoError(t, err)

	sql := string(body)
	for _, col := range []string{"ingest_seq", "id", "type", "category", "user_id", "session_id", "occurred_at", "properties", "metadata"} {
		require.Contains(t, sql, col)
	}
}
