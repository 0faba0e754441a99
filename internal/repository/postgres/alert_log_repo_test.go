package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQueryDefaults(t *testing.T) {
	query, args, err := listQuery(AlertFilter{})

	require.NoError(t, err)
	assert.Equal(t, "SELECT record_id, name, label, days_left, sent_at, payload FROM alert_log ORDER BY sent_at DESC LIMIT 50", query)
	assert.Empty(t, args)
}

func TestListQueryFilters(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := listQuery(AlertFilter{RecordID: "abc", Since: since, Limit: 5})

	require.NoError(t, err)
	assert.Contains(t, query, "WHERE record_id = $1 AND sent_at >= $2")
	assert.Contains(t, query, "LIMIT 5")
	assert.Equal(t, []any{"abc", since}, args)
}
