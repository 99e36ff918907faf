package postgres

// SQL queries for the analytics_events table.
// Every read orders by ingest_seq so callers see ingestion order.

const (
	// querySaveEvent inserts an event keyed by its id.
	// RETURNING retrieves the generated ingest_seq.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveEvent = `
		INSERT INTO analytics_events (
			id, type, category, user_id, session_id,
			occurred_at, properties, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
		RETURNING ingest_seq
	`

	// queryRetrieveRange fetches events with start <= occurred_at <= end.
	queryRetrieveRange = `
		SELECT
			id, type, category, user_id, session_id,
			occurred_at, properties, metadata, ingest_seq
		FROM analytics_events
		WHERE occurred_at >= $1
		  AND occurred_at <= $2
		ORDER BY ingest_seq ASC
	`

	queryRetrieveByUser = `
		SELECT
			id, type, category, user_id, session_id,
			occurred_at, properties, metadata, ingest_seq
		FROM analytics_events
		WHERE user_id = $1
		ORDER BY ingest_seq ASC
	`

	queryRetrieveAll = `
		SELECT
			id, type, category, user_id, session_id,
			occurred_at, properties, metadata, ingest_seq
		FROM analytics_events
		ORDER BY ingest_seq ASC
	`

	queryDeleteBefore = `
		DELETE FROM analytics_events
		WHERE occurred_at < $1
	`

	queryCounts = `
		SELECT COUNT(*), COUNT(DISTINCT user_id)
		FROM analytics_events
	`
)
