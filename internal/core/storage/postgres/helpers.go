package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

// marshalEventJSON marshals an event's properties and metadata to JSON.
// Nil properties are stored as an empty object.
func marshalEventJSON(event *v1.AnalyticsEvent) (propertiesJSON, metadataJSON []byte, err error) {
	props := event.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	propertiesJSON, err = json.Marshal(props)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal properties: %w", err)
	}

	metadataJSON, err = json.Marshal(event.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return propertiesJSON, metadataJSON, nil
}

// nullable maps an empty identifier to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an AnalyticsEvent.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.AnalyticsEvent, error) {
	var evt v1.AnalyticsEvent
	var userID, sessionID sql.NullString
	var propertiesJSON, metadataJSON []byte

	err := row.Scan(
		&evt.ID,
		&evt.Type,
		&evt.Category,
		&userID,
		&sessionID,
		&evt.Timestamp,
		&propertiesJSON,
		&metadataJSON,
		&evt.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.UserID = userID.String
	evt.SessionID = sessionID.String

	if err := json.Unmarshal(propertiesJSON, &evt.Properties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &evt.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &evt, nil
}

func scanEventRows(rows *sql.Rows) ([]*v1.AnalyticsEvent, error) {
	defer rows.Close()

	var events []*v1.AnalyticsEvent
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
