package repositories

import (
	"database/sql"
	"fmt"
)

// sequenced lists the tables that have a companion <table>_sequence counter.
var sequenced = map[string]bool{
	"tracks": true,
}

// NextSequence increments and returns the insertion counter for table.
//
// The counter survives soft deletes and restores, so listing by sequence keeps
// the order in which the catalog first reported each track.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("no sequence for table %q", table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}
