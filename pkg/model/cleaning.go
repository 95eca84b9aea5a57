// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation records a single repair applied to the merged record set.
// The batch of operations from one run is handed to the warehouse loader as
// the cleaning_audit table.
type CleaningOperation struct {
	TableName     string      // Table the repair was applied to
	ColumnName    string      // Column that was filled or renamed
	OriginalValue interface{} // Original value (nil for missing)
	NewValue      string      // Value after the repair, rendered as text
	RowIdentifier string      // order_id of the repaired row
	Operation     string      // Repair kind (e.g. "placeholder_fill", "median_fill")
	Reason        string      // Why the repair fired (e.g. "missing_value")
	CleanedAt     time.Time   // When the repair was applied
}

// FillReport summarizes one cleaning run: how many cells each policy step
// repaired and how many unrepairable rows were dropped.
type FillReport struct {
	FillsByColumn map[string]int
	RowsIn        int
	RowsOut       int
	RowsDropped   int
}
