// pkg/artifact/csv.go
package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// Writer persists intermediate tables as CSV audit artifacts. The merged
// record set is snapshotted before cleaning so a failed run can be
// inspected; the snapshot is a collaborator side effect, not a
// correctness requirement of the merge.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates an artifact writer rooted at dir.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if dir == "" {
		return nil, errors.New("artifact directory cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// WriteTable writes the table as <dir>/<name>.csv with a header row.
// Nil cells are written as empty strings.
func (w *Writer) WriteTable(table *model.Table) (string, error) {
	if table == nil {
		return "", errors.New("table cannot be nil")
	}

	path := filepath.Join(w.dir, table.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(table.Columns); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = model.FormatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush artifact: %w", err)
	}

	w.logger.Info("Wrote audit artifact",
		zap.String("path", path),
		zap.Int("rows", table.NumRows()))
	return path, nil
}
