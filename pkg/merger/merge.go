// pkg/merger/merge.go
package merger

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/extract"
	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// Merger left-joins the eight normalized source tables into one wide record
// set. The join order is fixed; each join preserves every row already in
// the accumulated result.
type Merger struct {
	logger *zap.Logger
}

// NewMerger creates a new Merger.
func NewMerger(logger *zap.Logger) (*Merger, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Merger{logger: logger}, nil
}

// Merge runs the fixed left-join sequence:
// orders -> customers -> payments -> reviews -> items -> products ->
// category translation -> sellers. The result's grain is one row per
// (order, payment line, review, item) combination; orders with no match on
// a joined table keep their row with nil columns.
func (m *Merger) Merge(raw *extract.RawTables) (*model.Table, error) {
	if raw == nil {
		return nil, errors.New("raw tables cannot be nil")
	}

	steps := []struct {
		right *model.Table
		on    string
	}{
		{raw.Customers, "customer_id"},
		{raw.OrderPayments, "order_id"},
		{raw.OrderReviews, "order_id"},
		{raw.OrderItems, "order_id"},
		{raw.Products, "product_id"},
		{raw.CategoryTranslation, "product_category_name"},
		{raw.Sellers, "seller_id"},
	}

	merged := raw.Orders
	if merged == nil {
		return nil, errors.New("orders table cannot be nil")
	}

	for _, step := range steps {
		if step.right == nil {
			return nil, errors.New("merge input table cannot be nil")
		}
		next, err := LeftJoin(merged, step.right, step.on)
		if err != nil {
			return nil, fmt.Errorf("join %s on %s: %w", step.right.Name, step.on, err)
		}
		m.logger.Debug("Joined table",
			zap.String("right", step.right.Name),
			zap.String("on", step.on),
			zap.Int("rows_before", merged.NumRows()),
			zap.Int("rows_after", next.NumRows()))
		merged = next
	}

	merged.Name = "merged"
	m.logger.Info("Merged source tables",
		zap.Int("rows", merged.NumRows()),
		zap.Int("columns", len(merged.Columns)))
	return merged, nil
}

// LeftJoin joins right onto left by equality on the named key column.
// Every left row survives: rows with no match keep nil cells for the
// right-hand columns, rows with several matches are repeated per match.
// When a right column name collides with one already present, the
// first-seen column keeps its name and the incoming duplicate is suffixed
// with the right table's name.
func LeftJoin(left, right *model.Table, on string) (*model.Table, error) {
	if err := left.RequireColumns(on); err != nil {
		return nil, err
	}
	if err := right.RequireColumns(on); err != nil {
		return nil, err
	}

	// Resolve column-name collisions before building rows
	existing := make(map[string]bool, len(left.Columns))
	for _, col := range left.Columns {
		existing[col] = true
	}
	rightCols := make([]string, 0, len(right.Columns))
	renamed := make(map[string]string)
	for _, col := range right.Columns {
		if col == on {
			continue
		}
		name := col
		if existing[name] {
			name = fmt.Sprintf("%s_%s", col, right.Name)
			renamed[col] = name
		}
		rightCols = append(rightCols, name)
		existing[name] = true
	}

	// Index right rows by join key; nil keys never match
	index := make(map[interface{}][]model.Row, right.NumRows())
	for _, row := range right.Rows {
		key := row[on]
		if key == nil {
			continue
		}
		index[key] = append(index[key], row)
	}

	out := model.NewTable(left.Name, append(append([]string(nil), left.Columns...), rightCols...)...)
	out.Rows = make([]model.Row, 0, left.NumRows())

	for _, leftRow := range left.Rows {
		matches := []model.Row(nil)
		if key := leftRow[on]; key != nil {
			matches = index[key]
		}

		if len(matches) == 0 {
			row := make(model.Row, len(out.Columns))
			for _, col := range left.Columns {
				row[col] = leftRow[col]
			}
			for _, col := range rightCols {
				row[col] = nil
			}
			out.AppendRow(row)
			continue
		}

		for _, match := range matches {
			row := make(model.Row, len(out.Columns))
			for _, col := range left.Columns {
				row[col] = leftRow[col]
			}
			for _, col := range right.Columns {
				if col == on {
					continue
				}
				name := col
				if alias, ok := renamed[col]; ok {
					name = alias
				}
				row[name] = match[col]
			}
			out.AppendRow(row)
		}
	}

	return out, nil
}
