package batch

import (
	"fmt"
	"slices"
)

// Batch is one staged extraction: an ordered set of named columns with a
// uniform row count. Column order is significant because it drives the COPY
// column list and the serialization order of staged files.
type Batch struct {
	columns []string
	rows    [][]any
}

func New(columns []string) (*Batch, error) {
	seen := make(map[string]bool, len(columns))
	for _, column := range columns {
		if column == "" {
			return nil, fmt.Errorf("column name cannot be empty")
		}

		if seen[column] {
			return nil, fmt.Errorf("duplicate column name: %q", column)
		}

		seen[column] = true
	}

	return &Batch{columns: slices.Clone(columns)}, nil
}

func (b *Batch) Columns() []string {
	return slices.Clone(b.columns)
}

func (b *Batch) NumRows() int {
	return len(b.rows)
}

func (b *Batch) Rows() [][]any {
	return b.rows
}

func (b *Batch) Append(row []any) error {
	if len(row) != len(b.columns) {
		return fmt.Errorf("row has %d values, batch has %d columns", len(row), len(b.columns))
	}

	b.rows = append(b.rows, row)
	return nil
}

func (b *Batch) columnIndex(name string) (int, error) {
	idx := slices.Index(b.columns, name)
	if idx == -1 {
		return -1, fmt.Errorf("column %q does not exist", name)
	}

	return idx, nil
}

// RenameColumns applies old -> new name mappings. Names not present in the
// mapping are left alone.
func (b *Batch) RenameColumns(mapping map[string]string) error {
	renamed := slices.Clone(b.columns)
	for oldName, newName := range mapping {
		idx, err := b.columnIndex(oldName)
		if err != nil {
			return err
		}

		renamed[idx] = newName
	}

	seen := make(map[string]bool, len(renamed))
	for _, column := range renamed {
		if seen[column] {
			return fmt.Errorf("rename produced duplicate column name: %q", column)
		}

		seen[column] = true
	}

	b.columns = renamed
	return nil
}

// TransformColumn rewrites every value in one column. Used for source-side
// cleaning before a batch is staged.
func (b *Batch) TransformColumn(name string, transform func(any) (any, error)) error {
	idx, err := b.columnIndex(name)
	if err != nil {
		return err
	}

	for rowIdx, row := range b.rows {
		value, err := transform(row[idx])
		if err != nil {
			return fmt.Errorf("failed to transform column %q row %d: %w", name, rowIdx, err)
		}

		b.rows[rowIdx][idx] = value
	}

	return nil
}

// RowAsMap is primarily used for NDJSON serialization of document batches.
func (b *Batch) RowAsMap(rowIdx int) map[string]any {
	object := make(map[string]any, len(b.columns))
	for colIdx, column := range b.columns {
		object[column] = b.rows[rowIdx][colIdx]
	}

	return object
}
