// Package record holds the shared result-row representation returned
// by every conn fetch/cursor/copy-out operation.
package record

import "pgnative/types"

// ColumnDescriptor describes one column of a result set, decoded from a
// RowDescription message.
type ColumnDescriptor struct {
	Name         string
	TableOID     int32
	ColumnAttNum int16
	TypeOID      types.OID
	TypeSize     int16
	TypeModifier int32
	Format       types.Format
}

// Record is one decoded result row. Values are in column-description
// order and share the Columns slice across every Record produced by the
// same query, so a large result set does not repeat the column metadata
// per row.
type Record struct {
	Columns []ColumnDescriptor
	Values  []any
}

// Get returns the value of the named column, or (nil, false) if no
// column by that name exists in this record.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c.Name == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// At returns the value at the given zero-based column index.
func (r Record) At(i int) any {
	if i < 0 || i >= len(r.Values) {
		return nil
	}
	return r.Values[i]
}
