package introspect

import (
	"context"
	"testing"

	"pgnative/record"
	"pgnative/types"
)

// fakeQuerier answers a fixed script of Fetch calls, keyed by the SQL
// text, ignoring bound arguments — enough to exercise Resolve's catalog
// walk without a live server.
type fakeQuerier struct {
	byQuery map[string][]record.Record
}

func (f *fakeQuerier) Fetch(_ context.Context, sql string, _ ...any) ([]record.Record, error) {
	return f.byQuery[sql], nil
}

func newRow(values ...any) record.Record {
	cols := make([]record.ColumnDescriptor, len(values))
	for i := range cols {
		cols[i] = record.ColumnDescriptor{Name: "c"}
	}
	return record.Record{Columns: cols, Values: values}
}

func TestResolve_Enum(t *testing.T) {
	const enumOID types.OID = 60001
	q := &fakeQuerier{byQuery: map[string][]record.Record{
		typeQuery:      {newRow("mood", "e", int64(0), int64(0), int64(0))},
		enumLabelQuery: {newRow("sad"), newRow("happy")},
	}}
	reg := types.Default().Fork()
	if err := Resolve(context.Background(), q, reg, enumOID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	codec, ok := reg.Lookup(enumOID)
	if !ok {
		t.Fatalf("enum codec not registered")
	}
	if _, err := codec.Encode("happy", types.FormatText); err != nil {
		t.Fatalf("Encode(happy): %v", err)
	}
}

func TestResolve_Domain_ResolvesBaseFirst(t *testing.T) {
	const domainOID types.OID = 60002
	q := &fakeQuerier{byQuery: map[string][]record.Record{
		typeQuery: {newRow("positive_int", "d", int64(0), int64(types.OIDInt4), int64(0))},
	}}
	reg := types.Default().Fork()
	if err := Resolve(context.Background(), q, reg, domainOID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := reg.Lookup(domainOID); !ok {
		t.Fatalf("domain codec not registered")
	}
}

func TestResolve_AlreadyRegisteredIsNoop(t *testing.T) {
	q := &fakeQuerier{}
	reg := types.Default().Fork()
	if err := Resolve(context.Background(), q, reg, types.OIDInt4); err != nil {
		t.Fatalf("Resolve on a built-in OID: %v", err)
	}
}

func TestCache_DeduplicatesResolve(t *testing.T) {
	const enumOID types.OID = 60003
	q := &fakeQuerier{byQuery: map[string][]record.Record{
		typeQuery:      {newRow("mood2", "e", int64(0), int64(0), int64(0))},
		enumLabelQuery: {newRow("ok")},
	}}
	reg := types.Default().Fork()
	cache := NewCache()
	for i := 0; i < 3; i++ {
		if err := cache.Resolve(context.Background(), q, reg, enumOID); err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
	}
	if _, ok := reg.Lookup(enumOID); !ok {
		t.Fatalf("enum codec not registered after repeated Resolve calls")
	}
}
