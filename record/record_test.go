package record

import (
	"testing"

	"pgnative/types"
)

func TestRecord_Get(t *testing.T) {
	cols := []ColumnDescriptor{
		{Name: "id", TypeOID: types.OIDInt4},
		{Name: "name", TypeOID: types.OIDText},
	}
	r := Record{Columns: cols, Values: []any{int32(1), "alice"}}

	v, ok := r.Get("name")
	if !ok || v != "alice" {
		t.Fatalf("Get(name) = %v, %v; want alice, true", v, ok)
	}

	if _, ok := r.Get("missing"); ok {
		t.Fatalf("Get(missing) reported ok=true")
	}
}

func TestRecord_At(t *testing.T) {
	r := Record{
		Columns: []ColumnDescriptor{{Name: "id"}},
		Values:  []any{int32(42)},
	}

	if got := r.At(0); got != int32(42) {
		t.Fatalf("At(0) = %v, want 42", got)
	}
	if got := r.At(5); got != nil {
		t.Fatalf("At(5) = %v, want nil for out-of-range index", got)
	}
	if got := r.At(-1); got != nil {
		t.Fatalf("At(-1) = %v, want nil for negative index", got)
	}
}
