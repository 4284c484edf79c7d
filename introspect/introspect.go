// Package introspect synthesizes type codecs for OIDs the static
// registry in package types has never seen — user-defined enums,
// composites, ranges, and domains — by querying the server's own
// pg_catalog tables, the same tables psql and every other driver walk
// to describe a type it doesn't recognize.
package introspect

import (
	"context"
	"fmt"

	"pgnative/record"
	"pgnative/types"
)

// Querier is the minimal query surface introspection needs. It is
// defined here rather than imported from package conn so this package
// never depends on conn; *conn.Connection satisfies it structurally.
type Querier interface {
	Fetch(ctx context.Context, sql string, args ...any) ([]record.Record, error)
}

const typeQuery = `
select typname, typtype, typelem, typbasetype, typrelid
from pg_catalog.pg_type
where oid = $1`

const attributeQuery = `
select a.attname, a.atttypid
from pg_catalog.pg_attribute a
where a.attrelid = $1 and a.attnum > 0 and not a.attisdropped
order by a.attnum`

const enumLabelQuery = `
select enumlabel
from pg_catalog.pg_enum
where enumtypid = $1
order by enumsortorder`

const rangeSubtypeQuery = `
select rngsubtype
from pg_catalog.pg_range
where rngtypid = $1`

// Resolve registers a codec for oid into reg by querying the catalog,
// recursing through element/base/subtype OIDs as needed. It is a
// no-op if reg already has a codec for oid (from the default registry,
// a parent layer, or a previous call).
func Resolve(ctx context.Context, q Querier, reg *types.Registry, oid types.OID) error {
	if _, ok := reg.Lookup(oid); ok {
		return nil
	}

	rows, err := q.Fetch(ctx, typeQuery, uint32(oid))
	if err != nil {
		return fmt.Errorf("introspect: look up type %d: %w", oid, err)
	}
	if len(rows) == 0 {
		return &types.UnknownOIDError{OID: oid}
	}
	row := rows[0]
	name := asString(row.At(0))
	typtype := asString(row.At(1))
	typelem := asOID(row.At(2))
	typbasetype := asOID(row.At(3))
	typrelid := asOID(row.At(4))

	switch typtype {
	case "e":
		return resolveEnum(ctx, q, reg, oid, name)
	case "c":
		return resolveComposite(ctx, q, reg, oid, name, typrelid)
	case "r":
		return resolveRange(ctx, q, reg, oid, name)
	case "d":
		if err := Resolve(ctx, q, reg, typbasetype); err != nil {
			return err
		}
		types.RegisterDomainCodec(reg, oid, typbasetype, name)
		return nil
	case "b":
		if typelem != 0 {
			if err := Resolve(ctx, q, reg, typelem); err != nil {
				return err
			}
			types.RegisterArrayCodec(reg, oid, typelem, name)
			return nil
		}
		return resolveRange(ctx, q, reg, oid, name)
	default:
		return &types.UnknownOIDError{OID: oid}
	}
}

func resolveEnum(ctx context.Context, q Querier, reg *types.Registry, oid types.OID, name string) error {
	rows, err := q.Fetch(ctx, enumLabelQuery, uint32(oid))
	if err != nil {
		return fmt.Errorf("introspect: look up enum labels for %d: %w", oid, err)
	}
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = asString(r.At(0))
	}
	types.RegisterEnumCodec(reg, oid, name, labels)
	return nil
}

func resolveComposite(ctx context.Context, q Querier, reg *types.Registry, oid types.OID, name string, relid types.OID) error {
	rows, err := q.Fetch(ctx, attributeQuery, uint32(relid))
	if err != nil {
		return fmt.Errorf("introspect: look up composite fields for %d: %w", oid, err)
	}
	fields := make([]types.CompositeField, len(rows))
	for i, r := range rows {
		fieldOID := asOID(r.At(1))
		if err := Resolve(ctx, q, reg, fieldOID); err != nil {
			return err
		}
		fields[i] = types.CompositeField{Name: asString(r.At(0)), OID: fieldOID}
	}
	types.RegisterCompositeCodec(reg, oid, name, fields)
	return nil
}

func resolveRange(ctx context.Context, q Querier, reg *types.Registry, oid types.OID, name string) error {
	rows, err := q.Fetch(ctx, rangeSubtypeQuery, uint32(oid))
	if err != nil {
		return fmt.Errorf("introspect: look up range subtype for %d: %w", oid, err)
	}
	if len(rows) == 0 {
		return &types.UnknownOIDError{OID: oid}
	}
	subtype := asOID(rows[0].At(0))
	if err := Resolve(ctx, q, reg, subtype); err != nil {
		return err
	}
	types.RegisterRangeCodec(reg, oid, subtype, name)
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asOID(v any) types.OID {
	switch n := v.(type) {
	case int64:
		return types.OID(n)
	case int32:
		return types.OID(n)
	case uint32:
		return types.OID(n)
	default:
		return 0
	}
}
