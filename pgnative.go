// Package pgnative is the top-level façade over dsn/conn/pool/types:
// parse a connection string, dial or pool connections, and register
// custom type codecs process-wide.
package pgnative

import (
	"context"

	"pgnative/conn"
	"pgnative/dsn"
	"pgnative/pool"
	"pgnative/types"
)

// Connect parses connString (URI or keyword/value form) and dials a
// single Connection.
func Connect(ctx context.Context, connString string) (*conn.Connection, error) {
	cfg, err := dsn.Parse(connString)
	if err != nil {
		return nil, err
	}
	return conn.Connect(ctx, cfg)
}

// NewPool parses connString and returns a bounded Pool. cfg.ConnConfig
// is overwritten with the parsed connection string; set cfg's other
// fields (MaxSize, MaxIdleTime, MaxLifetime, HealthCheck) as needed.
func NewPool(connString string, cfg pool.Config) (*pool.Pool, error) {
	connCfg, err := dsn.Parse(connString)
	if err != nil {
		return nil, err
	}
	cfg.ConnConfig = connCfg
	return pool.New(cfg), nil
}

// Register adds a custom codec to the process-wide default registry,
// making it available to every Connection created afterward.
func Register(oid types.OID, name string, format types.Format, encode types.EncodeFunc, decode types.DecodeFunc) {
	types.RegisterCodec(types.Default(), oid, name, format, encode, decode)
}

// RegisterJSON adds a JSON-shaped custom codec (handling jsonb's
// leading version byte automatically) to the process-wide default
// registry.
func RegisterJSON(oid types.OID, name string, serialize func(any) ([]byte, error), deserialize func([]byte) (any, error)) {
	types.RegisterJSONCodec(types.Default(), oid, name, serialize, deserialize)
}
