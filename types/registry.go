package types

import "sync"

// Kind tags the structural shape of a Codec, per spec.md's TypeCodec
// data model: dynamic dispatch on OID is replaced with a static, typed
// registry indexed by OID and tagged by kind, so composite/array/range
// codecs can recurse through their element OID rather than owning their
// element codec directly (spec.md §9, "cyclic type graphs").
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindComposite
	KindRange
	KindEnum
	KindDomain
)

// EncodeFunc renders a Go value into the wire representation for the
// given format. It never mutates v.
type EncodeFunc func(v any, format Format) ([]byte, error)

// DecodeFunc parses wire bytes for the given format back into a Go
// value. data is nil for SQL NULL and decoders must handle that case by
// returning (nil, nil).
type DecodeFunc func(data []byte, format Format) (any, error)

// CompositeField describes one field of a composite (row) type,
// resolved via introspection.
type CompositeField struct {
	Name string
	OID  OID
}

// Codec is the registry's unit of registration: everything needed to
// move a value of a given OID across the wire in either direction.
// Composite/Array/Range codecs recurse through ElemOID/Fields rather
// than embedding a child Codec, so a lookup always goes back through the
// registry — this is what makes cyclic type graphs (a composite that
// refers to itself through a domain) representable without infinite
// recursion at registration time.
type Codec struct {
	OID    OID
	Kind   Kind
	Name   string
	Encode EncodeFunc
	Decode DecodeFunc

	// PreferredFormat is what Bind should ask for when no caller
	// override is given. Codecs without a binary implementation set
	// this to FormatText.
	PreferredFormat Format

	// ElemOID is the element type for Array and Range kinds.
	ElemOID OID
	// Fields is the ordered field list for Composite kinds.
	Fields []CompositeField
	// Labels is the ordered label list for Enum kinds.
	Labels []string
	// BaseOID is the underlying type for Domain kinds.
	BaseOID OID
}

// Registry maps OID to Codec. Lookups fall through to a parent registry
// when set, so a per-connection Registry can override or add to the
// process-wide default without mutating it — the copy-on-write layering
// spec.md §5 and §9 require ("the type codec registry is copy-on-write
// per connection").
type Registry struct {
	mu     sync.RWMutex
	codecs map[OID]*Codec
	byName map[string]*Codec
	parent *Registry
}

// NewRegistry creates an empty registry layered over parent. parent may
// be nil to create a root registry (used once, for the process-wide
// default).
func NewRegistry(parent *Registry) *Registry {
	return &Registry{
		codecs: make(map[OID]*Codec),
		byName: make(map[string]*Codec),
		parent: parent,
	}
}

// Register adds or replaces a codec in this registry layer. It never
// touches the parent, giving connection-local overrides copy-on-write
// semantics: registering here shadows the default without mutating it.
func (r *Registry) Register(c *Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.OID] = c
	if c.Name != "" {
		r.byName[c.Name] = c
	}
}

// Lookup finds a codec by OID, checking this layer before falling
// through to the parent.
func (r *Registry) Lookup(oid OID) (*Codec, bool) {
	r.mu.RLock()
	c, ok := r.codecs[oid]
	r.mu.RUnlock()
	if ok {
		return c, true
	}
	if r.parent != nil {
		return r.parent.Lookup(oid)
	}
	return nil, false
}

// LookupByName finds a codec by its bare type name, checking this layer
// before falling through to the parent. Used to resolve
// (schema, type_name) registrations at introspection time.
func (r *Registry) LookupByName(name string) (*Codec, bool) {
	r.mu.RLock()
	c, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		return c, true
	}
	if r.parent != nil {
		return r.parent.LookupByName(name)
	}
	return nil, false
}

// Fork returns a new Registry layered over r, for per-connection
// overrides. Registering into the fork never mutates r.
func (r *Registry) Fork() *Registry {
	return NewRegistry(r)
}

var defaultRegistry = buildDefaultRegistry()

// Default returns the process-wide, read-mostly registry, built once at
// package initialization, that every connection layers its own overrides on top of.
func Default() *Registry {
	return defaultRegistry
}
