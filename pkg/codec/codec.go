// Package codec provides payload codecs for producers that ship structured
// data through the transport. The transport itself treats payloads as
// opaque bytes; these exist so collaborators on both ends agree on an
// encoding without the transport knowing about it.
package codec

// Codec marshals typed payloads deterministically.
type Codec interface {
    ContentType() string
    Marshal(v any) ([]byte, error)
    Unmarshal(data []byte, v any) error
}

// Content type names carried out of band (e.g. in an extended-fields
// payload prefix); the wire header does not serialize them.
const (
    ContentUnknown = "application/octet-stream"
    ContentJSON    = "application/json"
    ContentCBOR    = "application/cbor"
)

// Registry maps content types to codecs.
type Registry struct{ byType map[string]Codec }

// NewRegistry constructs a registry preloaded with JSON. CBOR carries an
// initialization error path, so it is added explicitly via Register(CBOR()).
func NewRegistry() *Registry {
    r := &Registry{byType: make(map[string]Codec)}
    r.Register(JSON())
    return r
}

// Register adds a codec.
func (r *Registry) Register(c Codec) { r.byType[c.ContentType()] = c }

// Get returns a codec by content type, or nil.
func (r *Registry) Get(contentType string) Codec { return r.byType[contentType] }
