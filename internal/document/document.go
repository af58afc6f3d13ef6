// Package document loads the provisioning configuration document and
// dereferences paths inside it.
//
// The document is the JSON file that describes the HCN network, the HCN
// endpoint and the HCS compute system. hvprov treats it as an opaque tree:
// stages look up the few values they need (identities) and pass whole
// sub-trees through to the host as JSON text.
//
// Documents are parsed with CUE (JSON is valid CUE), which gives path lookup,
// kind checks and schema validation without decoding into Go structs.
package document

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/google/uuid"
)

var (
	// ErrMissingPath is returned when a dereferenced path does not exist.
	ErrMissingPath = errors.New("missing path")

	// ErrWrongKind is returned when a node exists but has the wrong shape.
	ErrWrongKind = errors.New("wrong kind")

	// ErrInvalidGUID is returned when an identity string does not parse.
	ErrInvalidGUID = errors.New("invalid GUID")
)

// Paths dereferenced by the provisioning stages.
var (
	NetworkPath       = []string{"HcnNetwork"}
	NetworkIDPath     = []string{"HcnNetwork", "ID"}
	EndpointPath      = []string{"HcnEndpoint"}
	ComputeSystemPath = []string{"HcsSystem"}
	EndpointIDPath    = []string{"HcsSystem", "VirtualMachine", "Devices", "NetworkAdapters", "default", "EndpointId"}
)

// PathError reports a failed lookup.
type PathError struct {
	Path string
	Err  error
	// Want and Got are set for ErrWrongKind.
	Want string
	Got  string
}

func (e *PathError) Error() string {
	if errors.Is(e.Err, ErrWrongKind) {
		return fmt.Sprintf("%s: %v: expected %s, got %s", e.Path, e.Err, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Document is a read-only configuration tree.
type Document struct {
	value  cue.Value
	source string
}

// LoadFromFile reads and parses a JSON document.
func LoadFromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromJSON(data, path)
}

// LoadFromJSON parses a JSON document. The root must be an object.
// source names the document in error messages.
func LoadFromJSON(data []byte, source string) (*Document, error) {
	if source == "" {
		source = "<input>"
	}

	expr, err := cuejson.Extract(source, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	v := cuecontext.New().BuildExpr(expr)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", source, err)
	}
	if k := v.Kind(); k != cue.StructKind {
		return nil, fmt.Errorf("%s: document root must be an object, got %s", source, kindName(k))
	}

	return &Document{value: v, source: source}, nil
}

// Empty returns a document with no keys. Every lookup on it fails with
// ErrMissingPath.
func Empty() *Document {
	return &Document{value: cuecontext.New().CompileString("{}"), source: "<empty>"}
}

// Source returns the name the document was loaded from.
func (d *Document) Source() string {
	return d.source
}

// lookup walks path one key at a time so that errors name the exact prefix
// that was missing or mistyped.
func (d *Document) lookup(path []string) (cue.Value, error) {
	v := d.value
	for i, key := range path {
		if k := v.Kind(); k != cue.StructKind {
			return cue.Value{}, &PathError{
				Path: joinPath(path[:i]),
				Err:  ErrWrongKind,
				Want: "object",
				Got:  kindName(k),
			}
		}

		v = v.LookupPath(cue.MakePath(cue.Str(key)))
		if !v.Exists() {
			return cue.Value{}, &PathError{Path: joinPath(path[:i+1]), Err: ErrMissingPath}
		}
	}
	return v, nil
}

// String returns the string at path.
func (d *Document) String(path ...string) (string, error) {
	v, err := d.lookup(path)
	if err != nil {
		return "", err
	}
	if k := v.Kind(); k != cue.StringKind {
		return "", &PathError{Path: joinPath(path), Err: ErrWrongKind, Want: "string", Got: kindName(k)}
	}
	return v.String()
}

// GUID parses the string at path as a GUID.
func (d *Document) GUID(path ...string) (uuid.UUID, error) {
	s, err := d.String(path...)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := ParseGUID(s)
	if err != nil {
		return uuid.Nil, &PathError{Path: joinPath(path), Err: err}
	}
	return id, nil
}

// Object returns the JSON text of the object at path.
func (d *Document) Object(path ...string) (string, error) {
	v, err := d.lookup(path)
	if err != nil {
		return "", err
	}
	if k := v.Kind(); k != cue.StructKind {
		return "", &PathError{Path: joinPath(path), Err: ErrWrongKind, Want: "object", Got: kindName(k)}
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("%s: failed to serialize: %w", joinPath(path), err)
	}
	return string(data), nil
}

// ParseGUID parses a GUID in the registry form the host accepts:
// xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx, optionally wrapped in braces. The nil
// GUID is rejected.
func ParseGUID(s string) (uuid.UUID, error) {
	text := s
	switch {
	case s == "":
		return uuid.Nil, fmt.Errorf("%w: empty string", ErrInvalidGUID)
	case len(s) == 38 && s[0] == '{' && s[37] == '}':
		text = s[1:37]
	case len(s) == 36:
	default:
		return uuid.Nil, fmt.Errorf("%w: %q: want xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx, optionally in braces", ErrInvalidGUID, s)
	}

	// uuid.Parse also takes the urn and brace-less 32 digit forms; the length
	// check above leaves it only the dashed form.
	id, err := uuid.Parse(text)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q: %v", ErrInvalidGUID, s, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %q is the nil GUID", ErrInvalidGUID, s)
	}
	return id, nil
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, ".")
}

func kindName(k cue.Kind) string {
	switch k {
	case cue.StructKind:
		return "object"
	case cue.ListKind:
		return "array"
	case cue.StringKind:
		return "string"
	case cue.NullKind:
		return "null"
	case cue.BoolKind:
		return "bool"
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		return "number"
	default:
		return k.String()
	}
}
