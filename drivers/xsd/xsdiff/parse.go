package xsdiff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agentflare-ai/go-xmldom"

	"github.com/emenda-labs/xsdiff/drivers/xsd/model"
)

// SchemaNamespace is the XML Schema namespace URI. Constructs are matched by
// local name within this namespace, whatever prefix the document binds to it.
const SchemaNamespace = "http://www.w3.org/2001/XMLSchema"

// Profile selects which member constructs the analyzer records.
type Profile string

const (
	// ProfileFull records every known construct, including metadata and facets.
	ProfileFull Profile = "full"
	// ProfileBasic records element and attribute declarations only.
	ProfileBasic Profile = "basic"
)

var profileConstructs = map[Profile][]string{
	ProfileFull: {
		"element", "attribute", "sequence", "simpleContent", "extension", "restriction",
		"enumeration", "minLength", "maxLength", "annotation", "documentation", "appinfo",
	},
	ProfileBasic: {"element", "attribute"},
}

// ParseProfile converts a profile name to a Profile.
func ParseProfile(name string) (Profile, error) {
	p := Profile(name)
	if _, ok := profileConstructs[p]; !ok {
		return "", fmt.Errorf("unknown analyzer profile %q (want %q or %q)", name, ProfileFull, ProfileBasic)
	}
	return p, nil
}

// Options configures the schema model builder.
type Options struct {
	// Profile selects the recognized construct set. Defaults to ProfileFull.
	Profile Profile
	// Namespaces lists the namespace URIs treated as the schema namespace.
	// Defaults to SchemaNamespace.
	Namespaces []string
}

var errNoRoot = errors.New("document has no root element")

// ParseError reports a schema document that could not be read or is not
// well-formed markup.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing schema %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// analyzer holds the resolved construct and namespace filters for one build.
type analyzer struct {
	recognized map[string]bool
	namespaces map[string]bool
}

func newAnalyzer(opts Options) *analyzer {
	profile := opts.Profile
	if profile == "" {
		profile = ProfileFull
	}
	a := &analyzer{
		recognized: make(map[string]bool),
		namespaces: make(map[string]bool),
	}
	for _, name := range profileConstructs[profile] {
		a.recognized[name] = true
	}
	namespaces := opts.Namespaces
	if len(namespaces) == 0 {
		namespaces = []string{SchemaNamespace}
	}
	for _, ns := range namespaces {
		a.namespaces[ns] = true
	}
	return a
}

// schemaLocalName returns the local name of el when it lives in one of the
// recognized schema namespaces.
func (a *analyzer) schemaLocalName(el xmldom.Element) (string, bool) {
	if !a.namespaces[string(el.NamespaceURI())] {
		return "", false
	}
	return string(el.LocalName()), true
}

// BuildFile opens the schema document at path and builds its model.
func BuildFile(ctx context.Context, path string, opts Options) (*model.SchemaModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	return Build(ctx, f, path, opts)
}

// Build parses one schema document and indexes every named complex type in
// document order. Anonymous complex types are skipped. Redeclaring a name
// replaces the earlier descriptor.
func Build(ctx context.Context, r io.Reader, path string, opts Options) (*model.SchemaModel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	// The byte-backed decoder keeps the charset reader and strict mode.
	doc, err := xmldom.NewDecoderFromBytes(data).Decode()
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	root, err := documentElement(doc)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	m := model.NewSchemaModel(path)

	a := newAnalyzer(opts)

	var walkErr error
	walkElements(root, func(el xmldom.Element) bool {
		if local, ok := a.schemaLocalName(el); !ok || local != "complexType" {
			return true
		}
		if err := ctx.Err(); err != nil {
			walkErr = err
			return false
		}

		name := string(el.GetAttribute("name"))
		if name == "" {
			return true
		}

		m.Put(a.describe(name, el))
		return true
	})
	if walkErr != nil {
		return nil, fmt.Errorf("building model for %s: %w", path, walkErr)
	}

	return m, nil
}

// documentElement returns the single top-level element of doc.
func documentElement(doc xmldom.Document) (xmldom.Element, error) {
	roots := 0
	nodes := doc.ChildNodes()
	for i := uint(0); i < nodes.Length(); i++ {
		if n := nodes.Item(i); n != nil && n.NodeType() == xmldom.ELEMENT_NODE {
			roots++
		}
	}
	switch {
	case roots == 0:
		return nil, errNoRoot
	case roots > 1:
		return nil, fmt.Errorf("document has %d root elements", roots)
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil, errNoRoot
	}
	return root, nil
}

// describe collects the members of one complex type declaration. Every
// descendant node is visited exactly once and classified by local name.
func (a *analyzer) describe(name string, complexType xmldom.Element) *model.TypeDescriptor {
	desc := model.NewTypeDescriptor(name)

	children := complexType.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil {
			continue
		}
		walkElements(child, func(el xmldom.Element) bool {
			local, ok := a.schemaLocalName(el)
			if !ok || !a.recognized[local] {
				return true
			}
			category, line, ok := FormatConstruct(local, func(attr string) string {
				return string(el.GetAttribute(xmldom.DOMString(attr)))
			})
			if ok {
				desc.Members(category).Add(line)
			}
			return true
		})
	}

	return desc
}

// walkElements visits el and its element descendants in document order.
// Returning false from visit stops the walk.
func walkElements(el xmldom.Element, visit func(xmldom.Element) bool) bool {
	if !visit(el) {
		return false
	}
	children := el.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil {
			continue
		}
		if !walkElements(child, visit) {
			return false
		}
	}
	return true
}
