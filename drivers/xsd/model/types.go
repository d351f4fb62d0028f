package model

// Category identifies which member set of a TypeDescriptor a line belongs to.
type Category string

const (
	CategoryElement    Category = "element"
	CategoryAttribute  Category = "attribute"
	CategoryAnnotation Category = "annotation"
	CategoryAppInfo    Category = "appinfo"
)

// Categories lists the member categories in the order they are flattened
// for comparison and reporting.
var Categories = []Category{
	CategoryElement,
	CategoryAttribute,
	CategoryAnnotation,
	CategoryAppInfo,
}

// LineSet is an insertion-ordered set of descriptor lines.
// The zero value is ready to use.
type LineSet struct {
	lines []string
	index map[string]struct{}
}

// Add inserts line if it is not already present. It reports whether the
// set changed.
func (s *LineSet) Add(line string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[line]; ok {
		return false
	}
	s.index[line] = struct{}{}
	s.lines = append(s.lines, line)
	return true
}

// Contains reports whether line is in the set.
func (s *LineSet) Contains(line string) bool {
	_, ok := s.index[line]
	return ok
}

// Len returns the number of distinct lines.
func (s *LineSet) Len() int {
	return len(s.lines)
}

// Lines returns a copy of the lines in insertion order.
func (s *LineSet) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// TypeDescriptor holds the members of one named complex type.
type TypeDescriptor struct {
	Name        string
	Elements    LineSet
	Attributes  LineSet
	Annotations LineSet
	AppInfos    LineSet
}

// NewTypeDescriptor returns an empty descriptor for the named type.
func NewTypeDescriptor(name string) *TypeDescriptor {
	return &TypeDescriptor{Name: name}
}

// Members returns the line set for the given category, or nil for an
// unknown category.
func (t *TypeDescriptor) Members(c Category) *LineSet {
	switch c {
	case CategoryElement:
		return &t.Elements
	case CategoryAttribute:
		return &t.Attributes
	case CategoryAnnotation:
		return &t.Annotations
	case CategoryAppInfo:
		return &t.AppInfos
	default:
		return nil
	}
}

// Len returns the total number of member lines across all categories.
func (t *TypeDescriptor) Len() int {
	return t.Elements.Len() + t.Attributes.Len() + t.Annotations.Len() + t.AppInfos.Len()
}

// SchemaModel is the ordered set of complex types found in one schema
// document, keyed by type name.
type SchemaModel struct {
	Path  string
	order []string
	types map[string]*TypeDescriptor
}

// NewSchemaModel returns an empty model for the document at path.
func NewSchemaModel(path string) *SchemaModel {
	return &SchemaModel{
		Path:  path,
		types: make(map[string]*TypeDescriptor),
	}
}

// Put stores desc under its name. A name that is already present keeps its
// original position but its descriptor is replaced.
func (m *SchemaModel) Put(desc *TypeDescriptor) {
	if m.types == nil {
		m.types = make(map[string]*TypeDescriptor)
	}
	if _, ok := m.types[desc.Name]; !ok {
		m.order = append(m.order, desc.Name)
	}
	m.types[desc.Name] = desc
}

// Get returns the descriptor for name.
func (m *SchemaModel) Get(name string) (*TypeDescriptor, bool) {
	desc, ok := m.types[name]
	return desc, ok
}

// Names returns the type names in declaration order.
func (m *SchemaModel) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of indexed types.
func (m *SchemaModel) Len() int {
	return len(m.order)
}
