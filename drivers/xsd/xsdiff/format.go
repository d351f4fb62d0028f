package xsdiff

import (
	"strings"

	"github.com/emenda-labs/xsdiff/drivers/xsd/model"
)

// attrLookup returns the value of a markup attribute, or "" when absent.
type attrLookup func(name string) string

// construct describes how one schema construct is rendered and where the
// resulting line is filed.
type construct struct {
	category model.Category
	render   func(attr attrLookup) string
}

// constructs maps schema local names to their renderers. This is the single
// source of truth for descriptor line formatting across the package.
var constructs = map[string]construct{
	"element":       {model.CategoryElement, renderElement},
	"attribute":     {model.CategoryAttribute, renderAttribute},
	"sequence":      {model.CategoryElement, renderSequence},
	"simpleContent": {model.CategoryElement, renderLiteral("simpleContent")},
	"extension":     {model.CategoryElement, renderWithAttr("extension", "base")},
	"restriction":   {model.CategoryElement, renderWithAttr("restriction", "base")},
	"enumeration":   {model.CategoryElement, renderWithAttr("enumeration", "value")},
	"minLength":     {model.CategoryElement, renderWithAttr("minLength", "value")},
	"maxLength":     {model.CategoryElement, renderWithAttr("maxLength", "value")},
	"annotation":    {model.CategoryAnnotation, renderLiteral("annotation")},
	"documentation": {model.CategoryAnnotation, renderWithAttr("documentation", "source")},
	"appinfo":       {model.CategoryAppInfo, renderWithAttr("appinfo", "source")},
}

// renderElement produces "name (type) [min..max]". Returns "" for element
// references without a name.
func renderElement(attr attrLookup) string {
	name := attr("name")
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(name)
	if typ := attr("type"); typ != "" {
		b.WriteString(" (" + typ + ")")
	}
	b.WriteString(renderOccurs(attr))
	return b.String()
}

// renderAttribute produces "@name (type) default='value'". Returns "" for
// attribute references without a name.
func renderAttribute(attr attrLookup) string {
	name := attr("name")
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("@" + name)
	if typ := attr("type"); typ != "" {
		b.WriteString(" (" + typ + ")")
	}
	if def := attr("default"); def != "" {
		b.WriteString(" default='" + def + "'")
	}
	return b.String()
}

func renderSequence(attr attrLookup) string {
	return "sequence" + renderOccurs(attr)
}

// renderOccurs renders " [min..max]" when either bound is declared. An
// undeclared bound defaults to 1.
func renderOccurs(attr attrLookup) string {
	minOccurs := attr("minOccurs")
	maxOccurs := attr("maxOccurs")
	if minOccurs == "" && maxOccurs == "" {
		return ""
	}
	if minOccurs == "" {
		minOccurs = "1"
	}
	if maxOccurs == "" {
		maxOccurs = "1"
	}
	return " [" + minOccurs + ".." + maxOccurs + "]"
}

func renderLiteral(label string) func(attrLookup) string {
	return func(attrLookup) string { return label }
}

// renderWithAttr produces "label key='value'", or just "label" when the
// attribute is absent.
func renderWithAttr(label, key string) func(attrLookup) string {
	return func(attr attrLookup) string {
		if v := attr(key); v != "" {
			return label + " " + key + "='" + v + "'"
		}
		return label
	}
}

// FormatConstruct renders the construct with the given local name. It
// returns the category the line is filed under and false when the local
// name is not a recognized construct or the construct renders to nothing.
func FormatConstruct(localName string, attr func(name string) string) (model.Category, string, bool) {
	c, ok := constructs[localName]
	if !ok {
		return "", "", false
	}
	line := c.render(attr)
	if line == "" {
		return "", "", false
	}
	return c.category, line, true
}
