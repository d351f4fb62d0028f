package xsdiff

import (
	"strings"

	"github.com/emenda-labs/xsdiff/core/comparison"
	"github.com/emenda-labs/xsdiff/drivers/xsd/model"
)

// memberSeparator joins member lines in comparison records.
const memberSeparator = ", "

// Compare diffs two schema models type by type. Records follow the first
// model's declaration order, then types found only in the second model in
// its declaration order.
func Compare(first, second *model.SchemaModel) []comparison.Record {
	names := unionNames(first, second)
	records := make([]comparison.Record, 0, len(names))

	for _, name := range names {
		a, inFirst := lookup(first, name)
		b, inSecond := lookup(second, name)

		rec := comparison.Record{TypeName: name}
		switch {
		case !inFirst:
			rec.OnlyInSecond = comparison.EntireTypeMarker + strings.Join(flatten(b).Lines(), memberSeparator)
		case !inSecond:
			rec.OnlyInFirst = comparison.EntireTypeMarker + strings.Join(flatten(a).Lines(), memberSeparator)
		default:
			membersA := flatten(a)
			membersB := flatten(b)
			rec.OnlyInFirst = strings.Join(difference(membersA, membersB), memberSeparator)
			rec.OnlyInSecond = strings.Join(difference(membersB, membersA), memberSeparator)
		}
		records = append(records, rec)
	}

	return records
}

// unionNames returns every type name in first-model order, followed by the
// names only the second model declares.
func unionNames(first, second *model.SchemaModel) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range []*model.SchemaModel{first, second} {
		if m == nil {
			continue
		}
		for _, name := range m.Names() {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func lookup(m *model.SchemaModel, name string) (*model.TypeDescriptor, bool) {
	if m == nil {
		return nil, false
	}
	return m.Get(name)
}

// flatten unions a descriptor's member sets into one ordered set, each line
// labelled with its category ("element: name (xs:string)").
func flatten(desc *model.TypeDescriptor) *model.LineSet {
	var all model.LineSet
	for _, c := range model.Categories {
		for _, line := range desc.Members(c).Lines() {
			all.Add(string(c) + ": " + line)
		}
	}
	return &all
}

// difference returns the lines of a that b does not contain, in a's order.
func difference(a, b *model.LineSet) []string {
	var out []string
	for _, line := range a.Lines() {
		if !b.Contains(line) {
			out = append(out, line)
		}
	}
	return out
}
