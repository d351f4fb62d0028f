package comparison

// EntireTypeMarker prefixes the member list of a type that exists on one
// side only.
const EntireTypeMarker = "ENTIRE TYPE: "

// Record is the comparison result for one complex type name.
type Record struct {
	TypeName     string `json:"type_name"`
	OnlyInFirst  string `json:"only_in_first,omitempty"`
	OnlyInSecond string `json:"only_in_second,omitempty"`
}

// HasDifferences reports whether either side has members the other lacks.
func (r Record) HasDifferences() bool {
	return r.OnlyInFirst != "" || r.OnlyInSecond != ""
}

// HasAdditions reports whether the second side has members the first lacks.
func (r Record) HasAdditions() bool {
	return r.OnlyInSecond != ""
}

// Summary counts records by outcome.
type Summary struct {
	Types           int `json:"types"`
	WithDifferences int `json:"with_differences"`
	WithAdditions   int `json:"with_additions"`
}

// Summarize tallies a record list.
func Summarize(records []Record) Summary {
	s := Summary{Types: len(records)}
	for _, r := range records {
		if r.HasDifferences() {
			s.WithDifferences++
		}
		if r.HasAdditions() {
			s.WithAdditions++
		}
	}
	return s
}
