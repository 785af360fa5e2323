package moderation

// Mapping translates one provider-native attribute name into the internal
// category vocabulary, with the score threshold above which that attribute
// counts as flagged. Providers that return their own flag bit per attribute
// carry a zero threshold here; the mapping is then used for translation and
// ordering only.
type Mapping struct {
	Native    string
	Category  Category
	Threshold float64
}

// MappingTable is the full native vocabulary of one provider, in a fixed
// declaration order. Multiple natives may map to the same internal category.
//
// The declaration order is load-bearing: adapters scan tables front to back
// and only replace a candidate verdict on a strictly greater score, so equal
// top scores resolve to the entry declared first.
type MappingTable []Mapping

// Lookup returns the mapping for a native attribute name.
func (t MappingTable) Lookup(native string) (Mapping, bool) {
	for _, m := range t {
		if m.Native == native {
			return m, true
		}
	}
	return Mapping{}, false
}

// Natives returns the native attribute names in table order.
func (t MappingTable) Natives() []string {
	out := make([]string, len(t))
	for i, m := range t {
		out[i] = m.Native
	}
	return out
}
