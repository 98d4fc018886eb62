package structure

import "github.com/matzehuels/tracetower/pkg/trace"

// field returns the first of names present on v.
func field(v trace.Value, names []string) (trace.Value, bool) {
	if !v.IsObject() {
		return trace.Value{}, false
	}
	for _, n := range names {
		if f, ok := v.Field(n); ok {
			return f, true
		}
	}
	return trace.Value{}, false
}

// sequenceField returns the first sequence among names, falling back to
// the first sequence field of v in delivered order.
func sequenceField(v trace.Value, names []string) (trace.Value, bool) {
	if !v.IsObject() {
		return trace.Value{}, false
	}
	for _, n := range names {
		if f, ok := v.Field(n); ok && f.Kind() == trace.KindSequence {
			return f, true
		}
	}
	for _, f := range v.Fields() {
		if f.Value.Kind() == trace.KindSequence {
			return f.Value, true
		}
	}
	return trace.Value{}, false
}

// displayItems returns the display form of every item of a sequence.
func displayItems(v trace.Value) []string {
	items := v.Items()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.String()
	}
	return out
}
