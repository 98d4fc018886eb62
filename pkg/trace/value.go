package trace

import "strings"

// Kind identifies the variant held by a [Value].
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
	KindReference
	KindCyclic
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindReference:
		return "reference"
	case KindCyclic:
		return "cyclic"
	}
	return "unknown"
}

// Literal records which JSON literal a scalar was decoded from.
type Literal int

const (
	LiteralString Literal = iota
	LiteralNumber
	LiteralBool
	LiteralNull
)

// NullText is the display text of a null scalar.
const NullText = "None"

// Field is one named entry of a mapping or reference.
type Field struct {
	Name  string
	Value Value
}

// Value is an immutable traced value. The zero Value is the empty string scalar.
type Value struct {
	kind   Kind
	lit    Literal
	text   string // scalar text or reference tag
	tagged bool
	items  []Value
	fields []Field
}

// Scalar returns a string scalar.
func Scalar(s string) Value { return Value{kind: KindScalar, lit: LiteralString, text: s} }

// Number returns a numeric scalar holding its literal text.
func Number(s string) Value { return Value{kind: KindScalar, lit: LiteralNumber, text: s} }

// Bool returns a boolean scalar.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindScalar, lit: LiteralBool, text: "true"}
	}
	return Value{kind: KindScalar, lit: LiteralBool, text: "false"}
}

// Null returns the null scalar.
func Null() Value { return Value{kind: KindScalar, lit: LiteralNull, text: NullText} }

// Sequence returns an ordered list value. The slice is copied.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, items: append([]Value(nil), items...)}
}

// Mapping returns an ordered association. The slice is copied.
func Mapping(fields ...Field) Value {
	return Value{kind: KindMapping, fields: append([]Field(nil), fields...)}
}

// Reference returns a tagged object. An empty tag means the tag is absent.
func Reference(tag string, fields ...Field) Value {
	return Value{kind: KindReference, text: tag, tagged: tag != "", fields: append([]Field(nil), fields...)}
}

// Cyclic returns the cyclic placeholder.
func Cyclic() Value { return Value{kind: KindCyclic} }

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// Literal returns the JSON literal a scalar came from.
func (v Value) Literal() Literal { return v.lit }

// IsNull reports whether v is the null scalar.
func (v Value) IsNull() bool { return v.kind == KindScalar && v.lit == LiteralNull }

// IsCyclic reports whether v is the cyclic placeholder.
func (v Value) IsCyclic() bool { return v.kind == KindCyclic }

// IsObject reports whether v has named fields (mapping or reference).
func (v Value) IsObject() bool { return v.kind == KindMapping || v.kind == KindReference }

// Tag returns the reference type tag and whether one is present.
func (v Value) Tag() (string, bool) {
	if v.kind != KindReference || !v.tagged {
		return "", false
	}
	return v.text, true
}

// Text returns the scalar text. It is empty for non-scalars.
func (v Value) Text() string {
	if v.kind != KindScalar {
		return ""
	}
	return v.text
}

// Items returns the elements of a sequence. Callers must not modify it.
func (v Value) Items() []Value { return v.items }

// Fields returns the entries of a mapping or reference. Callers must not modify it.
func (v Value) Fields() []Field { return v.fields }

// Len returns the number of items or fields.
func (v Value) Len() int {
	if v.kind == KindSequence {
		return len(v.items)
	}
	return len(v.fields)
}

// Field looks up a named entry on a mapping or reference.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// String returns the compact display form used inside chips and cells.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindScalar:
		b.WriteString(v.text)
	case KindCyclic:
		b.WriteString("...")
	case KindSequence:
		b.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			it.write(b)
		}
		b.WriteByte(']')
	case KindMapping:
		b.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Value.write(b)
		}
		b.WriteByte('}')
	case KindReference:
		if !v.tagged {
			b.WriteString("[object]")
			return
		}
		b.WriteString("[" + v.text + " object]")
	}
}
