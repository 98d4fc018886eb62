package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Markers the tracer writes in place of values it refused to serialize.
const (
	TypeKey        = "__type__"
	cyclicPrefix   = "repr(Circular reference"
	tooDeepPrefix  = "repr(Object too deep"
	cyclicSentinel = "repr(Circular reference)"
)

// UnmarshalJSON decodes a traced value, preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// MarshalJSON encodes v in the tracer's wire shape.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			return decodeSequence(dec)
		case '{':
			return decodeObject(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return scalarFromString(t), nil
	case json.Number:
		return Number(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeSequence(dec *json.Decoder) (Value, error) {
	var items []Value
	for dec.More() {
		it, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, it)
	}
	if _, err := dec.Token(); err != nil { // ']'
		return Value{}, err
	}
	return Value{kind: KindSequence, items: items}, nil
}

func decodeObject(dec *json.Decoder) (Value, error) {
	var (
		fields []Field
		tag    string
		tagged bool
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is %T, want string", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		if key == TypeKey && val.kind == KindScalar && val.lit == LiteralString {
			tag, tagged = val.text, true
			continue
		}
		fields = append(fields, Field{Name: key, Value: val})
	}
	if _, err := dec.Token(); err != nil { // '}'
		return Value{}, err
	}
	if tagged {
		return Value{kind: KindReference, text: tag, tagged: tag != "", fields: fields}, nil
	}
	return Value{kind: KindMapping, fields: fields}, nil
}

func scalarFromString(s string) Value {
	if strings.HasPrefix(s, cyclicPrefix) || strings.HasPrefix(s, tooDeepPrefix) {
		return Cyclic()
	}
	return Scalar(s)
}

func (v Value) encode(w io.Writer) error {
	enc := func(x any) error {
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	switch v.kind {
	case KindCyclic:
		return enc(cyclicSentinel)
	case KindScalar:
		switch v.lit {
		case LiteralNull:
			_, err := io.WriteString(w, "null")
			return err
		case LiteralNumber, LiteralBool:
			_, err := io.WriteString(w, v.text)
			return err
		}
		return enc(v.text)
	case KindSequence:
		io.WriteString(w, "[")
		for i, it := range v.items {
			if i > 0 {
				io.WriteString(w, ",")
			}
			if err := it.encode(w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "]")
		return err
	}

	io.WriteString(w, "{")
	first := true
	if tag, ok := v.Tag(); ok {
		enc(TypeKey)
		io.WriteString(w, ":")
		enc(tag)
		first = false
	}
	for _, f := range v.fields {
		if !first {
			io.WriteString(w, ",")
		}
		first = false
		if err := enc(f.Name); err != nil {
			return err
		}
		io.WriteString(w, ":")
		if err := f.Value.encode(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "}")
	return err
}

// MarshalJSON encodes a snapshot in the tracer's step shape.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"line":`)
	if s.Line != nil {
		buf.WriteString(strconv.Itoa(*s.Line))
	} else {
		buf.WriteString("null")
	}
	fmt.Fprintf(&buf, `,"event":%q,"variables":`, string(s.Event))
	if err := Mapping(s.Variables...).encode(&buf); err != nil {
		return nil, err
	}
	out, err := json.Marshal(s.Output)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"output":`)
	buf.Write(out)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes t as a tracer payload that [Normalize] reads back.
func (t *Trace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"steps":[`)
	for i, s := range t.Snapshots {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := s.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	if len(t.Hints) > 0 {
		fields := make([]Field, len(t.Hints))
		for i, h := range t.Hints {
			fields[i] = Field{Name: h.Name, Value: Scalar(h.Role)}
		}
		buf.WriteString(`,"variable_map":`)
		if err := Mapping(fields...).encode(&buf); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct{ key, val string }{{"error", t.Error}, {"final_output", t.FinalOutput}} {
		if f.val == "" {
			continue
		}
		out, err := json.Marshal(f.val)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `,%q:`, f.key)
		buf.Write(out)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
