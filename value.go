package sqlcore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the variant currently held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindUnsigned
	KindFloat
	KindString
	KindArray
	KindObject
)

// Value is the parameter and result-row currency shared by binding and
// decoding. It is a small tagged union: exactly one of its payload fields
// is meaningful, selected by Kind. The core only ever inspects the
// top-level Kind when binding or projecting — it never creates or mutates
// nested Array/Object structure on its own.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	arr  []Value
	obj  *OrderedMap
}

func (v Value) Kind() Kind { return v.kind }

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Integer(i int64) Value      { return Value{kind: KindInteger, i: i} }
func Unsigned(u uint64) Value    { return Value{kind: KindUnsigned, u: u} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Array(vs ...Value) Value    { return Value{kind: KindArray, arr: vs} }
func Object(m *OrderedMap) Value { return Value{kind: KindObject, obj: m} }

// AsBool, AsInteger, AsUnsigned, AsFloat, AsString, AsArray, AsObject return
// the payload and whether Kind matched. They never panic.
func (v Value) AsBool() (bool, bool)          { return v.b, v.kind == KindBool }
func (v Value) AsInteger() (int64, bool)      { return v.i, v.kind == KindInteger }
func (v Value) AsUnsigned() (uint64, bool)    { return v.u, v.kind == KindUnsigned }
func (v Value) AsFloat() (float64, bool)      { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)      { return v.s, v.kind == KindString }
func (v Value) AsArray() ([]Value, bool)      { return v.arr, v.kind == KindArray }
func (v Value) AsObject() (*OrderedMap, bool) { return v.obj, v.kind == KindObject }

func (v Value) IsNull() bool { return v.kind == KindNull }

// MarshalJSON lets Value participate in the textual JSON serialization used
// both for nested Array/Object encoding (§4.3, last row of the binder
// table) and for RowSetCodec's second decode stage.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInteger:
		return json.Marshal(v.i)
	case KindUnsigned:
		return json.Marshal(v.u)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return v.obj.MarshalJSON()
	default:
		return nil, fmt.Errorf("sqlcore: value has unknown kind %d", v.kind)
	}
}

// UnmarshalJSON reconstructs a Value from its JSON encoding. Integers that
// fit in int64 decode as KindInteger; everything else numeric decodes as
// KindFloat, matching encoding/json's own float64-by-default behavior for
// untyped numeric literals.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Null()
		return nil
	case bytes.Equal(data, []byte("true")):
		*v = Bool(true)
		return nil
	case bytes.Equal(data, []byte("false")):
		*v = Bool(false)
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		vals := make([]Value, len(raw))
		for i, r := range raw {
			if err := vals[i].UnmarshalJSON(r); err != nil {
				return err
			}
		}
		*v = Array(vals...)
		return nil
	}

	if len(data) > 0 && data[0] == '{' {
		om := NewOrderedMap()
		if err := om.UnmarshalJSON(data); err != nil {
			return err
		}
		*v = Object(om)
		return nil
	}

	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		*v = Integer(i)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("sqlcore: cannot decode %q as Value: %w", data, err)
	}
	*v = Float(f)
	return nil
}

// OrderedMap is the ordered String -> Value mapping backing the Object
// variant. Insertion order is preserved through Set and through JSON
// marshal/unmarshal round-trips.
type OrderedMap struct {
	keys []string
	vals map[string]Value
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{vals: make(map[string]Value)}
}

func (m *OrderedMap) Set(key string, v Value) {
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }

func (m *OrderedMap) Len() int { return len(m.keys) }

func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := m.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sqlcore: expected object, got %v", tok)
	}

	if m.vals == nil {
		m.vals = make(map[string]Value)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("sqlcore: expected string key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return err
		}
		m.Set(key, v)
	}

	return nil
}
