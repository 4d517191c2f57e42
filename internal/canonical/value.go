// Package canonical produces a deterministic byte encoding of structured
// certificate metadata.
//
// Two values that are equal as data (same keys and values, any key order)
// encode to identical bytes. The encoding is JSON text without whitespace,
// object keys sorted by UTF-16 code units, and numbers in ECMAScript form, so
// third parties can reproduce it with JSON.stringify over sorted keys.
package canonical

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is a metadata tree node. The zero Value is null.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	str     string
	items   []Value
	members []Member
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

func Number(f float64) Value { return Value{kind: KindNumber, number: f} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func List(items ...Value) Value {
	return Value{kind: KindList, items: items}
}

// Object builds an object from members in insertion order. A repeated key
// keeps its first position and takes the last value.
func Object(members ...Member) Value {
	out := make([]Member, 0, len(members))
	index := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := index[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		index[m.Key] = len(out)
		out = append(out, m)
	}
	return Value{kind: KindObject, members: out}
}

// Field is shorthand for constructing a Member.
func Field(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() bool { return v.boolean }

func (v Value) Float() float64 { return v.number }

func (v Value) Str() string { return v.str }

// Items returns the elements of a list in order.
func (v Value) Items() []Value { return v.items }

// Members returns the members of an object in insertion order.
func (v Value) Members() []Member { return v.members }

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Equal reports whether a and b encode to the same canonical bytes.
func Equal(a, b Value) bool {
	return string(Encode(a)) == string(Encode(b))
}

func (v Value) MarshalJSON() ([]byte, error) {
	return Encode(v), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
