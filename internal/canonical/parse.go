package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf16"
)

var ErrMalformed = errors.New("canonical: malformed JSON")

// Parse decodes one JSON document into a Value. Later duplicate keys win,
// numbers outside the float64 range are rejected, and anything after the
// document other than whitespace is an error. Unpaired UTF-16 surrogate
// escapes are rejected: they have no UTF-8 form, so the encoded bytes could
// not match a JSON.stringify of the same input.
func Parse(data []byte) (Value, error) {
	if err := checkSurrogateEscapes(data); err != nil {
		return Value{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
		}
		return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("%w: number %s out of range", ErrMalformed, t)
		}
		return Number(f), nil
	case json.Delim:
		switch t {
		case '[':
			return decodeList(dec)
		case '{':
			return decodeObject(dec)
		}
	}
	return Value{}, fmt.Errorf("%w: unexpected token %v", ErrMalformed, tok)
}

func decodeList(dec *json.Decoder) (Value, error) {
	items := []Value{}
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return List(items...), nil
}

func decodeObject(dec *json.Decoder) (Value, error) {
	members := []Member{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: object key must be a string", ErrMalformed)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Object(members...), nil
}

// checkSurrogateEscapes requires every \uD800-\uDBFF escape to be followed
// directly by a \uDC00-\uDFFF escape, and no low surrogate to stand alone.
func checkSurrogateEscapes(data []byte) error {
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			continue
		}
		r, ok := unicodeEscape(data, i)
		if !ok {
			i++
			continue
		}
		i += 5
		if !utf16.IsSurrogate(r) {
			continue
		}
		if r >= 0xDC00 {
			return fmt.Errorf("%w: unpaired surrogate escape \\u%04x", ErrMalformed, r)
		}
		low, ok := unicodeEscape(data, i+1)
		if !ok || low < 0xDC00 || low > 0xDFFF {
			return fmt.Errorf("%w: unpaired surrogate escape \\u%04x", ErrMalformed, r)
		}
		i += 6
	}
	return nil
}

// unicodeEscape decodes a \uXXXX escape starting at data[i].
func unicodeEscape(data []byte, i int) (rune, bool) {
	if i+6 > len(data) || data[i] != '\\' || data[i+1] != 'u' {
		return 0, false
	}
	n, err := strconv.ParseUint(string(data[i+2:i+6]), 16, 16)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
