// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueType is a type of Value.
type ValueType int

// Value types.
const (
	StringType ValueType = iota
	IntType
	FloatType
	BoolType
)

func (t ValueType) String() string {
	switch t {
	case StringType:
		return "string"
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case BoolType:
		return "bool"
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// Value is a value of a dep file variable.
type Value struct {
	typ ValueType
	s   string
	i   int64
	f   float64
	b   bool
}

// String returns a string value.
func String(s string) Value { return Value{typ: StringType, s: s} }

// Int returns an int value.
func Int(i int64) Value { return Value{typ: IntType, i: i} }

// Float returns a float value.
func Float(f float64) Value { return Value{typ: FloatType, f: f} }

// Bool returns a bool value.
func Bool(b bool) Value { return Value{typ: BoolType, b: b} }

// Type returns the type of v.
func (v Value) Type() ValueType { return v.typ }

// AsBool returns the bool value and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == BoolType }

// AsString returns the string value and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.typ == StringType }

// AsInt returns the int value and whether v is an int.
func (v Value) AsInt() (int64, bool) { return v.i, v.typ == IntType }

// AsFloat returns the float value and whether v is a float.
func (v Value) AsFloat() (float64, bool) { return v.f, v.typ == FloatType }

// Equal reports whether v and o have the same type and value.
func (v Value) Equal(o Value) bool { return v == o }

// String formats v as it is substituted in a line.
func (v Value) String() string {
	switch v.typ {
	case IntType:
		return strconv.FormatInt(v.i, 10)
	case FloatType:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case BoolType:
		return strconv.FormatBool(v.b)
	}
	return v.s
}

// GoString formats v as a literal of the expression language.
func (v Value) GoString() string {
	if v.typ == StringType {
		return strconv.Quote(v.s)
	}
	return v.String()
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case IntType:
		return json.Marshal(v.i)
	case FloatType:
		return json.Marshal(v.f)
	case BoolType:
		return json.Marshal(v.b)
	}
	return json.Marshal(v.s)
}

// ParseLiteral parses s as a literal value. Booleans, integers and floats
// are recognized, quoted strings are unquoted, and anything else is
// a plain string.
func ParseLiteral(s string) Value {
	s = strings.TrimSpace(s)
	switch s {
	case "true", "True":
		return Bool(true)
	case "false", "False":
		return Bool(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if looksNumeric(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float(f)
		}
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return String(s[1 : len(s)-1])
	}
	return String(s)
}

// looksNumeric reports whether s only has characters of a decimal float,
// so that "inf" or "nan" stay strings.
func looksNumeric(s string) bool {
	digit := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
			digit = true
		case ch == '.' || ch == '-' || ch == '+' || ch == 'e' || ch == 'E':
		default:
			return false
		}
	}
	return digit
}
