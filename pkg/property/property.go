// SPDX-License-Identifier: MPL-2.0

// Package property models typed component property values and resolves layered
// property overrides.
package property

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/scenec/scenec/pkg/hashid"
)

const (
	// TypeNumber is a 64-bit float.
	TypeNumber Type = "PROPERTY_TYPE_NUMBER"
	// TypeHash is a string identifier stored as its 64-bit hash.
	TypeHash Type = "PROPERTY_TYPE_HASH"
	// TypeURL is an opaque address string.
	TypeURL Type = "PROPERTY_TYPE_URL"
	// TypeVector3 is three comma-separated floats.
	TypeVector3 Type = "PROPERTY_TYPE_VECTOR3"
	// TypeVector4 is four comma-separated floats.
	TypeVector4 Type = "PROPERTY_TYPE_VECTOR4"
	// TypeQuat is four comma-separated floats in x, y, z, w order.
	TypeQuat Type = "PROPERTY_TYPE_QUAT"
	// TypeBoolean is "true" or "false".
	TypeBoolean Type = "PROPERTY_TYPE_BOOLEAN"
)

var (
	// ErrInvalidLiteral is returned when a literal cannot be parsed as its type.
	ErrInvalidLiteral = errors.New("invalid property literal")
	// ErrUnknownType is returned for a type name outside the closed set.
	ErrUnknownType = errors.New("unknown property type")

	elementSuffixes = [...]string{"x", "y", "z", "w"}
)

type (
	// Type names a property value type.
	Type string

	// Value is a parsed property value. Type selects which field is meaningful:
	// Number for numbers, Hash for hashes, Text for urls, the first 3 or 4
	// Elements for vectors and quaternions, Bool for booleans. Text always
	// holds the literal as authored.
	Value struct {
		Type     Type
		Number   float64
		Hash     uint64
		Text     string
		Elements [4]float64
		Bool     bool
	}
)

// Types returns every supported property type in declaration order.
func Types() []Type {
	return []Type{TypeNumber, TypeHash, TypeURL, TypeVector3, TypeVector4, TypeQuat, TypeBoolean}
}

// IsValid returns whether t is one of the supported types.
func (t Type) IsValid() bool {
	switch t {
	case TypeNumber, TypeHash, TypeURL, TypeVector3, TypeVector4, TypeQuat, TypeBoolean:
		return true
	default:
		return false
	}
}

// Arity returns the number of float elements of vector-like types, or 0.
func (t Type) Arity() int {
	switch t {
	case TypeVector3:
		return 3
	case TypeVector4, TypeQuat:
		return 4
	default:
		return 0
	}
}

func (t Type) String() string { return string(t) }

// Parse parses literal as a value of type t.
func Parse(literal string, t Type) (Value, error) {
	v := Value{Type: t, Text: literal}
	switch t {
	case TypeNumber:
		f, err := parseFloat(literal)
		if err != nil {
			return Value{}, err
		}
		v.Number = f
	case TypeHash:
		v.Hash = hashid.String(literal)
	case TypeURL:
	case TypeVector3, TypeVector4, TypeQuat:
		parts := strings.Split(literal, ",")
		if len(parts) != t.Arity() {
			return Value{}, fmt.Errorf("%w: %q has %d elements, want %d", ErrInvalidLiteral, literal, len(parts), t.Arity())
		}
		for i, p := range parts {
			f, err := parseFloat(p)
			if err != nil {
				return Value{}, err
			}
			v.Elements[i] = f
		}
	case TypeBoolean:
		switch strings.TrimSpace(literal) {
		case "true":
			v.Bool = true
		case "false":
		default:
			return Value{}, fmt.Errorf("%w: %q is not true or false", ErrInvalidLiteral, literal)
		}
	default:
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidLiteral, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite number", ErrInvalidLiteral, s)
	}
	return f, nil
}

// Vector returns the element slice of a vector-like value, or nil.
func (v Value) Vector() []float64 {
	n := v.Type.Arity()
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	copy(out, v.Elements[:n])
	return out
}

// SubElementIDs returns the derived per-axis ids ("id.x", "id.y", ...) of a
// vector-like value, or nil for scalar types. They address elements downstream
// and cannot be overridden on their own.
func (v Value) SubElementIDs(id string) []string {
	n := v.Type.Arity()
	if n == 0 {
		return nil
	}
	ids := make([]string, n)
	for i := range n {
		ids[i] = id + "." + elementSuffixes[i]
	}
	return ids
}

// Canonical renders the value in its normalized literal form.
func (v Value) Canonical() string {
	switch v.Type {
	case TypeNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case TypeHash:
		return hashid.Hex(v.Hash)
	case TypeVector3, TypeVector4, TypeQuat:
		parts := make([]string, 0, 4)
		for _, f := range v.Vector() {
			parts = append(parts, strconv.FormatFloat(f, 'g', -1, 64))
		}
		return strings.Join(parts, ", ")
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

// splitSubElement reports whether id addresses a sub-element ("pos.x") and
// returns the parent id.
func splitSubElement(id string) (parent string, ok bool) {
	i := strings.LastIndexByte(id, '.')
	if i <= 0 || i == len(id)-1 {
		return "", false
	}
	suffix := id[i+1:]
	for _, s := range elementSuffixes {
		if suffix == s {
			return id[:i], true
		}
	}
	return "", false
}
