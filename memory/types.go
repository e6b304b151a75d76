package memory

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// Record is an attribute mapping: the materialized form of one memory element,
// and the contents of one buffer.
//
// Records are ordered by attribute name: every iteration in this module goes
// through Keys, never through Go's randomized map order.
type Record map[string]any

// Keys returns the attribute names in ascending order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of attr and whether it is present.
func (r Record) Get(attr string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[attr]
	return v, ok
}

// Has reports whether attr is present.
func (r Record) Has(attr string) bool {
	_, ok := r.Get(attr)
	return ok
}

// Clone returns a shallow copy of the record. Values are shared; the memory
// model treats them as immutable.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	clone := make(Record, len(r))
	for k, v := range r {
		clone[k] = v
	}
	return clone
}

// Equal reports whether both records hold the same attributes with equal values.
// A nil record equals an empty one.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !EqualValues(v, ov) {
			return false
		}
	}
	return true
}

// Compare orders records canonically: the sorted (attribute, value) pairs are
// compared lexicographically, and a record that is a prefix of another sorts first.
func (r Record) Compare(other Record) int {
	ak, bk := r.Keys(), other.Keys()
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := CompareValues(r[ak[i]], other[bk[i]]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ak), len(bk))
}

// Matches reports whether every attribute in query is present in r with an
// equal value. An empty query matches every record.
func (r Record) Matches(query Record) bool {
	for attr, want := range query {
		got, ok := r[attr]
		if !ok || !EqualValues(got, want) {
			return false
		}
	}
	return true
}

// String renders the record with sorted attributes, e.g. {col: 4, index: 9}.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, r[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Value ranks used by CompareValues.
const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

// CompareValues is the canonical total order over attribute values:
// nil < bools < numbers < strings < everything else.
//
// Numbers of any int, uint or float kind compare numerically with each other
// (NaN sorts below every other number). Values of other types are ordered by
// type name, then by their fmt rendering.
func CompareValues(a, b any) int {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch ra {
	case rankNil:
		return 0
	case rankBool:
		return compareBools(reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool())
	case rankNumber:
		return compareNumbers(reflect.ValueOf(a), reflect.ValueOf(b))
	case rankString:
		return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
	}

	if c := strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)); c != 0 {
		return c
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

// EqualValues reports whether a and b are equal under CompareValues.
func EqualValues(a, b any) bool {
	return CompareValues(a, b) == 0
}

// Hashable reports whether v can key a map: it is non-nil and comparable all
// the way down, including values held in interface-typed fields and elements.
func Hashable(v any) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Comparable()
}

func rankOf(v any) int {
	if v == nil {
		return rankNil
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool:
		return rankBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return rankNumber
	case reflect.String:
		return rankString
	default:
		return rankOther
	}
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareNumbers(a, b reflect.Value) int {
	if isSigned(a) && isSigned(b) {
		return cmp.Compare(a.Int(), b.Int())
	}
	if isUnsigned(a) && isUnsigned(b) {
		return cmp.Compare(a.Uint(), b.Uint())
	}

	fa, fb := toFloat(a), toFloat(b)
	switch {
	case math.IsNaN(fa) && math.IsNaN(fb):
		return 0
	case math.IsNaN(fa):
		return -1
	case math.IsNaN(fb):
		return 1
	}
	return cmp.Compare(fa, fb)
}

func isSigned(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isSigned(v):
		return float64(v.Int())
	case isUnsigned(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
