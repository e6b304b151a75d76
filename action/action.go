// Package action defines the commands an agent submits to a controller.
//
// An Action is an immutable value: a name plus string parameters. Two actions
// are equal exactly when they have the same name and parameters, so actions
// can be compared with == and used as map keys.
package action

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
)

// Names of internal memory actions.
const (
	NameCopy       = "copy"
	NameDelete     = "delete"
	NameRetrieve   = "retrieve"
	NamePrevResult = "prev-result"
	NameNextResult = "next-result"
)

// Parameter keys of internal memory actions.
const (
	ParamSrcBuf  = "src_buf"
	ParamSrcAttr = "src_attr"
	ParamDstBuf  = "dst_buf"
	ParamDstAttr = "dst_attr"
	ParamBuf     = "buf"
	ParamAttr    = "attr"
)

// separator joins keys and values in the encoded parameter string.
const separator = "\x00"

// Action is a named, parameterized command.
type Action struct {
	name string
	// params holds the sorted key/value pairs, joined by separator.
	params string
}

// New creates an action. params may be nil.
func New(name string, params map[string]string) Action {
	if len(params) == 0 {
		return Action{name: name}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		parts = append(parts, k, params[k])
	}
	return Action{name: name, params: strings.Join(parts, separator)}
}

// Named creates an action without parameters, such as a native action of an
// environment.
func Named(name string) Action {
	return Action{name: name}
}

// Copy creates a copy action moving src[srcAttr] into dst[dstAttr].
func Copy(srcBuf, srcAttr, dstBuf, dstAttr string) Action {
	return New(NameCopy, map[string]string{
		ParamSrcBuf:  srcBuf,
		ParamSrcAttr: srcAttr,
		ParamDstBuf:  dstBuf,
		ParamDstAttr: dstAttr,
	})
}

// Delete creates an action removing buf[attr].
func Delete(buf, attr string) Action {
	return New(NameDelete, map[string]string{ParamBuf: buf, ParamAttr: attr})
}

// Retrieve creates an action looking up the value of buf[attr] as a memory identifier.
func Retrieve(buf, attr string) Action {
	return New(NameRetrieve, map[string]string{ParamBuf: buf, ParamAttr: attr})
}

// PrevResult creates the action moving the query cursor back.
func PrevResult() Action {
	return Named(NamePrevResult)
}

// NextResult creates the action moving the query cursor forward.
func NextResult() Action {
	return Named(NameNextResult)
}

// Name returns the action name.
func (a Action) Name() string {
	return a.name
}

// Param returns the value of parameter key and whether it is set.
func (a Action) Param(key string) (string, bool) {
	if a.params == "" {
		return "", false
	}
	parts := strings.Split(a.params, separator)
	for i := 0; i+1 < len(parts); i += 2 {
		if parts[i] == key {
			return parts[i+1], true
		}
	}
	return "", false
}

// Params returns a copy of the parameters.
func (a Action) Params() map[string]string {
	params := make(map[string]string)
	if a.params == "" {
		return params
	}
	parts := strings.Split(a.params, separator)
	for i := 0; i+1 < len(parts); i += 2 {
		params[parts[i]] = parts[i+1]
	}
	return params
}

// IsInternal reports whether the action manipulates memory rather than the
// environment.
func (a Action) IsInternal() bool {
	switch a.name {
	case NameCopy, NameDelete, NameRetrieve, NamePrevResult, NameNextResult:
		return true
	}
	return false
}

// Compare orders actions by name, then by their sorted parameters.
func (a Action) Compare(b Action) int {
	if c := strings.Compare(a.name, b.name); c != 0 {
		return c
	}
	return cmp.Compare(a.params, b.params)
}

// String renders the action as name or name(key=value, ...), with keys sorted.
// Parse reverses it.
func (a Action) String() string {
	if a.params == "" {
		return a.name
	}
	parts := strings.Split(a.params, separator)
	pairs := make([]string, 0, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		pairs = append(pairs, parts[i]+"="+parts[i+1])
	}
	return fmt.Sprintf("%s(%s)", a.name, strings.Join(pairs, ", "))
}

// Sort orders actions in place with Compare.
func Sort(actions []Action) {
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Compare(actions[j]) < 0
	})
}

// Contains reports whether actions holds a.
func Contains(actions []Action, a Action) bool {
	for _, other := range actions {
		if other == a {
			return true
		}
	}
	return false
}
