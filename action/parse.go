package action

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is returned by Parse for malformed input.
var ErrSyntax = errors.New("action: invalid syntax")

// Parse reads an action in the form produced by Action.String:
//
//	9
//	next-result
//	copy(dst_attr=index, dst_buf=query, src_attr=index, src_buf=perceptual)
func Parse(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Action{}, fmt.Errorf("empty action: %w", ErrSyntax)
	}

	open := strings.IndexByte(s, '(')
	if open < 0 {
		if strings.ContainsAny(s, ")=,") {
			return Action{}, fmt.Errorf("%q: %w", s, ErrSyntax)
		}
		return Named(s), nil
	}
	if !strings.HasSuffix(s, ")") || open == 0 {
		return Action{}, fmt.Errorf("%q: %w", s, ErrSyntax)
	}

	name := strings.TrimSpace(s[:open])
	body := strings.TrimSpace(s[open+1 : len(s)-1])
	if body == "" {
		return Named(name), nil
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(body, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" {
			return Action{}, fmt.Errorf("%q: parameter %q: %w", s, pair, ErrSyntax)
		}
		if _, dup := params[k]; dup {
			return Action{}, fmt.Errorf("%q: duplicate parameter %q: %w", s, k, ErrSyntax)
		}
		params[k] = v
	}
	return New(name, params), nil
}
