package rrecur

import (
	"fmt"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// CompileFilterScript compiles src, a Go source fragment defining a function
// named Filter with signature func(time.Time) bool, into a callable
// predicate using an embedded Yaegi interpreter. It is the scripted
// analogue of ObservancePolicy.Filter for callers who want to configure a
// custom filter from data rather than from compiled Go.
//
// Example src:
//
//	package filter
//	import "time"
//	func Filter(t time.Time) bool { return t.Day() != 13 }
func CompileFilterScript(src string) (func(time.Time) bool, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("rrecur: yaegi stdlib load failed: %w", err)
	}

	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("rrecur: filter script compile failed: %w", err)
	}

	v, err := i.Eval("filter.Filter")
	if err != nil {
		return nil, fmt.Errorf("rrecur: filter script missing Filter function: %w", err)
	}

	fn, ok := v.Interface().(func(time.Time) bool)
	if !ok {
		return nil, fmt.Errorf("rrecur: filter script's Filter must be func(time.Time) bool")
	}
	return fn, nil
}
