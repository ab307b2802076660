// Package typedval asserts a dynamically-typed value (an event payload or
// a method argument) to a concrete type without a type-switch at every
// call site.
package typedval

import "gmf-go/errcode"

// As asserts v to T. Accepts either a value (T) or a pointer (*T). A nil
// v is treated as the zero value of T, so optional config payloads read
// as their defaults.
func As[T any](v any) (T, errcode.Code) {
	var zero T
	if v == nil {
		return zero, errcode.OK
	}
	if t, ok := v.(T); ok {
		return t, errcode.OK
	}
	if pt, ok := v.(*T); ok && pt != nil {
		return *pt, errcode.OK
	}
	return zero, errcode.InvalidPayload
}
