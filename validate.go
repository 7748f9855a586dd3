// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"fmt"
	"reflect"
	"unicode/utf8"
)

// Validate checks an entity, or a pointer to one, against the required
// and maximum-length rules of the model. It returns a *ValidationError
// listing every failed rule, or nil.
func (c *DbContext) Validate(entity any) error {
	v := reflect.ValueOf(entity)
	if !v.IsValid() {
		return fmt.Errorf("validate nil entity: %w", ErrNotMapped)
	}
	e, ok := c.model.Entity(v.Type())
	if !ok {
		return fmt.Errorf("%s: %w", v.Type(), ErrNotMapped)
	}
	return validateEntity(e, v)
}

func validateEntity(e *Entity, v reflect.Value) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return fmt.Errorf("validate nil %s: %w", e.Name(), ErrNotMapped)
		}
		v = v.Elem()
	}
	var failed []FieldError
	for _, p := range e.props {
		fv, err := v.FieldByIndexErr(p.index)
		if err != nil {
			// a nil complex property leaves its fields unset
			if p.required {
				failed = append(failed, FieldError{Field: p.name, Message: "is required"})
			}
			continue
		}
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				if p.required {
					failed = append(failed, FieldError{Field: p.name, Message: "is required"})
				}
				continue
			}
			fv = fv.Elem()
		}
		if p.required && fv.Kind() == reflect.String && fv.Len() == 0 {
			failed = append(failed, FieldError{Field: p.name, Message: "is required"})
			continue
		}
		if p.maxLength > 0 {
			n := -1
			switch p.kind {
			case kindString:
				n = utf8.RuneCountInString(fv.String())
			case kindBytes:
				n = fv.Len()
			}
			if n > p.maxLength {
				failed = append(failed, FieldError{
					Field:   p.name,
					Message: fmt.Sprintf("exceeds maximum length %d", p.maxLength),
				})
			}
		}
	}
	if len(failed) > 0 {
		return &ValidationError{Entity: e.Name(), Fields: failed}
	}
	return nil
}
