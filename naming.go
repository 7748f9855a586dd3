// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// tableName is the convention: snake-cased, pluralized type name.
func tableName(t reflect.Type) string {
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return inflect.Pluralize(snake(name))
}

// columnName is the convention: snake-cased field name.
func columnName(field string) string {
	return snake(field)
}

// snake converts a Go identifier to snake_case, keeping initialisms
// together: "UserID" is "user_id", "HTTPCode" is "http_code".
func snake(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if nextLower && runes[i+1] == 's' && i+2 == len(runes) {
					// plural initialism: "UserIDs"
					nextLower = false
				}
				// "userInfo", "user2Name", and the "P" of "HTTPParser"
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
