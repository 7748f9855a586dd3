// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"fmt"
	"reflect"
	"time"

	"ariga.io/atlas/sql/schema"
	"github.com/google/uuid"
)

// scalarKind is the storage class of a mapped field.
type scalarKind int

const (
	kindInvalid scalarKind = iota
	kindBool
	kindInt8
	kindInt16
	kindInt32
	kindInt64
	kindUint8
	kindUint16
	kindUint32
	kindUint64
	kindFloat32
	kindFloat64
	kindString
	kindBytes
	kindTime
	kindUUID
)

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()
)

// classify returns the storage class of t, or false if t is not a scalar.
func classify(t reflect.Type) (scalarKind, bool) {
	switch t {
	case timeType:
		return kindTime, true
	case uuidType:
		return kindUUID, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return kindBool, true
	case reflect.Int8:
		return kindInt8, true
	case reflect.Int16:
		return kindInt16, true
	case reflect.Int32:
		return kindInt32, true
	case reflect.Int, reflect.Int64:
		return kindInt64, true
	case reflect.Uint8:
		return kindUint8, true
	case reflect.Uint16:
		return kindUint16, true
	case reflect.Uint32:
		return kindUint32, true
	case reflect.Uint, reflect.Uint64:
		return kindUint64, true
	case reflect.Float32:
		return kindFloat32, true
	case reflect.Float64:
		return kindFloat64, true
	case reflect.String:
		return kindString, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return kindBytes, true
		}
	}
	return kindInvalid, false
}

func (k scalarKind) unsigned() bool {
	return k >= kindUint8 && k <= kindUint64
}

func sqliteType(k scalarKind, size int) schema.Type {
	switch k {
	case kindBool:
		return &schema.BoolType{T: "bool"}
	case kindFloat32, kindFloat64:
		return &schema.FloatType{T: "real"}
	case kindString:
		if size > 0 {
			return &schema.StringType{T: "varchar", Size: size}
		}
		return &schema.StringType{T: "text"}
	case kindBytes:
		return &schema.BinaryType{T: "blob"}
	case kindTime:
		return &schema.TimeType{T: "datetime"}
	case kindUUID:
		return &schema.UUIDType{T: "uuid"}
	}
	return &schema.IntegerType{T: "integer"}
}

func mysqlType(k scalarKind, size int) schema.Type {
	switch k {
	case kindBool:
		return &schema.BoolType{T: "bool"}
	case kindInt8, kindUint8:
		return &schema.IntegerType{T: "tinyint", Unsigned: k.unsigned()}
	case kindInt16, kindUint16:
		return &schema.IntegerType{T: "smallint", Unsigned: k.unsigned()}
	case kindInt32, kindUint32:
		return &schema.IntegerType{T: "int", Unsigned: k.unsigned()}
	case kindFloat32:
		return &schema.FloatType{T: "float"}
	case kindFloat64:
		return &schema.FloatType{T: "double"}
	case kindString:
		if size <= 0 {
			size = 255
		}
		return &schema.StringType{T: "varchar", Size: size}
	case kindBytes:
		if size > 0 {
			return &schema.BinaryType{T: "varbinary", Size: &size}
		}
		return &schema.BinaryType{T: "longblob"}
	case kindTime:
		return &schema.TimeType{T: "timestamp"}
	case kindUUID:
		return &schema.StringType{T: "char", Size: 36}
	}
	return &schema.IntegerType{T: "bigint", Unsigned: k.unsigned()}
}

func postgresType(k scalarKind, size int) schema.Type {
	switch k {
	case kindBool:
		return &schema.BoolType{T: "boolean"}
	case kindInt8, kindUint8, kindInt16:
		return &schema.IntegerType{T: "smallint"}
	case kindUint16, kindInt32:
		return &schema.IntegerType{T: "integer"}
	case kindFloat32:
		return &schema.FloatType{T: "real"}
	case kindFloat64:
		return &schema.FloatType{T: "double precision"}
	case kindString:
		if size > 0 {
			return &schema.StringType{T: "character varying", Size: size}
		}
		return &schema.StringType{T: "text"}
	case kindBytes:
		return &schema.BinaryType{T: "bytea"}
	case kindTime:
		return &schema.TimeType{T: "timestamp with time zone"}
	case kindUUID:
		return &schema.UUIDType{T: "uuid"}
	}
	return &schema.IntegerType{T: "bigint"}
}

// overrideType keeps the storage class of base but uses the raw type name.
func overrideType(base schema.Type, raw string) schema.Type {
	switch base.(type) {
	case *schema.BoolType:
		return &schema.BoolType{T: raw}
	case *schema.IntegerType:
		return &schema.IntegerType{T: raw}
	case *schema.FloatType:
		return &schema.FloatType{T: raw}
	case *schema.StringType:
		return &schema.StringType{T: raw}
	case *schema.BinaryType:
		return &schema.BinaryType{T: raw}
	case *schema.TimeType:
		return &schema.TimeType{T: raw}
	case *schema.UUIDType:
		return &schema.UUIDType{T: raw}
	}
	return &schema.UnsupportedType{T: raw}
}

// formatType renders a column type the way it appears in DDL.
func formatType(t schema.Type) string {
	switch t := t.(type) {
	case *schema.StringType:
		if t.Size > 0 {
			return fmt.Sprintf("%s(%d)", t.T, t.Size)
		}
		return t.T
	case *schema.BinaryType:
		if t.Size != nil {
			return fmt.Sprintf("%s(%d)", t.T, *t.Size)
		}
		return t.T
	case *schema.IntegerType:
		if t.Unsigned {
			return t.T + " unsigned"
		}
		return t.T
	case *schema.BoolType:
		return t.T
	case *schema.FloatType:
		return t.T
	case *schema.TimeType:
		return t.T
	case *schema.UUIDType:
		return t.T
	case *schema.UnsupportedType:
		return t.T
	}
	return fmt.Sprintf("%T", t)
}
