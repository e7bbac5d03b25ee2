package store

import (
	"fmt"
	"reflect"
	"strings"
)

func getStructFieldNamesFromInstance(instance any) []string {
	typ := reflect.TypeOf(instance)
	if typ.Kind() == reflect.Ptr { // Handle pointer types
		typ = typ.Elem()
	}

	var fields []string

	for i := range typ.NumField() {
		field := typ.Field(i)
		dbTag := field.Tag.Get("db")

		if dbTag != "" && dbTag != "-" {
			fields = append(fields, dbTag)
		}
	}

	return fields
}

func pgArrayType(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "text[]"
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "integer[]"
	case reflect.Float32, reflect.Float64:
		return "float[]"
	case reflect.Bool:
		return "boolean[]"
	default:
		return "text[]"
	}
}

// getStructFieldsFromDTO extracts field names and placeholders from a DTO struct
func getStructFieldsFromDTO(dto any) (columns string, placeholders string) {
	t := reflect.TypeOf(dto)
	if t.Kind() == reflect.Ptr {
		t = t.Elem() // Dereference pointer
	}

	var columnNames []string
	var placeholderNames []string

	for i := range t.NumField() {
		field := t.Field(i)

		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue // Skip fields without a `db` tag or explicitly ignored fields
		}

		columnNames = append(columnNames, dbTag)

		if field.Type.Kind() == reflect.Slice {
			placeholderNames = append(placeholderNames, fmt.Sprintf("CAST(:%s AS %s)", dbTag, pgArrayType(field.Type.Elem().Kind())))
		} else {
			placeholderNames = append(placeholderNames, ":"+dbTag)
		}
	}

	return strings.Join(columnNames, ", "), strings.Join(placeholderNames, ", ")
}

// getNonEmptyFieldsFromDTO builds the SET clause of an update. Nil pointers,
// empty strings and the id column are left untouched.
func getNonEmptyFieldsFromDTO(dto any, params map[string]any) string {
	v := reflect.ValueOf(dto)
	t := reflect.TypeOf(dto)

	if v.Kind() == reflect.Ptr {
		v = v.Elem()
		t = t.Elem()
	}

	var fields []string

	for i := range v.NumField() {
		field := t.Field(i)
		value := v.Field(i)

		columnName := field.Tag.Get("db")
		if columnName == "-" || columnName == "id" {
			continue
		}
		if columnName == "" {
			columnName = strings.ToLower(field.Name)
		}

		if value.Kind() == reflect.Ptr && value.IsNil() || value.Kind() == reflect.String && value.String() == "" {
			continue
		}

		if field.Type.Kind() == reflect.Slice {
			if value.IsNil() {
				continue
			}
			fields = append(fields, fmt.Sprintf("%s = CAST(:%s AS %s)", columnName, columnName, pgArrayType(field.Type.Elem().Kind())))
		} else {
			fields = append(fields, fmt.Sprintf("%s = :%s", columnName, columnName))
		}
		params[columnName] = value.Interface()
	}

	return strings.Join(fields, ", ")
}
