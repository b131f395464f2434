package querybuilder

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// InsertModel builds a single-row INSERT from the db-tagged fields of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	fields, value, err := modelFields(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(fields.columns...).
		Values(fields.values(value)...).
		Suffix(suffix).
		ToSQL()
}

// InsertModels builds one multi-row INSERT from models of the same struct type.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, errors.New("insert models are required")
	}

	builder := InsertInto(table).Suffix(suffix)
	for i := range models {
		fields, value, err := modelFields(models[i])
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if i == 0 {
			builder.Columns(fields.columns...)
		}
		builder.Values(fields.values(value)...)
	}
	return builder.ToSQL()
}

type taggedFields struct {
	columns []string
	index   []int
}

func (f taggedFields) values(v reflect.Value) []any {
	out := make([]any, len(f.index))
	for i, idx := range f.index {
		out[i] = v.Field(idx).Interface()
	}
	return out
}

var fieldCache sync.Map // reflect.Type -> taggedFields

func modelFields(model any) (taggedFields, reflect.Value, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return taggedFields{}, v, errors.New("model cannot be nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return taggedFields{}, v, errors.New("model must be struct")
	}

	if cached, ok := fieldCache.Load(v.Type()); ok {
		return cached.(taggedFields), v, nil
	}

	typ := v.Type()
	var fields taggedFields
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		column, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		column = strings.TrimSpace(column)
		if column == "" || column == "-" {
			continue
		}
		fields.columns = append(fields.columns, column)
		fields.index = append(fields.index, i)
	}
	if len(fields.columns) == 0 {
		return taggedFields{}, v, errors.New("model has no db columns")
	}

	fieldCache.Store(typ, fields)
	return fields, v, nil
}
