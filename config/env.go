package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// loadFromEnv walks the config struct and overrides any field whose `env`
// tag names a set environment variable. Nested structs are visited so their
// tags apply too.
func loadFromEnv(cfg *Config) error {
	return loadStruct(reflect.ValueOf(cfg).Elem())
}

func loadStruct(val reflect.Value) error {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if field.Kind() == reflect.Struct && fieldType.Type != reflect.TypeOf(time.Duration(0)) {
			if err := loadStruct(field); err != nil {
				return err
			}
			continue
		}

		name := fieldType.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if err := setField(field, fieldType, raw); err != nil {
			return fmt.Errorf("set %s from %s: %w", fieldType.Name, name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, fieldType reflect.StructField, raw string) error {
	if !field.CanSet() {
		return fmt.Errorf("field %s is not settable", fieldType.Name)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(v)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fieldType.Type == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration %q", raw)
			}
			field.SetInt(int64(d))
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(v)

	case reflect.Slice:
		return setSlice(field, fieldType, raw)

	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// setSlice parses comma-separated values into string or int64 slices.
func setSlice(field reflect.Value, fieldType reflect.StructField, raw string) error {
	parts := strings.Split(raw, ",")
	switch fieldType.Type.Elem().Kind() {
	case reflect.String:
		out := reflect.MakeSlice(fieldType.Type, len(parts), len(parts))
		for i, part := range parts {
			out.Index(i).SetString(strings.TrimSpace(part))
		}
		field.Set(out)
	case reflect.Int64:
		out := reflect.MakeSlice(fieldType.Type, len(parts), len(parts))
		for i, part := range parts {
			v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer %q in list", part)
			}
			out.Index(i).SetInt(v)
		}
		field.Set(out)
	default:
		return fmt.Errorf("unsupported slice type %s", fieldType.Type.Elem().Kind())
	}
	return nil
}
