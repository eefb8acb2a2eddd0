package patch

import (
	"reflect"
	"strings"
	"sync"
)

type fieldKind uint8

const (
	kindValue fieldKind = iota
	kindIdentifier
	kindVersion
)

type descriptor struct {
	Name  string
	JSON  string
	Index []int
	Type  reflect.Type
	Kind  fieldKind
}

type table struct {
	typ    reflect.Type
	fields []descriptor
	byName map[string]int
	byJSON map[string]int
}

var tables sync.Map

var byteSlice = reflect.TypeOf([]byte(nil))

// describe builds the per-type field table once. Scalars, enums, byte blobs and
// foreign keys are mergeable; collections and fields tagged merge:"-" are not.
func describe(t reflect.Type) *table {
	if cached, ok := tables.Load(t); ok {
		return cached.(*table)
	}
	tbl := &table{
		typ:    t,
		byName: map[string]int{},
		byJSON: map[string]int{},
	}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("merge")
		if tag == "-" {
			continue
		}
		if (f.Type.Kind() == reflect.Slice && f.Type != byteSlice) || f.Type.Kind() == reflect.Map {
			continue
		}
		d := descriptor{
			Name:  f.Name,
			JSON:  jsonName(f),
			Index: f.Index,
			Type:  f.Type,
			Kind:  kindValue,
		}
		switch tag {
		case "id":
			d.Kind = kindIdentifier
		case "version":
			d.Kind = kindVersion
		}
		tbl.byName[d.Name] = len(tbl.fields)
		if d.JSON != "" {
			tbl.byJSON[d.JSON] = len(tbl.fields)
		}
		tbl.fields = append(tbl.fields, d)
	}
	actual, _ := tables.LoadOrStore(t, tbl)
	return actual.(*table)
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func (t *table) lookup(name string) (descriptor, bool) {
	if i, ok := t.byName[name]; ok {
		return t.fields[i], true
	}
	if i, ok := t.byJSON[name]; ok {
		return t.fields[i], true
	}
	return descriptor{}, false
}

// JSONFields lists the JSON names of T's mergeable fields, identifier and version included.
func JSONFields[T any]() []string {
	tbl := describe(reflect.TypeOf((*T)(nil)).Elem())
	out := make([]string, 0, len(tbl.fields))
	for _, d := range tbl.fields {
		if d.JSON != "" {
			out = append(out, d.JSON)
		}
	}
	return out
}

// FieldName maps a JSON name to T's Go field name.
func FieldName[T any](jsonName string) (string, bool) {
	tbl := describe(reflect.TypeOf((*T)(nil)).Elem())
	i, ok := tbl.byJSON[jsonName]
	if !ok {
		return "", false
	}
	return tbl.fields[i].Name, true
}
