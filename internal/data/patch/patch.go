// Package patch implements merge-patch over any entity type: fields the caller
// supplied replace the target's values, everything else is left untouched.
package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
)

type entry struct {
	null  bool
	value reflect.Value
}

// Document is the untyped form of a patch: the declared entity type plus the
// supplied fields keyed by Go field name.
type Document struct {
	typ     reflect.Type
	entries map[string]entry
}

func newDocument(t reflect.Type) *Document {
	return &Document{typ: t, entries: map[string]entry{}}
}

// Type is the entity type the document was declared against.
func (d *Document) Type() reflect.Type { return d.typ }

// Len is the number of supplied fields.
func (d *Document) Len() int { return len(d.entries) }

// Patch is a merge-patch for entity type T.
type Patch[T any] struct {
	doc *Document
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// New returns an empty patch for T.
func New[T any]() Patch[T] {
	return Patch[T]{doc: newDocument(typeOf[T]())}
}

// Parse decodes a JSON object into a patch. Absent keys stay unset, JSON null
// becomes an explicit null, unknown keys are ignored.
func Parse[T any](raw []byte) (Patch[T], error) {
	const op = "patch.Parse"
	p := New[T]()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return p, domainagg.NewValidationError(op, domainagg.Violation{Field: "", Reason: "patch body must be a JSON object"})
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return p, domainagg.NewValidationError(op, domainagg.Violation{Field: "", Reason: err.Error()})
	}
	tbl := describe(p.doc.typ)
	var violations []domainagg.Violation
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		d, ok := tbl.byJSON[key]
		if !ok {
			continue
		}
		desc := tbl.fields[d]
		value := bytes.TrimSpace(fields[key])
		if bytes.Equal(value, []byte("null")) {
			p.doc.entries[desc.Name] = entry{null: true}
			continue
		}
		ptr := reflect.New(desc.Type)
		if err := json.Unmarshal(value, ptr.Interface()); err != nil {
			violations = append(violations, domainagg.Violation{Field: key, Reason: domainagg.ReasonInvalidValue})
			continue
		}
		p.doc.entries[desc.Name] = entry{value: ptr.Elem()}
	}
	if len(violations) > 0 {
		return p, domainagg.NewValidationError(op, violations...)
	}
	return p, nil
}

// Full builds a patch that supplies every mergeable field of entity with its
// current value; nil fields are supplied as explicit nulls.
func Full[T any](entity T) Patch[T] {
	p := New[T]()
	tbl := describe(p.doc.typ)
	v := reflect.ValueOf(entity)
	for _, d := range tbl.fields {
		fv := v.FieldByIndex(d.Index)
		if isNil(fv) {
			p.doc.entries[d.Name] = entry{null: true}
			continue
		}
		p.doc.entries[d.Name] = entry{value: fv}
	}
	return p
}

func (p Patch[T]) document() *Document {
	if p.doc == nil {
		return newDocument(typeOf[T]())
	}
	return p.doc
}

// Document exposes the untyped form, for Merge.
func (p Patch[T]) Document() *Document { return p.document() }

// Set supplies name (Go or JSON field name) with v. A value of the pointee type
// is accepted for pointer fields. Unknown names or unassignable values panic,
// like reflect does for programmer errors.
func (p Patch[T]) Set(name string, v any) Patch[T] {
	doc := p.document()
	desc, ok := describe(doc.typ).lookup(name)
	if !ok {
		panic(fmt.Sprintf("patch: %s has no mergeable field %q", doc.typ, name))
	}
	if v == nil {
		doc.entries[desc.Name] = entry{null: true}
		return Patch[T]{doc: doc}
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(desc.Type):
	case desc.Type.Kind() == reflect.Pointer && rv.Type().AssignableTo(desc.Type.Elem()):
		ptr := reflect.New(desc.Type.Elem())
		ptr.Elem().Set(rv)
		rv = ptr
	case desc.Type.Kind() == reflect.Pointer && rv.Kind() == desc.Type.Elem().Kind() && rv.Type().ConvertibleTo(desc.Type.Elem()):
		ptr := reflect.New(desc.Type.Elem())
		ptr.Elem().Set(rv.Convert(desc.Type.Elem()))
		rv = ptr
	default:
		panic(fmt.Sprintf("patch: cannot use %s as %s for %s.%s", rv.Type(), desc.Type, doc.typ, desc.Name))
	}
	doc.entries[desc.Name] = entry{value: rv}
	return Patch[T]{doc: doc}
}

// SetNull supplies name as an explicit null.
func (p Patch[T]) SetNull(name string) Patch[T] {
	return p.Set(name, nil)
}

// Has reports whether name was supplied, null included.
func (p Patch[T]) Has(name string) bool {
	doc := p.document()
	desc, ok := describe(doc.typ).lookup(name)
	if !ok {
		return false
	}
	_, ok = doc.entries[desc.Name]
	return ok
}

// Fields lists the supplied Go field names, sorted.
func (p Patch[T]) Fields() []string {
	doc := p.document()
	out := make([]string, 0, len(doc.entries))
	for name := range doc.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup reads a supplied field as a three-state value.
func Lookup[V any, T any](p Patch[T], name string) Field[V] {
	doc := p.document()
	desc, ok := describe(doc.typ).lookup(name)
	if !ok {
		return Unset[V]()
	}
	e, ok := doc.entries[desc.Name]
	if !ok {
		return Unset[V]()
	}
	if e.null {
		return Null[V]()
	}
	if v, ok := e.value.Interface().(V); ok {
		return Value(v)
	}
	if e.value.Kind() == reflect.Pointer && !e.value.IsNil() {
		if v, ok := e.value.Elem().Interface().(V); ok {
			return Value(v)
		}
	}
	return Unset[V]()
}

// Identifier returns the identifier field as supplied by the caller.
func (p Patch[T]) Identifier() Field[any] {
	return p.kindField(kindIdentifier)
}

// Version returns the version field as supplied by the caller.
func (p Patch[T]) Version() Field[any] {
	return p.kindField(kindVersion)
}

func (p Patch[T]) kindField(k fieldKind) Field[any] {
	doc := p.document()
	for _, d := range describe(doc.typ).fields {
		if d.Kind != k {
			continue
		}
		e, ok := doc.entries[d.Name]
		switch {
		case !ok:
			return Unset[any]()
		case e.null:
			return Null[any]()
		default:
			return Value[any](e.value.Interface())
		}
	}
	return Unset[any]()
}

// Apply merges p into a copy of target and returns the copy. The identifier and
// version always come from target; collections are never touched.
func Apply[T any](target T, p Patch[T]) (T, error) {
	merged := target
	if err := Merge(&merged, p.document()); err != nil {
		return target, err
	}
	return merged, nil
}

// Merge applies doc onto the struct target points at. It fails with a
// merge_type error when doc was declared for a different type.
func Merge(target any, doc *Document) error {
	const op = "patch.Merge"
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return domainagg.NewMergeTypeError(op, fmt.Sprintf("%T", target), docTypeName(doc))
	}
	elem := rv.Elem()
	if doc == nil {
		return nil
	}
	if doc.typ != elem.Type() {
		return domainagg.NewMergeTypeError(op, elem.Type().String(), docTypeName(doc))
	}
	for _, d := range describe(doc.typ).fields {
		if d.Kind != kindValue {
			continue
		}
		e, ok := doc.entries[d.Name]
		if !ok {
			continue
		}
		dst := elem.FieldByIndex(d.Index)
		if e.null {
			dst.Set(reflect.Zero(d.Type))
			continue
		}
		dst.Set(e.value)
	}
	return nil
}

func docTypeName(doc *Document) string {
	if doc == nil || doc.typ == nil {
		return "<nil>"
	}
	return doc.typ.String()
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	}
	return false
}
