package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

const (
	signField     = "sign"
	signTypeField = "sign_type"
)

// GatewayData is the ordered parameter container shared by request
// assembly and signature verification. Serialization is insertion-order
// sensitive and deterministic: the canonical projection of the same
// entries inserted in the same order is always byte-identical, which is
// what makes signatures reproducible on both sides.
type GatewayData struct {
	keys   []string
	values map[string]string
}

func NewGatewayData() *GatewayData {
	return &GatewayData{
		values: make(map[string]string),
	}
}

// Set inserts or overwrites a single entry. A new key is appended to the
// current order; overwriting keeps the original position.
func (d *GatewayData) Set(key, value string) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

func (d *GatewayData) Get(key string) string {
	return d.values[key]
}

// Remove deletes an entry if present.
func (d *GatewayData) Remove(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *GatewayData) Len() int {
	return len(d.keys)
}

// Keys returns the current key order.
func (d *GatewayData) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// AddFields merges the exported string fields of a struct into the
// container in declaration order. Wire names come from the json tag;
// fields tagged "-" and empty values are skipped, existing entries are
// overwritten in place.
func (d *GatewayData) AddFields(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue
		}
		key := fieldKey(field)
		if key == "" {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() != reflect.String || fv.String() == "" {
			continue
		}
		d.Set(key, fv.String())
	}
}

func fieldKey(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if i := strings.Index(tag, ","); i >= 0 {
		tag = tag[:i]
	}
	if tag != "" {
		return tag
	}
	return snakeCase(field.Name)
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Sort reorders the entries lexicographically by key. The provider signs
// the sorted projection, so assembly and callback ingestion both sort
// before the canonical string is produced.
func (d *GatewayData) Sort() {
	sort.Strings(d.keys)
}

// CanonicalString renders the entries as "k=v&k=v" in current order with
// url-encoded values. With withSign false the signature and
// signature-type entries are skipped; that projection is the exact input
// to signing and verification.
func (d *GatewayData) CanonicalString(withSign bool) string {
	var b strings.Builder
	for _, key := range d.keys {
		if !withSign && (key == signField || key == signTypeField) {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(d.values[key]))
	}
	return b.String()
}

// Encode renders the full container, signature included, as the
// url-encoded POST body.
func (d *GatewayData) Encode() string {
	return d.CanonicalString(true)
}

// FromJSON replaces the contents with the fields of a JSON object. The
// payload may also arrive as a JSON-encoded string wrapping the object.
// Entries are inserted in sorted key order.
func (d *GatewayData) FromJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		trimmed = []byte(inner)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	d.reset()
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		d.Set(key, stringify(fields[key]))
	}
	return nil
}

// FromValues replaces the contents with inbound callback parameters,
// inserted in sorted key order so verification is deterministic.
func (d *GatewayData) FromValues(values url.Values) {
	d.reset()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		d.Set(key, values.Get(key))
	}
}

// ToStruct materializes the current entries into a typed result using
// its json tags.
func (d *GatewayData) ToStruct(v any) error {
	raw, err := json.Marshal(d.values)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (d *GatewayData) reset() {
	d.keys = d.keys[:0]
	for key := range d.values {
		delete(d.values, key)
	}
}

func stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if json.Unmarshal(trimmed, &s) == nil {
			return s
		}
	}
	return string(trimmed)
}
