package assets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"asset-exporter/core/utils"
)

var (
	// ErrNotFound is returned for paths absent from the file index.
	ErrNotFound = errors.New("asset not found")
	// ErrEncrypted is returned when a package's key has not been mounted.
	ErrEncrypted = errors.New("asset is encrypted")
	// ErrRowNotFound is returned by DecodeRow for unknown row names.
	ErrRowNotFound = errors.New("row not found")
)

// Package is a decoded package document.
type Package struct {
	Path              string    `json:"path"`
	EncryptionKeyGuid string    `json:"encryptionKeyGuid,omitempty"`
	Exports           []*Object `json:"exports"`
}

// Export returns the export called name, falling back to the generated
// class name "<name>_C". Names are compared case-insensitively.
func (p *Package) Export(name string) (*Object, bool) {
	for _, candidate := range []string{name, name + "_C"} {
		for _, obj := range p.Exports {
			if strings.EqualFold(obj.Name, candidate) {
				return obj, true
			}
		}
	}
	return nil, false
}

// MainExport returns the export named after the package file.
func (p *Package) MainExport() (*Object, bool) {
	return p.Export(NameWithoutExtension(p.Path))
}

// CurveKey is one key of a simple curve.
type CurveKey struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Curve is a simple curve with keys in ascending time order.
type Curve struct {
	Keys []CurveKey `json:"keys"`
}

// Eval interpolates the curve linearly at t. Values outside the key range
// clamp to the first or last key; an empty curve evaluates to 0.
func (c Curve) Eval(t float64) float64 {
	n := len(c.Keys)
	if n == 0 {
		return 0
	}
	if t <= c.Keys[0].Time {
		return c.Keys[0].Value
	}
	if t >= c.Keys[n-1].Time {
		return c.Keys[n-1].Value
	}

	i := sort.Search(n, func(i int) bool { return c.Keys[i].Time >= t })
	hi, lo := c.Keys[i], c.Keys[i-1]
	if hi.Time == lo.Time {
		return hi.Value
	}
	alpha := (t - lo.Time) / (hi.Time - lo.Time)
	return lo.Value + alpha*(hi.Value-lo.Value)
}

// Object is one exported object of a package.
type Object struct {
	Name       string                     `json:"name"`
	Class      string                     `json:"class,omitempty"`
	Properties map[string]any             `json:"properties,omitempty"`
	Rows       map[string]json.RawMessage `json:"rows,omitempty"`
	Curves     map[string]Curve           `json:"curves,omitempty"`
	Data       []byte                     `json:"data,omitempty"`
}

// RowHandle references a row of a data table.
type RowHandle struct {
	DataTable string
	RowName   string
}

// CurveHandle references a row of a curve table.
type CurveHandle struct {
	CurveTable string
	RowName    string
}

// Get returns a property value. Nil values count as absent.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.Properties[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Text returns the first present text property among keys. Text values may be
// plain strings or objects with a "text" or "sourceString" field.
func (o *Object) Text(keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := o.Get(key)
		if !ok {
			continue
		}
		if s, ok := textValue(v); ok {
			return s, true
		}
	}
	return "", false
}

func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		for _, field := range []string{"text", "Text", "sourceString", "SourceString"} {
			if s, ok := t[field].(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// String returns a property converted to string, or "".
func (o *Object) String(key string) string {
	v, _ := o.Get(key)
	return utils.ToString(v)
}

// Int returns a property converted to int, or 0.
func (o *Object) Int(key string) int {
	v, _ := o.Get(key)
	return utils.ToInt(v)
}

// Bool returns a property converted to bool, or def when absent.
func (o *Object) Bool(key string, def bool) bool {
	v, ok := o.Get(key)
	if !ok {
		return def
	}
	return utils.ToBool(v)
}

// RowHandle reads a data table row handle property. ok is false when the
// handle is missing, has no table or names the "None" row.
func (o *Object) RowHandle(key string) (RowHandle, bool) {
	v, _ := o.Get(key)
	return rowHandle(v)
}

// RowHandles reads an array of row handles, skipping invalid entries.
func (o *Object) RowHandles(key string) []RowHandle {
	v, _ := o.Get(key)
	list, _ := v.([]any)
	out := make([]RowHandle, 0, len(list))
	for _, entry := range list {
		if h, ok := rowHandle(entry); ok {
			out = append(out, h)
		}
	}
	return out
}

func rowHandle(v any) (RowHandle, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return RowHandle{}, false
	}
	h := RowHandle{DataTable: utils.ToString(m["DataTable"]), RowName: utils.ToString(m["RowName"])}
	if h.DataTable == "" || validRowName(h.RowName) == "" {
		return RowHandle{}, false
	}
	return h, true
}

// CurveHandle reads a curve table row handle property.
func (o *Object) CurveHandle(key string) (CurveHandle, bool) {
	v, _ := o.Get(key)
	m, ok := v.(map[string]any)
	if !ok {
		return CurveHandle{}, false
	}
	h := CurveHandle{CurveTable: utils.ToString(m["CurveTable"]), RowName: utils.ToString(m["RowName"])}
	if h.CurveTable == "" || validRowName(h.RowName) == "" {
		return CurveHandle{}, false
	}
	return h, true
}

func validRowName(name string) string {
	if name == "" || strings.EqualFold(name, "None") {
		return ""
	}
	return name
}

// SoftPath reads a soft object reference, either a plain string or an object
// with "AssetPathName".
func (o *Object) SoftPath(key string) (string, bool) {
	v, _ := o.Get(key)
	return softPath(v)
}

func softPath(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case map[string]any:
		s = utils.ToString(t["AssetPathName"])
	}
	if s == "" || strings.EqualFold(s, "None") {
		return "", false
	}
	return s, true
}

// DataListValue returns key from the first DataList entry that has it.
func (o *Object) DataListValue(key string) (any, bool) {
	v, _ := o.Get("DataList")
	list, _ := v.([]any)
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if value, ok := m[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

// DataListSoftPath returns a soft object reference from the DataList.
func (o *Object) DataListSoftPath(key string) (string, bool) {
	v, ok := o.DataListValue(key)
	if !ok {
		return "", false
	}
	return softPath(v)
}

// RowNames returns the data table row names in lexical order.
func (o *Object) RowNames() []string {
	names := make([]string, 0, len(o.Rows))
	for name := range o.Rows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CurveNames returns the curve table row names in lexical order.
func (o *Object) CurveNames() []string {
	names := make([]string, 0, len(o.Curves))
	for name := range o.Curves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeRow decodes a data table row into v.
func (o *Object) DecodeRow(name string, v any) error {
	raw, ok := o.Rows[name]
	if !ok {
		for rowName, r := range o.Rows {
			if strings.EqualFold(rowName, name) {
				raw, ok = r, true
				break
			}
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrRowNotFound, name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode row %s: %w", name, err)
	}
	return nil
}

func decodePackage(data []byte, path string) (*Package, error) {
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to decode package %s: %w", path, err)
	}
	if pkg.Path == "" {
		pkg.Path = path
	}
	return &pkg, nil
}
