// Package metadata models naturalized DICOM datasets: attribute maps keyed
// by dictionary keyword rather than by numeric tag, as returned by DICOMweb
// metadata endpoints once converted from the DICOM JSON model.
//
// Values are tolerant of both shapes produced by naturalization: a
// single-valued attribute may be stored as a scalar or as a one-element
// slice, and the typed accessors accept either.
package metadata

import (
	"fmt"
	"strconv"
)

// Dataset is a naturalized DICOM dataset. Unknown attributes are carried
// verbatim so that no metadata is lost between the wire and the consumers.
type Dataset map[string]any

// String returns the first string value for keyword, or "".
func (d Dataset) String(keyword string) string {
	switch v := d[keyword].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// Strings returns all string values for keyword.
func (d Dataset) Strings(keyword string) []string {
	switch v := d[keyword].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Int returns the first integer value for keyword, or 0. Integer-valued
// DICOM attributes arrive as JSON numbers (float64), decoded ints, or
// IS-encoded strings.
func (d Dataset) Int(keyword string) int {
	return toInt(first(d[keyword]))
}

// Float returns the first floating point value for keyword, or 0.
func (d Dataset) Float(keyword string) float64 {
	switch v := first(d[keyword]).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// Datasets returns the sequence items for keyword. Sequence attributes are
// naturalized to nested Datasets.
func (d Dataset) Datasets(keyword string) []Dataset {
	switch v := d[keyword].(type) {
	case Dataset:
		return []Dataset{v}
	case []Dataset:
		return v
	case map[string]any:
		return []Dataset{Dataset(v)}
	case []any:
		out := make([]Dataset, 0, len(v))
		for _, item := range v {
			switch ds := item.(type) {
			case Dataset:
				out = append(out, ds)
			case map[string]any:
				out = append(out, Dataset(ds))
			}
		}
		return out
	}
	return nil
}

// Merge applies other onto d: scalar values overwrite, while map-valued
// entries are shallow-merged key by key so that partial nested updates do
// not clobber attributes the update did not mention.
func (d Dataset) Merge(other Dataset) {
	for k, v := range other {
		existing, ok := d[k].(map[string]any)
		incoming, isMap := asMap(v)
		if ok && isMap {
			for nk, nv := range incoming {
				existing[nk] = nv
			}
			continue
		}
		if isMap {
			// Copy so later merges never alias the caller's map.
			cp := make(map[string]any, len(incoming))
			for nk, nv := range incoming {
				cp[nk] = nv
			}
			d[k] = cp
			continue
		}
		d[k] = v
	}
}

// Clone returns a shallow copy of d. Nested values are shared.
func (d Dataset) Clone() Dataset {
	cp := make(Dataset, len(d))
	for k, v := range d {
		cp[k] = v
	}
	return cp
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Dataset:
		return m, true
	}
	return nil, false
}

func first(v any) any {
	switch vv := v.(type) {
	case []any:
		if len(vv) == 0 {
			return nil
		}
		return vv[0]
	case []string:
		if len(vv) == 0 {
			return nil
		}
		return vv[0]
	case []int:
		if len(vv) == 0 {
			return nil
		}
		return vv[0]
	case []float64:
		if len(vv) == 0 {
			return nil
		}
		return vv[0]
	}
	return v
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err == nil {
			return i
		}
	}
	return 0
}
