package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// jsonAttribute is one attribute of the DICOM JSON model (PS3.18 F.2).
type jsonAttribute struct {
	VR           string `json:"vr"`
	Value        []any  `json:"Value"`
	BulkDataURI  string `json:"BulkDataURI"`
	InlineBinary string `json:"InlineBinary"`
}

// Naturalize converts one DICOM JSON object (a map of "GGGGEEEE" tag keys to
// attribute objects, as returned by QIDO-RS and WADO-RS metadata requests)
// into a keyword-keyed Dataset. Keyword lookup is delegated to the tag
// dictionary; tags the dictionary does not know (private tags in
// particular) keep their hex key so the attribute is preserved rather than
// dropped.
func Naturalize(raw []byte) (Dataset, error) {
	var attrs map[string]jsonAttribute
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("parsing DICOM JSON: %w", err)
	}
	ds := make(Dataset, len(attrs))
	for key, attr := range attrs {
		keyword := keywordForTag(key)
		value, err := naturalizeValue(attr)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", key, err)
		}
		if value != nil {
			ds[keyword] = value
		}
	}
	return ds, nil
}

// NaturalizeAll converts a DICOM JSON array (the body of a WADO-RS
// /metadata response) into one Dataset per object.
func NaturalizeAll(raw []byte) ([]Dataset, error) {
	var objects []json.RawMessage
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, fmt.Errorf("parsing DICOM JSON array: %w", err)
	}
	out := make([]Dataset, 0, len(objects))
	for n, obj := range objects {
		ds, err := Naturalize(obj)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", n, err)
		}
		out = append(out, ds)
	}
	return out, nil
}

func naturalizeValue(attr jsonAttribute) (any, error) {
	switch {
	case attr.InlineBinary != "":
		return attr.InlineBinary, nil
	case attr.BulkDataURI != "":
		return map[string]any{"BulkDataURI": attr.BulkDataURI}, nil
	case len(attr.Value) == 0:
		return nil, nil
	}
	if attr.VR == "SQ" {
		items := make([]Dataset, 0, len(attr.Value))
		for _, item := range attr.Value {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("sequence item is not an object")
			}
			raw, err := json.Marshal(obj)
			if err != nil {
				return nil, err
			}
			ds, err := Naturalize(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, ds)
		}
		return items, nil
	}
	// Single-valued attributes collapse to a scalar, matching the
	// naturalized form consumers index into directly.
	if len(attr.Value) == 1 {
		return attr.Value[0], nil
	}
	return attr.Value, nil
}

// keywordForTag resolves a "GGGGEEEE" DICOM JSON key to its dictionary
// keyword, falling back to the uppercased hex form for unknown tags.
func keywordForTag(key string) string {
	hex := strings.ToUpper(strings.TrimSpace(key))
	if len(hex) != 8 {
		return hex
	}
	group, err := strconv.ParseUint(hex[:4], 16, 16)
	if err != nil {
		return hex
	}
	element, err := strconv.ParseUint(hex[4:], 16, 16)
	if err != nil {
		return hex
	}
	info, err := tag.Find(tag.Tag{Group: uint16(group), Element: uint16(element)})
	if err != nil || info.Name == "" {
		return hex
	}
	return info.Name
}
