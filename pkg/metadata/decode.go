package metadata

import (
	"fmt"
	"io"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Decode parses a raw part-10 DICOM object and naturalizes it. Pixel data
// is skipped; the engine only works with metadata.
func Decode(r io.Reader) (Dataset, error) {
	parsed, err := dicom.ParseUntilEOF(r, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("parsing DICOM object: %w", err)
	}
	return FromParsed(parsed), nil
}

// FromParsed naturalizes an already-parsed DICOM dataset, resolving each
// element's keyword through the tag dictionary. Elements of unknown tags
// keep their hex "GGGGEEEE" key.
func FromParsed(parsed dicom.Dataset) Dataset {
	return fromElements(parsed.Elements)
}

func fromElements(elements []*dicom.Element) Dataset {
	ds := make(Dataset, len(elements))
	for _, el := range elements {
		if el.Tag == tag.PixelData {
			continue
		}
		value := convertValue(el.Value)
		if value == nil {
			continue
		}
		keyword := fmt.Sprintf("%04X%04X", el.Tag.Group, el.Tag.Element)
		if info, err := tag.Find(el.Tag); err == nil && info.Name != "" {
			keyword = info.Name
		}
		ds[keyword] = value
	}
	return ds
}

func convertValue(v dicom.Value) any {
	if v == nil {
		return nil
	}
	switch v.ValueType() {
	case dicom.Strings:
		return collapseStrings(v.GetValue().([]string))
	case dicom.Ints:
		ints := v.GetValue().([]int)
		if len(ints) == 1 {
			return ints[0]
		}
		return ints
	case dicom.Floats:
		floats := v.GetValue().([]float64)
		if len(floats) == 1 {
			return floats[0]
		}
		return floats
	case dicom.Bytes:
		return v.GetValue()
	case dicom.Sequences:
		items := v.GetValue().([]*dicom.SequenceItemValue)
		out := make([]Dataset, 0, len(items))
		for _, item := range items {
			out = append(out, fromElements(item.GetValue().([]*dicom.Element)))
		}
		return out
	}
	return nil
}

func collapseStrings(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}
