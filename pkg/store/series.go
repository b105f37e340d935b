package store

import "github.com/ImagingDataCommons/slim-sub001/pkg/metadata"

// Series is an ordered collection of instances sharing a SeriesInstanceUID.
// Summary attributes default from the first instance added and may later be
// overwritten by an explicit summary record. Whole-slide pyramids routinely
// carry thousands of instances per series, so membership is tracked in a
// SOPInstanceUID lookup map alongside the ordered slice.
type Series struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	Modality          string
	SeriesNumber      int
	SeriesDate        string
	SeriesTime        string
	SeriesDescription string
	Extra             metadata.Dataset

	instances []*metadata.Instance
	bySOP     map[string]*metadata.Instance
}

func newSeries(studyInstanceUID, seriesInstanceUID string) *Series {
	return &Series{
		StudyInstanceUID:  studyInstanceUID,
		SeriesInstanceUID: seriesInstanceUID,
		Extra:             metadata.Dataset{},
		bySOP:             make(map[string]*metadata.Instance),
	}
}

// Instances lists the series' instances in first-seen order.
func (se *Series) Instances() []*metadata.Instance {
	return se.instances
}

// add inserts the instance unless its SOPInstanceUID is already present, in
// which case the first-seen record is kept and returned.
func (se *Series) add(inst *metadata.Instance) *metadata.Instance {
	if existing, ok := se.bySOP[inst.SOPInstanceUID]; ok {
		warnDuplicateInstance(existing)
		return existing
	}
	se.instances = append(se.instances, inst)
	se.bySOP[inst.SOPInstanceUID] = inst
	return inst
}

// merge applies a summary record: known attributes overwrite the typed
// fields, everything else lands in Extra with scalar overwrite and shallow
// map merge.
func (se *Series) merge(ds metadata.Dataset) {
	if se.Extra == nil {
		se.Extra = metadata.Dataset{}
	}
	extra := metadata.Dataset{}
	for k := range ds {
		switch k {
		case "StudyInstanceUID", "SeriesInstanceUID":
			// Identity, never overwritten.
		case "Modality":
			se.Modality = ds.String(k)
		case "SeriesNumber":
			se.SeriesNumber = ds.Int(k)
		case "SeriesDate":
			se.SeriesDate = ds.String(k)
		case "SeriesTime":
			se.SeriesTime = ds.String(k)
		case "SeriesDescription":
			se.SeriesDescription = ds.String(k)
		default:
			extra[k] = ds[k]
		}
	}
	se.Extra.Merge(extra)
}
