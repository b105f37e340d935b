package store

import "github.com/ImagingDataCommons/slim-sub001/pkg/metadata"

// Study is an ordered collection of series sharing a StudyInstanceUID, with
// study-level summary attributes. Studies are created lazily on first sight
// of a record referencing them and live for the session.
type Study struct {
	StudyInstanceUID              string
	StudyID                       string
	StudyDate                     string
	StudyTime                     string
	StudyDescription              string
	AccessionNumber               string
	PatientID                     string
	PatientName                   string
	PatientBirthDate              string
	PatientSex                    string
	ModalitiesInStudy             []string
	NumberOfStudyRelatedSeries    int
	NumberOfStudyRelatedInstances int
	// IsLoaded is flipped by the session driver once every series summary
	// the server reported has had its instance metadata retrieved.
	IsLoaded bool
	Extra    metadata.Dataset

	seriesList []*Series
}

func newStudy(studyInstanceUID string) *Study {
	return &Study{
		StudyInstanceUID: studyInstanceUID,
		Extra:            metadata.Dataset{},
	}
}

// Series lists the study's series in first-seen order.
func (st *Study) Series() []*Series {
	return st.seriesList
}

// SetSeriesMetadata merges a summary record onto the series with the given
// UID, creating a bare series first when it does not exist yet (an upsert,
// unlike Store.UpdateSeriesMetadata).
func (st *Study) SetSeriesMetadata(seriesInstanceUID string, summary metadata.Dataset) {
	series := st.series(seriesInstanceUID)
	if series == nil {
		series = newSeries(st.StudyInstanceUID, seriesInstanceUID)
		st.seriesList = append(st.seriesList, series)
	}
	series.merge(summary)
}

func (st *Study) series(seriesInstanceUID string) *Series {
	for _, series := range st.seriesList {
		if series.SeriesInstanceUID == seriesInstanceUID {
			return series
		}
	}
	return nil
}

// findOrCreateSeries returns the series, creating it with summary defaults
// taken from the first instance's record when absent.
func (st *Study) findOrCreateSeries(seriesInstanceUID string, ds metadata.Dataset) *Series {
	if series := st.series(seriesInstanceUID); series != nil {
		return series
	}
	series := newSeries(st.StudyInstanceUID, seriesInstanceUID)
	series.Modality = ds.String("Modality")
	series.SeriesNumber = ds.Int("SeriesNumber")
	series.SeriesDate = ds.String("SeriesDate")
	series.SeriesTime = ds.String("SeriesTime")
	series.SeriesDescription = ds.String("SeriesDescription")
	st.seriesList = append(st.seriesList, series)
	return series
}

// addModality appends a modality code unless it is empty or already listed.
func (st *Study) addModality(modality string) {
	if modality == "" {
		return
	}
	for _, m := range st.ModalitiesInStudy {
		if m == modality {
			return
		}
	}
	st.ModalitiesInStudy = append(st.ModalitiesInStudy, modality)
}

// merge applies a study-level summary record: known attributes overwrite
// the typed fields, everything else lands in Extra with scalar overwrite
// and shallow map merge.
func (st *Study) merge(ds metadata.Dataset) {
	if st.Extra == nil {
		st.Extra = metadata.Dataset{}
	}
	extra := metadata.Dataset{}
	for k := range ds {
		switch k {
		case "StudyInstanceUID":
			// Identity, never overwritten.
		case "StudyID":
			st.StudyID = ds.String(k)
		case "StudyDate":
			st.StudyDate = ds.String(k)
		case "StudyTime":
			st.StudyTime = ds.String(k)
		case "StudyDescription":
			st.StudyDescription = ds.String(k)
		case "AccessionNumber":
			st.AccessionNumber = ds.String(k)
		case "PatientID":
			st.PatientID = ds.String(k)
		case "PatientName":
			st.PatientName = personName(ds, k)
		case "PatientBirthDate":
			st.PatientBirthDate = ds.String(k)
		case "PatientSex":
			st.PatientSex = ds.String(k)
		case "ModalitiesInStudy":
			for _, m := range ds.Strings(k) {
				st.addModality(m)
			}
		case "NumberOfStudyRelatedSeries":
			st.NumberOfStudyRelatedSeries = ds.Int(k)
		case "NumberOfStudyRelatedInstances":
			st.NumberOfStudyRelatedInstances = ds.Int(k)
		default:
			extra[k] = ds[k]
		}
	}
	st.Extra.Merge(extra)
}

// personName unwraps the DICOM JSON person-name object form
// ({"Alphabetic": "..."}); plain strings pass through.
func personName(ds metadata.Dataset, keyword string) string {
	if s := ds.String(keyword); s != "" {
		return s
	}
	for _, item := range ds.Datasets(keyword) {
		if alphabetic := item.String("Alphabetic"); alphabetic != "" {
			return alphabetic
		}
	}
	return ""
}
