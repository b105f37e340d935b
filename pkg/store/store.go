// Package store maintains the in-memory Study → Series → Instance metadata
// index a viewer session works against. Records arrive incrementally from a
// DICOMweb backend (or are created in the client), are deduplicated by their
// DICOM UIDs, and change notifications go out over an event bus so worklist
// and viewer consumers can react as a study loads.
//
// A Store is plain shared mutable state for one session. It assumes a
// single logical caller: mutating it concurrently from multiple goroutines
// is unsupported.
package store

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ImagingDataCommons/slim-sub001/pkg/metadata"
	"github.com/ImagingDataCommons/slim-sub001/pkg/pubsub"
)

// Event names broadcast by the store.
const (
	EventStudyAdded     = "STUDY_ADDED"
	EventInstancesAdded = "INSTANCES_ADDED"
	EventSeriesAdded    = "SERIES_ADDED"
	EventSeriesUpdated  = "SERIES_UPDATED"
)

// StudyAdded is the payload of EventStudyAdded.
type StudyAdded struct {
	StudyInstanceUID string
}

// InstancesAdded is the payload of EventInstancesAdded.
type InstancesAdded struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	MadeInClient      bool
}

// SeriesAdded is the payload of EventSeriesAdded.
type SeriesAdded struct {
	StudyInstanceUID string
	SeriesSummaries  []metadata.Dataset
	MadeInClient     bool
}

// SeriesUpdated is the payload of EventSeriesUpdated.
type SeriesUpdated struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
}

// Store indexes metadata for the studies of one viewer session. Create one
// per session with New; it is not a process-wide singleton.
type Store struct {
	bus     *pubsub.Bus
	studies []*Study
}

// New creates an empty Store with its own event bus.
func New() *Store {
	return &Store{
		bus: pubsub.New(
			EventStudyAdded,
			EventInstancesAdded,
			EventSeriesAdded,
			EventSeriesUpdated,
		),
	}
}

// Subscribe registers a callback for one of the store's event names.
func (s *Store) Subscribe(event string, fn pubsub.Callback) (*pubsub.Subscription, error) {
	return s.bus.Subscribe(event, fn)
}

// AddInstance naturalizes and indexes a single instance record, creating
// the owning study and series on first sight. Re-adding an instance whose
// SOPInstanceUID is already present in its series is a no-op (the first-seen
// record wins). No event is broadcast; use AddInstances when consumers
// should be notified.
func (s *Store) AddInstance(ds metadata.Dataset) (*metadata.Instance, error) {
	inst := metadata.NewInstance(ds)
	if inst.StudyInstanceUID == "" || inst.SeriesInstanceUID == "" {
		return nil, fmt.Errorf("instance record lacks StudyInstanceUID or SeriesInstanceUID")
	}
	study := s.findOrCreateStudy(inst.StudyInstanceUID)
	series := study.findOrCreateSeries(inst.SeriesInstanceUID, ds)
	return series.add(inst), nil
}

// AddInstanceBytes decodes a raw part-10 DICOM object and adds it, see
// AddInstance. Decoding is delegated to the external codec.
func (s *Store) AddInstanceBytes(r io.Reader) (*metadata.Instance, error) {
	ds, err := metadata.Decode(r)
	if err != nil {
		return nil, err
	}
	return s.AddInstance(ds)
}

// AddInstances indexes a batch of instance records that all belong to one
// series; study and series identity is read from the first record. After
// insertion EventInstancesAdded is broadcast unconditionally — even when
// every record was already present — because consumers need to know the
// series finished loading regardless of cache hits. madeInClient marks
// batches created locally (annotations, derived objects) rather than
// retrieved from a server.
func (s *Store) AddInstances(records []metadata.Dataset, madeInClient bool) error {
	if len(records) == 0 {
		return nil
	}
	studyUID := records[0].String("StudyInstanceUID")
	seriesUID := records[0].String("SeriesInstanceUID")
	for _, ds := range records {
		if _, err := s.AddInstance(ds); err != nil {
			return err
		}
	}
	s.bus.Broadcast(EventInstancesAdded, InstancesAdded{
		StudyInstanceUID:  studyUID,
		SeriesInstanceUID: seriesUID,
		MadeInClient:      madeInClient,
	})
	return nil
}

// AddSeriesMetadata indexes per-series summary records (no instance-level
// data), creating the owning study when absent. The study's
// ModalitiesInStudy accumulates each distinct modality across the summaries
// and NumberOfStudyRelatedSeries reflects the summary count. Broadcasts
// EventSeriesAdded. A nil or empty summary slice is a benign no-op.
func (s *Store) AddSeriesMetadata(summaries []metadata.Dataset, madeInClient bool) {
	if len(summaries) == 0 {
		return
	}
	studyUID := summaries[0].String("StudyInstanceUID")
	study := s.findOrCreateStudy(studyUID)
	if study.StudyDescription == "" {
		study.StudyDescription = summaries[0].String("StudyDescription")
	}
	for _, summary := range summaries {
		study.addModality(summary.String("Modality"))
	}
	study.NumberOfStudyRelatedSeries = len(summaries)
	for _, summary := range summaries {
		study.SetSeriesMetadata(summary.String("SeriesInstanceUID"), summary)
	}
	s.bus.Broadcast(EventSeriesAdded, SeriesAdded{
		StudyInstanceUID: studyUID,
		SeriesSummaries:  summaries,
		MadeInClient:     madeInClient,
	})
}

// UpdateSeriesMetadata merges a summary record onto an already-known
// series, identified by the record's StudyInstanceUID/SeriesInstanceUID.
// Unknown studies or series are silently ignored: this is an update, not an
// upsert. Broadcasts EventSeriesUpdated when the series was found.
func (s *Store) UpdateSeriesMetadata(summary metadata.Dataset) {
	studyUID := summary.String("StudyInstanceUID")
	seriesUID := summary.String("SeriesInstanceUID")
	study := s.Study(studyUID)
	if study == nil {
		return
	}
	series := study.series(seriesUID)
	if series == nil {
		return
	}
	series.merge(summary)
	s.bus.Broadcast(EventSeriesUpdated, SeriesUpdated{
		StudyInstanceUID:  studyUID,
		SeriesInstanceUID: seriesUID,
	})
}

// AddStudy indexes a study-level summary record unless a study with the
// same StudyInstanceUID already exists, in which case the call is a no-op
// and existing attributes are left untouched. Broadcasts EventStudyAdded
// when the study was created.
func (s *Store) AddStudy(summary metadata.Dataset) {
	uid := summary.String("StudyInstanceUID")
	if uid == "" || s.Study(uid) != nil {
		return
	}
	study := newStudy(uid)
	study.merge(summary)
	s.studies = append(s.studies, study)
	s.bus.Broadcast(EventStudyAdded, StudyAdded{StudyInstanceUID: uid})
}

// StudyInstanceUIDs lists the indexed studies in first-seen order.
func (s *Store) StudyInstanceUIDs() []string {
	uids := make([]string, 0, len(s.studies))
	for _, study := range s.studies {
		uids = append(uids, study.StudyInstanceUID)
	}
	return uids
}

// Study returns the study with the given UID, or nil. Misses are expected
// while a session is still loading.
func (s *Store) Study(studyInstanceUID string) *Study {
	for _, study := range s.studies {
		if study.StudyInstanceUID == studyInstanceUID {
			return study
		}
	}
	return nil
}

// Series returns the series with the given UIDs, or nil.
func (s *Store) Series(studyInstanceUID, seriesInstanceUID string) *Series {
	study := s.Study(studyInstanceUID)
	if study == nil {
		return nil
	}
	return study.series(seriesInstanceUID)
}

// Instance returns the instance with the given UID triple, or nil.
func (s *Store) Instance(studyInstanceUID, seriesInstanceUID, sopInstanceUID string) *metadata.Instance {
	series := s.Series(studyInstanceUID, seriesInstanceUID)
	if series == nil {
		return nil
	}
	return series.bySOP[sopInstanceUID]
}

// InstanceByImageID scans every indexed instance for the given rendering
// image identifier, or returns nil.
func (s *Store) InstanceByImageID(imageID string) *metadata.Instance {
	for _, study := range s.studies {
		for _, series := range study.seriesList {
			for _, inst := range series.instances {
				if inst.ImageID == imageID {
					return inst
				}
			}
		}
	}
	return nil
}

// UpdateMetadataForSeries applies the given attributes to every instance of
// the series (not to the series record itself), with scalar overwrite and
// shallow map merge. Unknown study or series is a no-op.
func (s *Store) UpdateMetadataForSeries(studyInstanceUID, seriesInstanceUID string, ds metadata.Dataset) {
	series := s.Series(studyInstanceUID, seriesInstanceUID)
	if series == nil {
		return
	}
	for _, inst := range series.instances {
		inst.Apply(ds)
	}
}

func (s *Store) findOrCreateStudy(studyInstanceUID string) *Study {
	if study := s.Study(studyInstanceUID); study != nil {
		return study
	}
	study := newStudy(studyInstanceUID)
	s.studies = append(s.studies, study)
	return study
}

func warnDuplicateInstance(inst *metadata.Instance) {
	slog.Debug("instance already present, keeping first-seen record",
		"SOPInstanceUID", inst.SOPInstanceUID,
		"SeriesInstanceUID", inst.SeriesInstanceUID)
}
