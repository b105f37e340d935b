package slides

import (
	"log/slog"

	"github.com/ImagingDataCommons/slim-sub001/pkg/metadata"
)

// Slide is a set of series believed to represent one physical glass slide.
// It is a derived, read-only view: grouping rebuilds slides from scratch and
// holds no references into the metadata store beyond UID strings.
type Slide struct {
	FrameOfReferenceUID string
	ContainerIdentifier string
	// AreImagesMonochrome is classified from the first volume image the
	// slide accepted; every later image must agree.
	AreImagesMonochrome    bool
	SeriesInstanceUIDs     []string
	OpticalPathIdentifiers []string
	// Key selects which contributing series drives the primary view, and
	// KeyOpticalPathIdentifier which of its optical paths.
	Key                      string
	KeyOpticalPathIdentifier string
	Description              string
	VolumeImages             []*metadata.Instance
	LabelImages              []*metadata.Instance
	OverviewImages           []*metadata.Instance
}

// GroupSlides groups per-series image bundles into slides.
//
// Series land on the same slide when they share a frame of reference and
// monochrome/RGB classification. The container identifier is not part of
// the lookup; it is seeded from the first accepted volume image and then
// enforced per image, so a conflicting image is discarded with a warning
// rather than silently merged. Series without volume images are skipped.
//
// When a slide ends up holding more than one distinct optical path its
// description becomes "Multiplexed-Samples". selectedSeriesInstanceUID, if
// it names one of the processed series, pins that series as the slide's
// key so callers can control which series provides the primary view; pass
// "" for the default (the first contributing series).
func GroupSlides(series []SeriesImages, selectedSeriesInstanceUID string) []*Slide {
	var result []*Slide
	for _, se := range series {
		if len(se.VolumeImages) == 0 {
			slog.Warn("skipping series without volume images",
				"SeriesInstanceUID", se.SeriesInstanceUID)
			continue
		}
		first := se.VolumeImages[0]
		slide := findSlide(result, first.FrameOfReferenceUID, first.IsMonochrome())
		if slide == nil {
			slide = &Slide{
				FrameOfReferenceUID:      first.FrameOfReferenceUID,
				ContainerIdentifier:      first.ContainerIdentifier,
				AreImagesMonochrome:      first.IsMonochrome(),
				Key:                      se.SeriesInstanceUID,
				KeyOpticalPathIdentifier: first.OpticalPathIdentifier(),
				Description:              se.Description,
			}
			result = append(result, slide)
		}
		slide.mergeSeries(se, selectedSeriesInstanceUID)
		if len(slide.OpticalPathIdentifiers) > 1 {
			slide.Description = MultiplexedSamples
		}
	}
	return result
}

func findSlide(slides []*Slide, frameOfReferenceUID string, monochrome bool) *Slide {
	for _, s := range slides {
		if s.FrameOfReferenceUID == frameOfReferenceUID && s.AreImagesMonochrome == monochrome {
			return s
		}
	}
	return nil
}

// mergeSeries validates and appends one series' images, recording the
// series as a contributor and honoring the caller's series selection.
func (s *Slide) mergeSeries(se SeriesImages, selectedSeriesInstanceUID string) {
	s.addSeries(se.SeriesInstanceUID)
	selected := se.SeriesInstanceUID == selectedSeriesInstanceUID && selectedSeriesInstanceUID != ""
	for _, img := range se.VolumeImages {
		if !s.acceptVolume(img) {
			continue
		}
		s.VolumeImages = append(s.VolumeImages, img)
		s.addOpticalPath(img.OpticalPathIdentifier())
		if selected {
			s.Key = se.SeriesInstanceUID
			s.KeyOpticalPathIdentifier = img.OpticalPathIdentifier()
		}
	}
	for _, img := range se.LabelImages {
		if !s.matchesIdentity(img, "label") {
			continue
		}
		s.LabelImages = append(s.LabelImages, img)
	}
	for _, img := range se.OverviewImages {
		if !s.matchesIdentity(img, "overview") {
			continue
		}
		s.OverviewImages = append(s.OverviewImages, img)
	}
}

// acceptVolume checks a volume image against the slide's established
// spatial identity and classification.
func (s *Slide) acceptVolume(img *metadata.Instance) bool {
	if !s.matchesIdentity(img, "volume") {
		return false
	}
	if img.IsMonochrome() != s.AreImagesMonochrome {
		slog.Warn("discarding volume image with mismatched photometric classification",
			"SOPInstanceUID", img.SOPInstanceUID,
			"PhotometricInterpretation", img.PhotometricInterpretation,
			"SamplesPerPixel", img.SamplesPerPixel)
		return false
	}
	return true
}

func (s *Slide) matchesIdentity(img *metadata.Instance, flavor string) bool {
	if img.FrameOfReferenceUID != s.FrameOfReferenceUID {
		slog.Warn("discarding image with mismatched frame of reference",
			"flavor", flavor,
			"SOPInstanceUID", img.SOPInstanceUID,
			"FrameOfReferenceUID", img.FrameOfReferenceUID,
			"slideFrameOfReferenceUID", s.FrameOfReferenceUID)
		return false
	}
	if img.ContainerIdentifier != s.ContainerIdentifier {
		slog.Warn("discarding image with mismatched container identifier",
			"flavor", flavor,
			"SOPInstanceUID", img.SOPInstanceUID,
			"ContainerIdentifier", img.ContainerIdentifier,
			"slideContainerIdentifier", s.ContainerIdentifier)
		return false
	}
	return true
}

func (s *Slide) addSeries(seriesInstanceUID string) {
	for _, uid := range s.SeriesInstanceUIDs {
		if uid == seriesInstanceUID {
			return
		}
	}
	s.SeriesInstanceUIDs = append(s.SeriesInstanceUIDs, seriesInstanceUID)
}

func (s *Slide) addOpticalPath(identifier string) {
	if identifier == "" {
		return
	}
	for _, id := range s.OpticalPathIdentifiers {
		if id == identifier {
			return
		}
	}
	s.OpticalPathIdentifiers = append(s.OpticalPathIdentifiers, identifier)
}
