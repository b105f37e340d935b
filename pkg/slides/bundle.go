// Package slides derives clinically meaningful groupings from flat
// per-series whole-slide microscopy metadata: slides (series sharing one
// physical glass slide) and acquisitions (per-color-series plus one pooled
// multiplexed grouping). Both groupings are pure functions over metadata
// shapes; they never mutate their inputs and are rebuilt from scratch on
// each call.
package slides

import (
	"log/slog"

	"github.com/ImagingDataCommons/slim-sub001/pkg/metadata"
)

// MultiplexedSamples is the description given to groupings that pool more
// than one optical path (multi-channel acquisitions).
const MultiplexedSamples = "Multiplexed-Samples"

// SeriesImages is the per-series input bundle for grouping: the series
// identity plus its image metadata split by flavor.
type SeriesImages struct {
	SeriesInstanceUID string
	Description       string
	VolumeImages      []*metadata.Instance
	LabelImages       []*metadata.Instance
	OverviewImages    []*metadata.Instance
}

// Bundle splits a series' instances into volume, label and overview images
// by their ImageType flavor. Thumbnails are lower-resolution volume images
// and pool with the volumes. Instances without a recognized flavor are
// skipped.
func Bundle(seriesInstanceUID, description string, instances []*metadata.Instance) SeriesImages {
	bundle := SeriesImages{
		SeriesInstanceUID: seriesInstanceUID,
		Description:       description,
	}
	for _, inst := range instances {
		switch inst.Flavor() {
		case metadata.FlavorVolume, metadata.FlavorThumbnail:
			bundle.VolumeImages = append(bundle.VolumeImages, inst)
		case metadata.FlavorLabel:
			bundle.LabelImages = append(bundle.LabelImages, inst)
		case metadata.FlavorOverview:
			bundle.OverviewImages = append(bundle.OverviewImages, inst)
		default:
			slog.Debug("skipping instance without image flavor",
				"SOPInstanceUID", inst.SOPInstanceUID,
				"SeriesInstanceUID", seriesInstanceUID)
		}
	}
	return bundle
}
