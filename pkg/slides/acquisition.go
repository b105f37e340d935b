package slides

import (
	"log/slog"

	"github.com/ImagingDataCommons/slim-sub001/pkg/metadata"
)

// Acquisition is a coarser derived grouping over a study: one entry per
// RGB-bearing series, plus at most one pooled entry aggregating all
// monochrome channel series. Like Slide it is a read-only view rebuilt on
// each grouping call.
type Acquisition struct {
	SeriesInstanceUIDs       []string
	AreImagesMonochrome      bool
	Key                      string
	KeyOpticalPathIdentifier string
	Description              string
	VolumeImages             []*metadata.Instance
	LabelImages              []*metadata.Instance
	OverviewImages           []*metadata.Instance
}

// GroupAcquisitions groups per-series image bundles into acquisitions.
//
// A series whose first volume image carries more than one sample per pixel
// (RGB/color) becomes its own acquisition, described by the series
// description. All single-sample (monochrome) series pool into one
// "Multiplexed-Samples" acquisition, emitted last and only when it received
// at least one volume image.
//
// The pooling assumes a study contains at most one multiplexed acquisition
// and that every monochrome series belongs to it. That is a heuristic about
// how scanners write studies, not a guarantee of the standard; studies with
// several independent multiplexed panels will be pooled together.
//
// The first monochrome series becomes the pooled acquisition's default key;
// selectedSeriesInstanceUID overrides it when it names a monochrome series,
// with that series' first optical path as the key optical path.
func GroupAcquisitions(series []SeriesImages, selectedSeriesInstanceUID string) []*Acquisition {
	var result []*Acquisition
	var pooled *Acquisition
	for _, se := range series {
		if len(se.VolumeImages) == 0 {
			slog.Warn("skipping series without volume images",
				"SeriesInstanceUID", se.SeriesInstanceUID)
			continue
		}
		first := se.VolumeImages[0]
		if first.SamplesPerPixel != 1 {
			result = append(result, &Acquisition{
				SeriesInstanceUIDs: []string{se.SeriesInstanceUID},
				Key:                se.SeriesInstanceUID,
				Description:        se.Description,
				VolumeImages:       se.VolumeImages,
				LabelImages:        se.LabelImages,
				OverviewImages:     se.OverviewImages,
			})
			continue
		}
		if pooled == nil {
			pooled = &Acquisition{
				AreImagesMonochrome: true,
				Key:                 se.SeriesInstanceUID,
				Description:         MultiplexedSamples,
			}
		}
		pooled.SeriesInstanceUIDs = append(pooled.SeriesInstanceUIDs, se.SeriesInstanceUID)
		pooled.VolumeImages = append(pooled.VolumeImages, se.VolumeImages...)
		pooled.LabelImages = append(pooled.LabelImages, se.LabelImages...)
		pooled.OverviewImages = append(pooled.OverviewImages, se.OverviewImages...)
		if selectedSeriesInstanceUID != "" && se.SeriesInstanceUID == selectedSeriesInstanceUID {
			pooled.Key = se.SeriesInstanceUID
			pooled.KeyOpticalPathIdentifier = first.OpticalPathIdentifier()
		}
	}
	if pooled != nil && len(pooled.VolumeImages) > 0 {
		result = append(result, pooled)
	}
	return result
}
