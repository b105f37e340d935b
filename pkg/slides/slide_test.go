package slides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ImagingDataCommons/slim-sub001/pkg/metadata"
)

func monochromeImage(sopUID, frameOfReferenceUID, containerIdentifier, opticalPathID string) *metadata.Instance {
	return &metadata.Instance{
		SOPInstanceUID:            sopUID,
		SamplesPerPixel:           1,
		PhotometricInterpretation: metadata.Monochrome2,
		FrameOfReferenceUID:       frameOfReferenceUID,
		ContainerIdentifier:       containerIdentifier,
		OpticalPaths:              []metadata.OpticalPath{{Identifier: opticalPathID}},
	}
}

func rgbImage(sopUID, frameOfReferenceUID, containerIdentifier string) *metadata.Instance {
	return &metadata.Instance{
		SOPInstanceUID:            sopUID,
		SamplesPerPixel:           3,
		PhotometricInterpretation: "RGB",
		FrameOfReferenceUID:       frameOfReferenceUID,
		ContainerIdentifier:       containerIdentifier,
	}
}

func TestGroupSlidesSkipsSeriesWithoutVolumeImages(t *testing.T) {
	series := []SeriesImages{
		{
			SeriesInstanceUID: "1.2.3.1",
			LabelImages:       []*metadata.Instance{rgbImage("1.2.3.1.1", "frame-1", "SLIDE-1")},
		},
	}
	assert.Empty(t, GroupSlides(series, ""))
}

func TestGroupSlidesSingleSeries(t *testing.T) {
	series := []SeriesImages{
		{
			SeriesInstanceUID: "1.2.3.1",
			Description:       "HE stain",
			VolumeImages: []*metadata.Instance{
				rgbImage("1.2.3.1.1", "frame-1", "SLIDE-1"),
				rgbImage("1.2.3.1.2", "frame-1", "SLIDE-1"),
			},
			LabelImages:    []*metadata.Instance{rgbImage("1.2.3.1.3", "frame-1", "SLIDE-1")},
			OverviewImages: []*metadata.Instance{rgbImage("1.2.3.1.4", "frame-1", "SLIDE-1")},
		},
	}
	result := GroupSlides(series, "")
	require.Len(t, result, 1)

	slide := result[0]
	assert.Equal(t, "frame-1", slide.FrameOfReferenceUID)
	assert.Equal(t, "SLIDE-1", slide.ContainerIdentifier)
	assert.False(t, slide.AreImagesMonochrome)
	assert.Equal(t, []string{"1.2.3.1"}, slide.SeriesInstanceUIDs)
	assert.Equal(t, "1.2.3.1", slide.Key)
	assert.Equal(t, "HE stain", slide.Description)
	assert.Len(t, slide.VolumeImages, 2)
	assert.Len(t, slide.LabelImages, 1)
	assert.Len(t, slide.OverviewImages, 1)
}

func TestGroupSlidesMergesMonochromeChannels(t *testing.T) {
	// Two monochrome channel series of the same physical slide merge into
	// one multiplexed slide.
	series := []SeriesImages{
		{
			SeriesInstanceUID: "1.2.3.1",
			VolumeImages:      []*metadata.Instance{monochromeImage("1.2.3.1.1", "frame-1", "SLIDE-1", "1")},
		},
		{
			SeriesInstanceUID: "1.2.3.2",
			VolumeImages:      []*metadata.Instance{monochromeImage("1.2.3.2.1", "frame-1", "SLIDE-1", "2")},
		},
	}
	result := GroupSlides(series, "")
	require.Len(t, result, 1)

	slide := result[0]
	assert.True(t, slide.AreImagesMonochrome)
	assert.Equal(t, []string{"1.2.3.1", "1.2.3.2"}, slide.SeriesInstanceUIDs)
	assert.Equal(t, []string{"1", "2"}, slide.OpticalPathIdentifiers)
	assert.Equal(t, MultiplexedSamples, slide.Description)
	assert.Len(t, slide.VolumeImages, 2)
}

func TestGroupSlidesClassificationForcesNewSlide(t *testing.T) {
	// An RGB series and a monochrome series sharing frame of reference and
	// container must not merge: the first-seen classification disagrees,
	// so the second series starts a slide of its own.
	series := []SeriesImages{
		{
			SeriesInstanceUID: "1.2.3.1",
			VolumeImages:      []*metadata.Instance{rgbImage("1.2.3.1.1", "frame-1", "SLIDE-1")},
		},
		{
			SeriesInstanceUID: "1.2.3.2",
			VolumeImages:      []*metadata.Instance{monochromeImage("1.2.3.2.1", "frame-1", "SLIDE-1", "1")},
		},
	}
	result := GroupSlides(series, "")
	require.Len(t, result, 2)
	assert.False(t, result[0].AreImagesMonochrome)
	assert.True(t, result[1].AreImagesMonochrome)
}

func TestGroupSlidesSeparatesFramesOfReference(t *testing.T) {
	series := []SeriesImages{
		{
			SeriesInstanceUID: "1.2.3.1",
			VolumeImages:      []*metadata.Instance{monochromeImage("1.2.3.1.1", "frame-1", "SLIDE-1", "1")},
		},
		{
			SeriesInstanceUID: "1.2.3.2",
			VolumeImages:      []*metadata.Instance{monochromeImage("1.2.3.2.1", "frame-2", "SLIDE-2", "1")},
		},
	}
	result := GroupSlides(series, "")
	require.Len(t, result, 2)
	assert.Equal(t, "SLIDE-1", result[0].ContainerIdentifier)
	assert.Equal(t, "SLIDE-2", result[1].ContainerIdentifier)
}

func TestGroupSlidesDiscardsMismatchedVolumeImages(t *testing.T) {
	// The second image disagrees with the slide's established container
	// identifier and is dropped, the rest of the series survives.
	series := []SeriesImages{
		{
			SeriesInstanceUID: "1.2.3.1",
			VolumeImages: []*metadata.Instance{
				monochromeImage("1.2.3.1.1", "frame-1", "SLIDE-1", "1"),
				monochromeImage("1.2.3.1.2", "frame-1", "SLIDE-OTHER", "1"),
				monochromeImage("1.2.3.1.3", "frame-1", "SLIDE-1", "1"),
			},
		},
	}
	result := GroupSlides(series, "")
	require.Len(t, result, 1)
	require.Len(t, result[0].VolumeImages, 2)
	assert.Equal(t, "1.2.3.1.1", result[0].VolumeImages[0].SOPInstanceUID)
	assert.Equal(t, "1.2.3.1.3", result[0].VolumeImages[1].SOPInstanceUID)
}

func TestGroupSlidesDiscardsMismatchedLabelAndOverview(t *testing.T) {
	series := []SeriesImages{
		{
			SeriesInstanceUID: "1.2.3.1",
			VolumeImages:      []*metadata.Instance{rgbImage("1.2.3.1.1", "frame-1", "SLIDE-1")},
			LabelImages: []*metadata.Instance{
				rgbImage("1.2.3.1.2", "frame-1", "SLIDE-1"),
				rgbImage("1.2.3.1.3", "frame-other", "SLIDE-1"),
			},
			OverviewImages: []*metadata.Instance{
				rgbImage("1.2.3.1.4", "frame-1", "SLIDE-OTHER"),
			},
		},
	}
	result := GroupSlides(series, "")
	require.Len(t, result, 1)
	assert.Len(t, result[0].LabelImages, 1)
	assert.Empty(t, result[0].OverviewImages)
}

func TestGroupSlidesSelectionPinsKey(t *testing.T) {
	series := []SeriesImages{
		{
			SeriesInstanceUID: "1.2.3.1",
			VolumeImages:      []*metadata.Instance{monochromeImage("1.2.3.1.1", "frame-1", "SLIDE-1", "1")},
		},
		{
			SeriesInstanceUID: "1.2.3.2",
			VolumeImages:      []*metadata.Instance{monochromeImage("1.2.3.2.1", "frame-1", "SLIDE-1", "2")},
		},
	}

	t.Run("default key is the first contributing series", func(t *testing.T) {
		result := GroupSlides(series, "")
		require.Len(t, result, 1)
		assert.Equal(t, "1.2.3.1", result[0].Key)
		assert.Equal(t, "1", result[0].KeyOpticalPathIdentifier)
	})

	t.Run("selection overrides the key", func(t *testing.T) {
		result := GroupSlides(series, "1.2.3.2")
		require.Len(t, result, 1)
		assert.Equal(t, "1.2.3.2", result[0].Key)
		assert.Equal(t, "2", result[0].KeyOpticalPathIdentifier)
	})
}

func TestGroupSlidesDoesNotMutateInput(t *testing.T) {
	img := monochromeImage("1.2.3.1.1", "frame-1", "SLIDE-1", "1")
	series := []SeriesImages{
		{SeriesInstanceUID: "1.2.3.1", VolumeImages: []*metadata.Instance{img}},
	}
	GroupSlides(series, "")
	GroupSlides(series, "")

	assert.Equal(t, "SLIDE-1", img.ContainerIdentifier)
	assert.Len(t, series[0].VolumeImages, 1)
}
