package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ImagingDataCommons/slim-sub001/pkg/dicomweb"
	"github.com/ImagingDataCommons/slim-sub001/pkg/slides"
	"github.com/ImagingDataCommons/slim-sub001/pkg/store"
	"github.com/spf13/cobra"
)

// NewSlidesCmd creates the slides cobra command
func NewSlidesCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slides",
		Short: "group a study's series into physical slides",
		Long:  "Loads slide microscopy metadata from a DICOMweb server or local DICOM files and groups the series by physical glass slide.",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, selected, err := loadBundles(ctx, cmd, args)
			if err != nil {
				return err
			}
			result := slides.GroupSlides(bundles, selected)
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				for n, slide := range result {
					fmt.Printf("slide %d: %s\n", n, describeSlide(slide))
				}
			default:
				return printJSON(result)
			}
			return nil
		},
	}
	addGroupFlags(cmd)
	return cmd
}

// NewAcquisitionsCmd creates the acquisitions cobra command
func NewAcquisitionsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acquisitions",
		Short: "group a study's series into acquisitions",
		Long:  "Loads slide microscopy metadata from a DICOMweb server or local DICOM files and groups the series into color acquisitions plus one pooled multiplexed acquisition.",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, selected, err := loadBundles(ctx, cmd, args)
			if err != nil {
				return err
			}
			result := slides.GroupAcquisitions(bundles, selected)
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				for n, acq := range result {
					fmt.Printf("acquisition %d: %s\n", n, describeAcquisition(acq))
				}
			default:
				return printJSON(result)
			}
			return nil
		},
	}
	addGroupFlags(cmd)
	return cmd
}

func addGroupFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringP("url", "u", "", "DICOMweb server base URL")
	pf.StringP("study", "s", "", "StudyInstanceUID to load")
	pf.String("selected", "", "SeriesInstanceUID to pin as the grouping key")
	pf.StringP("format", "f", "json", "output format (text|json)")
}

// loadBundles feeds a fresh metadata store from either a DICOMweb study or
// local part-10 files given as args, then bundles each series' instances by
// image flavor for grouping.
func loadBundles(ctx context.Context, cmd *cobra.Command, args []string) ([]slides.SeriesImages, string, error) {
	serverURL, _ := cmd.Flags().GetString("url")
	studyUID, _ := cmd.Flags().GetString("study")
	selected, _ := cmd.Flags().GetString("selected")

	st := store.New()
	switch {
	case serverURL != "":
		if studyUID == "" {
			return nil, "", fmt.Errorf("a StudyInstanceUID is required, use --study")
		}
		if err := loadStudy(ctx, st, serverURL, studyUID); err != nil {
			return nil, "", err
		}
	case len(args) > 0:
		for _, path := range args {
			if err := loadFile(st, path); err != nil {
				return nil, "", err
			}
		}
		uids := st.StudyInstanceUIDs()
		if len(uids) == 0 {
			return nil, "", fmt.Errorf("no instances found in %d file(s)", len(args))
		}
		studyUID = uids[0]
	default:
		return nil, "", fmt.Errorf("either --url or DICOM file arguments are required")
	}

	study := st.Study(studyUID)
	if study == nil {
		return nil, "", fmt.Errorf("study %s not found", studyUID)
	}
	var bundles []slides.SeriesImages
	for _, series := range study.Series() {
		bundles = append(bundles,
			slides.Bundle(series.SeriesInstanceUID, series.SeriesDescription, series.Instances()))
	}
	return bundles, selected, nil
}

func loadStudy(ctx context.Context, st *store.Store, serverURL, studyUID string) error {
	client := dicomweb.NewClient(serverURL)
	summaries, err := client.SearchForSeries(ctx, studyUID)
	if err != nil {
		return fmt.Errorf("searching for series: %w", err)
	}
	st.AddSeriesMetadata(summaries, false)
	for _, summary := range summaries {
		seriesUID := summary.String("SeriesInstanceUID")
		records, err := client.RetrieveSeriesMetadata(ctx, studyUID, seriesUID)
		if err != nil {
			return fmt.Errorf("retrieving metadata of series %s: %w", seriesUID, err)
		}
		if err := st.AddInstances(records, false); err != nil {
			return fmt.Errorf("indexing series %s: %w", seriesUID, err)
		}
	}
	if study := st.Study(studyUID); study != nil {
		study.IsLoaded = true
	}
	return nil
}

func loadFile(st *store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	if _, err := st.AddInstanceBytes(f); err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}
	return nil
}

func describeSlide(s *slides.Slide) string {
	return fmt.Sprintf("key=%s frameOfReference=%s container=%s monochrome=%v series=[%s] opticalPaths=[%s] volume=%d label=%d overview=%d description=%q",
		s.Key, s.FrameOfReferenceUID, s.ContainerIdentifier, s.AreImagesMonochrome,
		strings.Join(s.SeriesInstanceUIDs, ","), strings.Join(s.OpticalPathIdentifiers, ","),
		len(s.VolumeImages), len(s.LabelImages), len(s.OverviewImages), s.Description)
}

func describeAcquisition(a *slides.Acquisition) string {
	return fmt.Sprintf("key=%s monochrome=%v series=[%s] volume=%d label=%d overview=%d description=%q",
		a.Key, a.AreImagesMonochrome, strings.Join(a.SeriesInstanceUIDs, ","),
		len(a.VolumeImages), len(a.LabelImages), len(a.OverviewImages), a.Description)
}

func printJSON(v any) error {
	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	os.Stdout.Write(j)
	fmt.Println()
	return nil
}
