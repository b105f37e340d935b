package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ImagingDataCommons/slim-sub001/pkg/dicomweb"
	"github.com/spf13/cobra"
)

// NewStudiesCmd creates the studies cobra command
func NewStudiesCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studies",
		Short: "search a DICOMweb server for studies",
		Long:  "Runs a QIDO-RS study search and prints the matching study summaries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL, _ := cmd.Flags().GetString("url")
			if serverURL == "" {
				return fmt.Errorf("a DICOMweb server URL is required, use --url")
			}
			client := dicomweb.NewClient(serverURL)
			studies, err := client.SearchForStudies(ctx, nil)
			if err != nil {
				return fmt.Errorf("searching for studies: %w", err)
			}
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				for _, study := range studies {
					fmt.Printf("%s\t%s\t%s\t%s\n",
						study.String("StudyInstanceUID"),
						study.String("StudyDate"),
						strings.Join(study.Strings("ModalitiesInStudy"), ","),
						study.String("PatientID"))
				}
			default:
				j, err := json.MarshalIndent(studies, "", "  ")
				if err != nil {
					return err
				}
				os.Stdout.Write(j)
				fmt.Println()
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("url", "u", "", "DICOMweb server base URL")
	pf.StringP("format", "f", "json", "output format (text|json)")
	return cmd
}
