// Package dicomweb is a thin QIDO-RS/WADO-RS metadata client. It fetches
// DICOM JSON and hands back naturalized datasets; retries, authentication
// and bulk data retrieval are the caller's concern.
package dicomweb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ImagingDataCommons/slim-sub001/pkg/metadata"
)

const acceptDICOMJSON = "application/dicom+json"

// Client talks to one DICOMweb origin.
type Client struct {
	baseURL string
	hc      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, e.g. to install
// transport-level authentication.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// NewClient creates a client for the DICOMweb service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchForStudies queries /studies with the given QIDO-RS parameters
// (which may be nil) and returns one naturalized dataset per matching
// study.
func (c *Client) SearchForStudies(ctx context.Context, params url.Values) ([]metadata.Dataset, error) {
	return c.search(ctx, "/studies", params)
}

// SearchForSeries queries the series of one study and returns one
// naturalized summary dataset per series.
func (c *Client) SearchForSeries(ctx context.Context, studyInstanceUID string) ([]metadata.Dataset, error) {
	return c.search(ctx, fmt.Sprintf("/studies/%s/series", url.PathEscape(studyInstanceUID)), nil)
}

// RetrieveSeriesMetadata fetches the full instance metadata of one series
// and returns one naturalized dataset per instance.
func (c *Client) RetrieveSeriesMetadata(ctx context.Context, studyInstanceUID, seriesInstanceUID string) ([]metadata.Dataset, error) {
	return c.search(ctx, fmt.Sprintf("/studies/%s/series/%s/metadata",
		url.PathEscape(studyInstanceUID), url.PathEscape(seriesInstanceUID)), nil)
}

func (c *Client) search(ctx context.Context, path string, params url.Values) ([]metadata.Dataset, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", acceptDICOMJSON)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("requesting %s: unexpected status %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	datasets, err := metadata.NaturalizeAll(body)
	if err != nil {
		return nil, fmt.Errorf("naturalizing %s response: %w", path, err)
	}
	return datasets, nil
}
