// Package pvgis provides a client for the PVGIS v5.2 TMY API run by the EC
// Joint Research Centre. It fetches typical meteorological year series as
// CSV ("basic") for simulation and as JSON for metadata archival.
package pvgis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pvtools/pvprofiler/tmy"
)

// DefaultBaseURL is the production PVGIS TMY endpoint.
const DefaultBaseURL = "https://re.jrc.ec.europa.eu/api/v5_2/tmy"

// Client represents a client for the PVGIS TMY API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a new PVGIS client with default settings.
func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   DefaultBaseURL,
		userAgent: userAgent,
	}
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client.
func NewClientWithHTTPClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		userAgent:  userAgent,
	}
}

// SetBaseURL sets the base URL for the API (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Location represents coordinates for a TMY request.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// QueryParams represents query parameters for TMY requests.
type QueryParams struct {
	Location Location
}

// GetTMY fetches the hourly TMY series for the location in the PVGIS
// "basic" CSV format and parses it into a series with UTC timestamps.
func (c *Client) GetTMY(ctx context.Context, params QueryParams) (tmy.Series, error) {
	body, err := c.get(ctx, params, "basic", "text/csv")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	series, err := tmy.ParseCSV(body, tmy.PVGISBasicLayout(), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TMY CSV: %w", err)
	}
	return series, nil
}

// GetTMYRaw fetches the same TMY dataset in JSON form, preserving the
// document for the metadata save path.
func (c *Client) GetTMYRaw(ctx context.Context, params QueryParams) (*RawDocument, error) {
	body, err := c.get(ctx, params, "json", "application/json")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return ParseRawDocument(data)
}

// get performs the API request for one output format.
func (c *Client) get(ctx context.Context, params QueryParams, outputFormat, accept string) (io.ReadCloser, error) {
	if err := ValidateLocation(params.Location); err != nil {
		return nil, err
	}

	reqURL, err := c.buildURL(params, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return resp.Body, nil
}

// buildURL constructs the API URL with query parameters.
func (c *Client) buildURL(params QueryParams, outputFormat string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	query := u.Query()
	query.Set("lat", formatFloat(params.Location.Latitude))
	query.Set("lon", formatFloat(params.Location.Longitude))
	query.Set("outputformat", outputFormat)

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// formatFloat formats a float64 to a string with appropriate precision.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ValidateLocation validates that the location parameters are within
// acceptable ranges.
func ValidateLocation(loc Location) error {
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", loc.Latitude)
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", loc.Longitude)
	}
	return nil
}
