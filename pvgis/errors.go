package pvgis

import "fmt"

// APIError represents an error response from the PVGIS API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("PVGIS API error %d: %s", e.StatusCode, e.Message)
}
