package pvgis

import (
	"encoding/json"
	"fmt"
)

// MonthSelection identifies the historical source year PVGIS chose for
// one calendar month of the stitched typical year.
type MonthSelection struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// RawDocument holds a complete PVGIS JSON response. The raw bytes are
// preserved verbatim so the document can be archived alongside computed
// results, while the selected source years are decoded for logging.
type RawDocument struct {
	MonthsSelected []MonthSelection

	raw json.RawMessage
}

// ParseRawDocument decodes a PVGIS JSON response.
func ParseRawDocument(data []byte) (*RawDocument, error) {
	var envelope struct {
		Outputs struct {
			MonthsSelected []MonthSelection `json:"months_selected"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse TMY JSON: %w", err)
	}

	doc := &RawDocument{
		MonthsSelected: envelope.Outputs.MonthsSelected,
		raw:            append(json.RawMessage(nil), data...),
	}
	return doc, nil
}

// JSON returns the original response bytes.
func (d *RawDocument) JSON() []byte {
	return d.raw
}

// SourceYear returns the historical year selected for the given calendar
// month (1-12), or 0 when the document does not list it.
func (d *RawDocument) SourceYear(month int) int {
	for _, sel := range d.MonthsSelected {
		if sel.Month == month {
			return sel.Year
		}
	}
	return 0
}
