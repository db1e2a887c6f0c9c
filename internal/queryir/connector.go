package queryir

import "github.com/roach88/fedplan/internal/ndc"

// Capabilities describes what a connector's protocol implementation supports.
type Capabilities struct {
	SupportedNDCVersion ndc.Version `json:"supported_ndc_version"`
}

// DataConnector identifies the connector that serves a collection.
type DataConnector struct {
	Name         string       `json:"name"`
	URL          string       `json:"url,omitempty"`
	Capabilities Capabilities `json:"capabilities"`
}
