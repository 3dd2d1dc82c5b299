package events

// ExtractionStartedEvent is emitted when a remote extraction job is accepted.
type ExtractionStartedEvent struct {
	ExtractionID string `json:"extraction_id"`
	SourceURL    string `json:"source_url"`
}

// ExtractionCompletedEvent is emitted after a successful dispatch.
type ExtractionCompletedEvent struct {
	ExtractionID string `json:"extraction_id"`
	LogementID   string `json:"logement_id"`
}

// ExtractionFailedEvent is emitted when any stage of the flow fails.
type ExtractionFailedEvent struct {
	ExtractionID string `json:"extraction_id,omitempty"`
	Stage        string `json:"stage"`
	Error        string `json:"error"`
}
