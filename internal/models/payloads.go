package models

// These structs define the JSON payloads exchanged with the extraction entry points.

// ExtractTextResponse is the JSON output of the web extraction function.
// Archive is nil when no archive was produced.
type ExtractTextResponse struct {
	Status        string  `json:"status"`
	BatchID       string  `json:"batchId,omitempty"`
	Text          string  `json:"text"`
	Archive       *string `json:"archive"`
	ArchiveGCSUri string  `json:"archiveGcsUri,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// WorkflowHandoff is the argument passed to the downstream workflow once a batch is published.
type WorkflowHandoff struct {
	BatchID       string `json:"batchId"`
	ArchiveGCSUri string `json:"archiveGcsUri"`
	DocumentCount int    `json:"documentCount"`
}
