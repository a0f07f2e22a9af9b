package models

import "time"

// Batch statuses written to the bookkeeping collection.
const (
	BatchStatusProcessing = "PROCESSING"
	BatchStatusCompleted  = "COMPLETED"
	BatchStatusFailed     = "FAILED"
)

// Batch represents one extraction invocation in Firestore.
// It tracks the overall status and where the produced archive ended up.
type Batch struct {
	BatchID       string    `firestore:"batchId,omitempty"`
	Format        string    `firestore:"format,omitempty"`
	ImageCount    int       `firestore:"imageCount"`
	DocumentCount int       `firestore:"documentCount"`
	Status        string    `firestore:"status,omitempty"`
	ErrorDetails  string    `firestore:"errorDetails,omitempty"`
	ArchivePath   string    `firestore:"archivePath,omitempty"`
	ArchiveGCSUri string    `firestore:"archiveGcsUri,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt,omitempty"`
	CompletedAt   time.Time `firestore:"completedAt,omitempty"`
}
