package domain

import (
	"context"
	"io"
)

// Submitter hands a source file to the extraction backend.
type Submitter interface {
	// Submit uploads the file and returns the handle of the extraction job
	Submit(ctx context.Context, name string, r io.Reader) (JobHandle, error)
}

// Tracker follows an extraction job until it produces a questionnaire or fails.
type Tracker interface {
	// Track streams progress to onProgress and returns the terminal outcome
	Track(ctx context.Context, handle JobHandle, onProgress ProgressFunc) (*Questionnaire, error)
}

// Reader combines submission and tracking into a single open operation.
type Reader interface {
	Open(ctx context.Context, name string, r io.Reader, onProgress ProgressFunc) (*Questionnaire, error)
}

// Saver exports a questionnaire through the backend.
type Saver interface {
	Save(ctx context.Context, q *Questionnaire, format Format) (*Artifact, error)
}
