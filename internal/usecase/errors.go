package usecase

import "errors"

// Errors surfaced by the single-URL submission path. The batch pipelines
// never return these; they fold item failures into the run summary.
var (
	// ErrSearchUnavailable means the search index has no credentials and
	// URL research cannot proceed at all.
	ErrSearchUnavailable = errors.New("search service not configured")

	// ErrInsufficientEvidence means the submitted page had too little
	// content to profile, or research found nothing usable.
	ErrInsufficientEvidence = errors.New("not enough content found at this URL to generate a community profile")

	// ErrNotACommunity means the page does not describe a community.
	ErrNotACommunity = errors.New("this URL doesn't appear to be a solarpunk community or regenerative project")

	// ErrDuplicateCommunity means the researched name is already listed.
	ErrDuplicateCommunity = errors.New("community is already in the directory")
)
