package services

import "errors"

var (
	// ErrTitleRequired rejects a commit with an empty title.
	ErrTitleRequired = errors.New("title is required")

	// ErrPageOverflow rejects a commit where the current page exceeds the
	// max page. This is the workflow's final gate, not a data-layer
	// constraint; rows written by earlier versions are not revalidated.
	ErrPageOverflow = errors.New("current page exceeds max page")

	// ErrLookupInFlight means a metadata lookup is already running on this
	// workflow. The trigger (a rapid re-scan, usually) should be dropped.
	ErrLookupInFlight = errors.New("a lookup is already in flight")

	// ErrImagePromotion wraps a failure to move a staged image into
	// permanent storage. Callers can retry the commit with WithoutImage
	// set to save the book anyway.
	ErrImagePromotion = errors.New("image promotion failed")

	// ErrPersistence wraps a store commit failure. The caller's form state
	// is untouched, so the user can retry.
	ErrPersistence = errors.New("could not save book")
)
