package wizard

import "errors"

var (
	// ErrSubmitted is returned by every mutator once the wizard has been submitted.
	ErrSubmitted = errors.New("wizard: already submitted")

	// ErrNotOnReview is returned when Submit is called before the review step.
	ErrNotOnReview = errors.New("wizard: submit is only allowed from the review step")

	// ErrAtReview is returned by Advance on the last step.
	ErrAtReview = errors.New("wizard: already on the review step")

	// ErrSubmitInFlight is returned while a submission is outstanding.
	ErrSubmitInFlight = errors.New("wizard: submission in progress")

	ErrUnknownField   = errors.New("wizard: unknown field")
	ErrUnknownVariant = errors.New("wizard: unknown form variant")
	ErrNoSession      = errors.New("wizard: draft session id is required")
)
