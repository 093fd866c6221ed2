package wizard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/renovation-leads/internal/leads"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

// DefaultFallbackPhone is shown when a submission fails and no number is configured.
const DefaultFallbackPhone = "(404) 555-0199"

const draftWriteTimeout = 5 * time.Second

// State is the wizard's position in its state machine.
type State int

const (
	StateBasicInfo State = iota
	StateProjectDetails
	StateDescription
	StateReview
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateBasicInfo:
		return "basic_info"
	case StateProjectDetails:
		return "project_details"
	case StateDescription:
		return "description"
	case StateReview:
		return "review"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type phase int

const (
	phaseEditing phase = iota
	phaseSubmitting
	phaseSubmitted
)

// SubmitError is returned when the lead could not be delivered. Message is
// safe to show to the visitor.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }

// Config wires a Controller.
type Config struct {
	Variant   Variant
	Store     DraftStore
	Submitter Submitter
	Session   *Session

	// Debounce is the quiet window before a draft write. Zero means one second.
	Debounce      time.Duration
	FallbackPhone string

	// OnStepChange runs after every step transition. The UI resets scroll and
	// focus here.
	OnStepChange func(step int)

	Logger *logging.Logger
	Now    func() time.Time
}

// Controller drives one visitor through one wizard variant.
type Controller struct {
	variant      Variant
	store        DraftStore
	submitter    Submitter
	session      *Session
	debouncer    *Debouncer
	fallback     string
	onStepChange func(step int)
	logger       *logging.Logger
	now          func() time.Time

	// persistMu orders draft writes against the clear that follows a submit.
	persistMu sync.Mutex

	mu            sync.Mutex
	fields        Fields
	step          int
	completed     map[int]bool
	errs          []leads.FieldError
	phase         phase
	submitMessage string
}

// Mount creates a controller and rehydrates any stored draft. The wizard
// always starts on the first step, whatever was stored.
func Mount(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, errors.New("wizard: draft store is required")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("wizard: submitter is required")
	}
	if len(cfg.Variant.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrUnknownVariant)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.FallbackPhone == "" {
		cfg.FallbackPhone = DefaultFallbackPhone
	}
	if cfg.Session == nil {
		cfg.Session = NewSession("")
	}

	c := &Controller{
		variant:      cfg.Variant,
		store:        cfg.Store,
		submitter:    cfg.Submitter,
		session:      cfg.Session,
		debouncer:    NewDebouncer(cfg.Debounce),
		fallback:     cfg.FallbackPhone,
		onStepChange: cfg.OnStepChange,
		logger:       cfg.Logger,
		now:          cfg.Now,
		completed:    make(map[int]bool),
	}

	draft, ok, err := c.store.Load(ctx, c.variant.DraftKey)
	if err != nil {
		c.logger.Warn("failed to rehydrate draft", "variant", c.variant.Name, "error", err)
	} else if ok {
		c.fields = draft
	}
	return c, nil
}

// SetField updates one text field and schedules a draft write.
func (c *Controller) SetField(field, value string) error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.fields.Set(field, value); err != nil {
		c.mu.Unlock()
		return err
	}
	c.clearErrorLocked(field)
	c.mu.Unlock()

	c.schedulePersist()
	return nil
}

// SetConsent records the two independent SMS consent flags.
func (c *Controller) SetConsent(transactional, marketing bool) error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.fields.SMSConsentTransactional = transactional
	c.fields.SMSConsentMarketing = marketing
	c.mu.Unlock()

	c.schedulePersist()
	return nil
}

// Advance validates the current step and moves forward. A failed check
// returns *leads.ValidationError and leaves the step unchanged.
func (c *Controller) Advance() error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step >= c.variant.ReviewStep() {
		c.mu.Unlock()
		return ErrAtReview
	}

	if errs := c.variant.Steps[c.step].Validate(&c.fields); len(errs) > 0 {
		c.errs = errs
		c.mu.Unlock()
		return &leads.ValidationError{Fields: append([]leads.FieldError(nil), errs...)}
	}

	c.errs = nil
	c.completed[c.step] = true
	c.step++
	step := c.step
	c.mu.Unlock()

	c.stepChanged(step)
	return nil
}

// Retreat moves back one step without validation. It stops at the first step.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step == 0 {
		c.mu.Unlock()
		return nil
	}
	c.step--
	c.errs = nil
	step := c.step
	c.mu.Unlock()

	c.stepChanged(step)
	return nil
}

// Submit sends the lead from the review step. On success the stored draft is
// removed and the wizard is finished. On failure the wizard returns to review
// with every value intact and a *SubmitError carrying the retry message.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step != c.variant.ReviewStep() {
		c.mu.Unlock()
		return ErrNotOnReview
	}
	var errs []leads.FieldError
	for _, schema := range c.variant.Steps {
		errs = append(errs, schema.Validate(&c.fields)...)
	}
	if len(errs) > 0 {
		c.errs = errs
		c.mu.Unlock()
		return &leads.ValidationError{Fields: append([]leads.FieldError(nil), errs...)}
	}

	payload := c.payloadLocked()
	c.phase = phaseSubmitting
	c.submitMessage = ""
	c.mu.Unlock()

	err := c.submitter.Submit(ctx, payload)

	c.mu.Lock()
	if err != nil {
		c.phase = phaseEditing
		c.submitMessage = fmt.Sprintf("Something went wrong sending your request. Please try again or call us at %s.", c.fallback)
		msg := c.submitMessage
		c.mu.Unlock()

		c.logger.Warn("lead submission failed", "variant", c.variant.Name, "error", err)
		return &SubmitError{Message: msg, Err: err}
	}
	c.phase = phaseSubmitted
	c.mu.Unlock()

	c.debouncer.Cancel()
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), draftWriteTimeout)
	defer cancel()
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	if err := c.store.Clear(clearCtx, c.variant.DraftKey); err != nil {
		c.logger.Warn("failed to clear draft after submit", "variant", c.variant.Name, "error", err)
	}
	return nil
}

func (c *Controller) payloadLocked() *leads.Payload {
	p := c.fields.Payload(c.variant.FormSource)
	transactional := c.fields.SMSConsentTransactional
	marketing := c.fields.SMSConsentMarketing
	p.SMSConsentTransactional = &transactional
	p.SMSConsentMarketing = &marketing
	if transactional || marketing {
		ts := c.now().UTC()
		p.ConsentTimestamp = &ts
	}
	return p
}

// ShouldOfferExitIntent returns true the first time it is asked in a session,
// and never once the lead was submitted.
func (c *Controller) ShouldOfferExitIntent() bool {
	c.mu.Lock()
	submitted := c.phase == phaseSubmitted
	c.mu.Unlock()
	if submitted {
		return false
	}
	return c.session.claimExitIntent()
}

// FlushDraft writes any pending draft immediately.
func (c *Controller) FlushDraft() {
	c.debouncer.Flush()
}

// Close drops a pending draft write.
func (c *Controller) Close() {
	c.debouncer.Cancel()
}

func (c *Controller) schedulePersist() {
	c.debouncer.Trigger(c.persistDraft)
}

func (c *Controller) persistDraft() {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	if c.phase == phaseSubmitted {
		c.mu.Unlock()
		return
	}
	snapshot := c.fields
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), draftWriteTimeout)
	defer cancel()
	if err := c.store.Save(ctx, c.variant.DraftKey, snapshot); err != nil {
		c.logger.Warn("failed to persist draft", "variant", c.variant.Name, "error", err)
	}
}

func (c *Controller) stepChanged(step int) {
	if c.onStepChange != nil {
		c.onStepChange(step)
	}
}

func (c *Controller) editableLocked() error {
	switch c.phase {
	case phaseSubmitted:
		return ErrSubmitted
	case phaseSubmitting:
		return ErrSubmitInFlight
	}
	return nil
}

func (c *Controller) clearErrorLocked(field string) {
	if len(c.errs) == 0 {
		return
	}
	kept := c.errs[:0]
	for _, e := range c.errs {
		if e.Field != field {
			kept = append(kept, e)
		}
	}
	c.errs = kept
}

// Step returns the current step index.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// State maps the step and submission phase onto the state machine.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case phaseSubmitting:
		return StateSubmitting
	case phaseSubmitted:
		return StateSubmitted
	}
	if c.step >= c.variant.ReviewStep() {
		return StateReview
	}
	return State(c.step)
}

// Fields returns a copy of the current values.
func (c *Controller) Fields() Fields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// Errors returns the field errors from the last failed Advance or Submit.
func (c *Controller) Errors() []leads.FieldError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]leads.FieldError(nil), c.errs...)
}

// Completed returns the indexes of completed steps in order.
func (c *Controller) Completed() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.completed))
	for step := range c.completed {
		out = append(out, step)
	}
	sort.Ints(out)
	return out
}

// SubmitMessage is the retry message from the last failed submission.
func (c *Controller) SubmitMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitMessage
}

// Variant returns the wizard variant.
func (c *Controller) Variant() Variant {
	return c.variant
}
