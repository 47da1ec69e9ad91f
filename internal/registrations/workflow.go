package registrations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grace-connect/backend/internal/members"
	"github.com/grace-connect/backend/internal/models"
)

var (
	// ErrMemberUnresolved is returned when a MEMBER-variant submission
	// cannot be matched to a member record. The registration is never
	// written in that case.
	ErrMemberUnresolved = errors.New("member not found: please verify the phone number or register as a visitor")
	// ErrSubmitInProgress guards against double submission from the
	// same form instance.
	ErrSubmitInProgress = errors.New("submission already in progress")
)

// State is the workflow's position in the registration attempt.
type State int

const (
	StateEditing State = iota
	StateResolving
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateResolving:
		return "resolving"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// MemberResolver matches a phone number to a canonical member record.
type MemberResolver interface {
	FindMemberByPhone(ctx context.Context, phone string) (*models.Member, error)
}

// Writer persists one registration record, append-only.
type Writer interface {
	Insert(ctx context.Context, reg *models.CampRegistration) error
}

// Resolution is the outcome of a phone lookup, pushed to the form as
// the user types.
type Resolution struct {
	Phone  string         `json:"phone"`
	Found  bool           `json:"found"`
	Member *models.Member `json:"member,omitempty"`
}

// WorkflowConfig holds workflow timing knobs.
type WorkflowConfig struct {
	SettleDelay  time.Duration // debounce window after the last phone edit; default 500ms
	StoreTimeout time.Duration // bound on lookup and write calls; default 10s
}

// Workflow drives one in-progress registration attempt: it debounces
// phone-edit lookups on the member path, tracks the resolution state,
// and on submission validates, resolves, merges and writes.
//
// Phone edits may arrive faster than lookups complete. Each edit bumps
// a generation counter; a lookup completion whose generation no longer
// matches is stale and discarded, so a late result for an old phone
// number can never overwrite the state of a newer one.
type Workflow struct {
	schema   *Schema
	resolver MemberResolver
	writer   Writer
	logger   *zap.Logger
	settle   time.Duration
	timeout  time.Duration

	// onResolution, when set, receives lookup outcomes (for the
	// interactive form session). Called without the lock held.
	onResolution func(Resolution)

	mu           sync.Mutex
	state        State
	attendeeType models.AttendeeType
	phone        string
	generation   uint64
	timer        *time.Timer
	memberFound  bool
	member       *models.Member
}

// NewWorkflow creates a workflow for one registration attempt.
func NewWorkflow(schema *Schema, resolver MemberResolver, writer Writer, cfg WorkflowConfig, logger *zap.Logger) *Workflow {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 500 * time.Millisecond
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		schema:       schema,
		resolver:     resolver,
		writer:       writer,
		logger:       logger,
		settle:       cfg.SettleDelay,
		timeout:      cfg.StoreTimeout,
		state:        StateEditing,
		attendeeType: models.AttendeeVisitor,
	}
}

// OnResolution registers the callback invoked with each lookup outcome.
func (w *Workflow) OnResolution(fn func(Resolution)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResolution = fn
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// MemberResolution returns the current resolution side-state.
func (w *Workflow) MemberResolution() (bool, *models.Member) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.memberFound, w.member
}

// SetAttendeeType switches the form variant. Switching discards any
// prior resolution so a stale member identity never leaks into the
// other variant.
func (w *Workflow) SetAttendeeType(t models.AttendeeType) {
	if !t.Valid() {
		return
	}
	w.mu.Lock()
	if w.attendeeType == t {
		w.mu.Unlock()
		return
	}
	w.attendeeType = t
	w.phone = ""
	w.generation++
	w.stopTimerLocked()
	w.memberFound = false
	w.member = nil
	w.state = StateEditing
	cb := w.onResolution
	w.mu.Unlock()
	if cb != nil {
		cb(Resolution{Found: false})
	}
}

// PhoneChanged records a phone-field edit. On the member path an edit
// of at least members.MinLookupLen characters schedules a lookup after
// the settling window; earlier pending lookups are superseded. Editing
// is never blocked while a lookup is in flight.
func (w *Workflow) PhoneChanged(phone string) {
	w.mu.Lock()
	w.phone = phone
	w.generation++
	gen := w.generation
	w.memberFound = false
	w.member = nil
	w.stopTimerLocked()

	if w.attendeeType != models.AttendeeMember || len(phone) < members.MinLookupLen {
		w.state = StateEditing
		cb := w.onResolution
		w.mu.Unlock()
		if cb != nil {
			cb(Resolution{Phone: phone, Found: false})
		}
		return
	}

	w.state = StateResolving
	w.timer = time.AfterFunc(w.settle, func() { w.resolve(gen, phone) })
	w.mu.Unlock()
}

func (w *Workflow) resolve(gen uint64, phone string) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	m, err := w.resolver.FindMemberByPhone(ctx, phone)

	w.mu.Lock()
	if gen != w.generation {
		// A newer edit superseded this lookup; drop the result.
		w.mu.Unlock()
		return
	}
	w.state = StateEditing
	if err != nil {
		if !errors.Is(err, members.ErrNotFound) {
			w.logger.Warn("member lookup failed", zap.Error(err), zap.String("phone", phone))
		}
		w.memberFound = false
		w.member = nil
	} else {
		w.memberFound = true
		w.member = m
	}
	res := Resolution{Phone: phone, Found: w.memberFound, Member: w.member}
	cb := w.onResolution
	w.mu.Unlock()
	if cb != nil {
		cb(res)
	}
}

// Submit validates raw against its variant schema and persists the
// registration. On the member path the submitted phone is re-resolved
// before the write, so the persisted identity always comes from the
// member store as of submission time; without a match the write never
// happens.
func (w *Workflow) Submit(ctx context.Context, raw RawInput) (*models.CampRegistration, error) {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	// Entering submission supersedes any lookup still pending from a
	// pre-submit edit: bump the generation and stop the debounce timer
	// so a late resolution can never reopen a settled workflow.
	w.state = StateSubmitting
	w.generation++
	w.stopTimerLocked()
	w.mu.Unlock()

	in, ferrs := w.schema.Validate(raw)
	if len(ferrs) > 0 {
		w.setState(StateEditing)
		return nil, ferrs
	}

	rec := &models.CampRegistration{
		FullName:               in.FullName,
		Email:                  in.Email,
		PhoneNumber:            in.PhoneNumber,
		Gender:                 in.Gender,
		AttendeeType:           in.AttendeeType,
		Branch:                 in.Branch,
		AttendanceDate:         in.AttendanceDate,
		EmergencyContactName:   in.EmergencyContactName,
		EmergencyContactNumber: in.EmergencyContactNumber,
	}

	if in.AttendeeType == models.AttendeeMember {
		rctx, cancel := context.WithTimeout(ctx, w.timeout)
		m, err := w.resolver.FindMemberByPhone(rctx, in.PhoneNumber)
		cancel()
		if err != nil {
			w.setState(StateFailed)
			if errors.Is(err, members.ErrNotFound) {
				return nil, ErrMemberUnresolved
			}
			return nil, fmt.Errorf("resolve member: %w", err)
		}
		rec.MemberID = &m.ID
		rec.FullName = m.FullName
		rec.Email = m.Email
		rec.Gender = m.Gender
		rec.Branch = m.Branch
	}

	wctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.writer.Insert(wctx, rec); err != nil {
		w.setState(StateFailed)
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	w.setState(StateSucceeded)
	return rec, nil
}

func (w *Workflow) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// stopTimerLocked cancels a pending debounce timer. Caller holds w.mu.
func (w *Workflow) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Close releases the workflow's pending timer, if any.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.stopTimerLocked()
}
