package registrations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/grace-connect/backend/internal/members"
	"github.com/grace-connect/backend/internal/models"
)

// stubResolver resolves phones from a fixed map and records every call.
// A phone listed in block holds its lookup until the channel is closed.
type stubResolver struct {
	mu      sync.Mutex
	members map[string]*models.Member
	calls   []string
	block   map[string]chan struct{}
	started chan string
}

func (r *stubResolver) FindMemberByPhone(_ context.Context, phone string) (*models.Member, error) {
	r.mu.Lock()
	r.calls = append(r.calls, phone)
	gate := r.block[phone]
	m := r.members[phone]
	started := r.started
	r.mu.Unlock()

	if started != nil {
		started <- phone
	}
	if gate != nil {
		<-gate
	}
	if m == nil {
		return nil, members.ErrNotFound
	}
	return m, nil
}

func (r *stubResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// stubWriter records inserts; an optional gate holds the write open.
type stubWriter struct {
	mu       sync.Mutex
	inserted []*models.CampRegistration
	err      error
	gate     chan struct{}
	started  chan struct{}
}

func (w *stubWriter) Insert(_ context.Context, reg *models.CampRegistration) error {
	if w.started != nil {
		w.started <- struct{}{}
	}
	if w.gate != nil {
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	reg.ID = uuid.New()
	reg.CreatedAt = time.Now()
	w.inserted = append(w.inserted, reg)
	return nil
}

func (w *stubWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inserted)
}

func campMember(phone string) *models.Member {
	return &models.Member{
		ID:          uuid.New(),
		FullName:    "Ama Mensah",
		Email:       "ama@example.com",
		Gender:      "Female",
		PhoneNumber: phone,
		Branch:      "East Branch",
	}
}

func newTestWorkflow(t *testing.T, resolver MemberResolver, writer Writer, settle time.Duration) *Workflow {
	t.Helper()
	wf := NewWorkflow(testSchema(), resolver, writer, WorkflowConfig{
		SettleDelay:  settle,
		StoreTimeout: 2 * time.Second,
	}, nil)
	t.Cleanup(wf.Close)
	return wf
}

func TestSubmit_VisitorHappyPath(t *testing.T) {
	resolver := &stubResolver{}
	writer := &stubWriter{}
	wf := newTestWorkflow(t, resolver, writer, time.Millisecond)

	rec, err := wf.Submit(context.Background(), validVisitor())
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, wf.State())
	require.Equal(t, 1, writer.count())
	require.Equal(t, "Kofi Asante", rec.FullName)
	require.Equal(t, models.AttendeeVisitor, rec.AttendeeType)
	require.Nil(t, rec.MemberID, "visitor registrations carry no member link")
	require.Zero(t, resolver.callCount(), "visitor path must not touch the member store")
}

func TestSubmit_ValidationFailureNeverWrites(t *testing.T) {
	resolver := &stubResolver{}
	writer := &stubWriter{}
	wf := newTestWorkflow(t, resolver, writer, time.Millisecond)

	raw := validVisitor()
	raw.Email = "nope"
	_, err := wf.Submit(context.Background(), raw)

	var ferrs FieldErrors
	require.ErrorAs(t, err, &ferrs)
	require.Contains(t, ferrs["email"], "Please enter a valid email")
	require.Zero(t, writer.count())
	require.Equal(t, StateEditing, wf.State(), "a rejected submit stays editable")
}

func TestSubmit_MemberMergesResolvedIdentity(t *testing.T) {
	m := campMember("0244123456")
	resolver := &stubResolver{members: map[string]*models.Member{"0244123456": m}}
	writer := &stubWriter{}
	wf := newTestWorkflow(t, resolver, writer, time.Millisecond)

	rec, err := wf.Submit(context.Background(), validMember())
	require.NoError(t, err)
	require.Equal(t, 1, writer.count())
	require.NotNil(t, rec.MemberID)
	require.Equal(t, m.ID, *rec.MemberID)
	require.Equal(t, m.FullName, rec.FullName)
	require.Equal(t, m.Email, rec.Email)
	require.Equal(t, m.Branch, rec.Branch)
	require.Equal(t, "0244123456", rec.PhoneNumber, "phone stays as submitted")
}

func TestSubmit_MemberUnresolvedNeverWrites(t *testing.T) {
	resolver := &stubResolver{}
	writer := &stubWriter{}
	wf := newTestWorkflow(t, resolver, writer, time.Millisecond)

	_, err := wf.Submit(context.Background(), validMember())
	require.ErrorIs(t, err, ErrMemberUnresolved)
	require.Zero(t, writer.count(), "no registration record without a resolved member")
	require.Equal(t, StateFailed, wf.State())
}

func TestSubmit_ConcurrentSubmitRejected(t *testing.T) {
	resolver := &stubResolver{}
	writer := &stubWriter{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	wf := newTestWorkflow(t, resolver, writer, time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := wf.Submit(context.Background(), validVisitor())
		done <- err
	}()
	<-writer.started

	_, err := wf.Submit(context.Background(), validVisitor())
	require.ErrorIs(t, err, ErrSubmitInProgress)

	close(writer.gate)
	require.NoError(t, <-done)
	require.Equal(t, 1, writer.count(), "only the first submit may write")
}

func TestSubmit_SupersedesPendingLookup(t *testing.T) {
	m := campMember("0244123456")
	resolver := &stubResolver{members: map[string]*models.Member{"0244123456": m}}
	writer := &stubWriter{}
	wf := newTestWorkflow(t, resolver, writer, 100*time.Millisecond)
	wf.SetAttendeeType(models.AttendeeMember)

	// An edit leaves a lookup pending in its settle window; submitting
	// before it fires must cancel it, not let it reopen the workflow.
	wf.PhoneChanged("0244123456")
	_, err := wf.Submit(context.Background(), validMember())
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, wf.State())

	time.Sleep(250 * time.Millisecond)
	require.Equal(t, StateSucceeded, wf.State(), "a late lookup must not reopen a settled workflow")
	require.Equal(t, 1, resolver.callCount(), "only the submit-time resolve may reach the store")
	require.Equal(t, 1, writer.count())
}

// blockedWriter honors context cancellation, like a real store call.
type blockedWriter struct{}

func (blockedWriter) Insert(ctx context.Context, _ *models.CampRegistration) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSubmit_WriterTimeout(t *testing.T) {
	wf := NewWorkflow(testSchema(), &stubResolver{}, blockedWriter{}, WorkflowConfig{
		SettleDelay:  time.Millisecond,
		StoreTimeout: 20 * time.Millisecond,
	}, nil)
	t.Cleanup(wf.Close)

	_, err := wf.Submit(context.Background(), validVisitor())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, StateFailed, wf.State())
}

func TestPhoneChanged_DebounceCollapsesEdits(t *testing.T) {
	m := campMember("0244123456")
	resolver := &stubResolver{members: map[string]*models.Member{"0244123456": m}}
	wf := newTestWorkflow(t, resolver, &stubWriter{}, 60*time.Millisecond)
	wf.SetAttendeeType(models.AttendeeMember)

	resCh := make(chan Resolution, 16)
	wf.OnResolution(func(r Resolution) { resCh <- r })

	// A burst of edits inside the settling window issues one lookup,
	// for the final value only.
	wf.PhoneChanged("0244123450")
	time.Sleep(10 * time.Millisecond)
	wf.PhoneChanged("0244123451")
	time.Sleep(10 * time.Millisecond)
	wf.PhoneChanged("0244123456")

	require.Eventually(t, func() bool {
		found, got := wf.MemberResolution()
		return found && got.ID == m.ID
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 1, resolver.callCount())
}

func TestPhoneChanged_ShortInputSkipsLookup(t *testing.T) {
	resolver := &stubResolver{}
	wf := newTestWorkflow(t, resolver, &stubWriter{}, time.Millisecond)
	wf.SetAttendeeType(models.AttendeeMember)

	wf.PhoneChanged("02441")
	time.Sleep(20 * time.Millisecond)

	require.Zero(t, resolver.callCount())
	found, _ := wf.MemberResolution()
	require.False(t, found)
}

func TestPhoneChanged_StaleResultDiscarded(t *testing.T) {
	slowPhone, fastPhone := "0244111111", "0244222222"
	slow := campMember(slowPhone)
	fast := campMember(fastPhone)
	gate := make(chan struct{})
	resolver := &stubResolver{
		members: map[string]*models.Member{slowPhone: slow, fastPhone: fast},
		block:   map[string]chan struct{}{slowPhone: gate},
		started: make(chan string, 4),
	}
	wf := newTestWorkflow(t, resolver, &stubWriter{}, time.Millisecond)
	wf.SetAttendeeType(models.AttendeeMember)

	// First edit's lookup hangs in the store.
	wf.PhoneChanged(slowPhone)
	require.Equal(t, slowPhone, <-resolver.started)

	// Second edit supersedes it and resolves immediately.
	wf.PhoneChanged(fastPhone)
	require.Equal(t, fastPhone, <-resolver.started)
	require.Eventually(t, func() bool {
		found, got := wf.MemberResolution()
		return found && got.ID == fast.ID
	}, 2*time.Second, 5*time.Millisecond)

	// The first lookup completes late; its result must not clobber the
	// newer resolution.
	close(gate)
	time.Sleep(30 * time.Millisecond)
	found, got := wf.MemberResolution()
	require.True(t, found)
	require.Equal(t, fast.ID, got.ID)
}

func TestSetAttendeeType_SwitchDiscardsResolution(t *testing.T) {
	m := campMember("0244123456")
	resolver := &stubResolver{members: map[string]*models.Member{"0244123456": m}}
	wf := newTestWorkflow(t, resolver, &stubWriter{}, time.Millisecond)
	wf.SetAttendeeType(models.AttendeeMember)

	wf.PhoneChanged("0244123456")
	require.Eventually(t, func() bool {
		found, _ := wf.MemberResolution()
		return found
	}, 2*time.Second, 5*time.Millisecond)

	wf.SetAttendeeType(models.AttendeeVisitor)
	found, got := wf.MemberResolution()
	require.False(t, found, "switching variant must drop the resolved member")
	require.Nil(t, got)
	require.Equal(t, StateEditing, wf.State())
}
