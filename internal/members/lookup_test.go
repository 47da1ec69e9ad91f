package members

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/grace-connect/backend/internal/models"
)

// fakeStore is an in-memory PhoneFinder that counts calls.
type fakeStore struct {
	members map[string][]*models.Member
	err     error
	calls   int
}

func (f *fakeStore) FindByPhone(_ context.Context, phone string) ([]*models.Member, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.members[phone], nil
}

func newMember(phone string, createdAt time.Time) *models.Member {
	return &models.Member{
		ID:          uuid.New(),
		FullName:    "Ama Mensah",
		Email:       "ama@example.com",
		Gender:      "Female",
		PhoneNumber: phone,
		Branch:      "Central Branch",
		CreatedAt:   createdAt,
	}
}

func TestFindMemberByPhone_ShortInputSkipsStore(t *testing.T) {
	store := &fakeStore{}
	lookup := NewLookup(store, nil)

	_, err := lookup.FindMemberByPhone(context.Background(), "024412")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, store.calls, "inputs below the minimum length must not hit the store")
}

func TestFindMemberByPhone_Found(t *testing.T) {
	m := newMember("0244123456", time.Now())
	store := &fakeStore{members: map[string][]*models.Member{"0244123456": {m}}}
	lookup := NewLookup(store, nil)

	got, err := lookup.FindMemberByPhone(context.Background(), "0244123456")
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
}

func TestFindMemberByPhone_NotFound(t *testing.T) {
	store := &fakeStore{members: map[string][]*models.Member{}}
	lookup := NewLookup(store, nil)

	_, err := lookup.FindMemberByPhone(context.Background(), "0244999999")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, store.calls)
}

func TestFindMemberByPhone_Idempotent(t *testing.T) {
	m := newMember("0244123456", time.Now())
	store := &fakeStore{members: map[string][]*models.Member{"0244123456": {m}}}
	lookup := NewLookup(store, nil)

	first, err := lookup.FindMemberByPhone(context.Background(), "0244123456")
	require.NoError(t, err)
	second, err := lookup.FindMemberByPhone(context.Background(), "0244123456")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "same phone and unchanged store must resolve identically")
}

func TestFindMemberByPhone_DuplicateNewestWins(t *testing.T) {
	older := newMember("0244123456", time.Now().Add(-time.Hour))
	newer := newMember("0244123456", time.Now())
	// Store returns newest first, matching the repository ordering.
	store := &fakeStore{members: map[string][]*models.Member{"0244123456": {newer, older}}}
	lookup := NewLookup(store, nil)

	got, err := lookup.FindMemberByPhone(context.Background(), "0244123456")
	require.NoError(t, err)
	require.Equal(t, newer.ID, got.ID)
}

func TestFindMemberByPhone_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	lookup := NewLookup(store, nil)

	_, err := lookup.FindMemberByPhone(context.Background(), "0244123456")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound, "store faults must be distinguishable from a miss")
}
