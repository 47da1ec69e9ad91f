package registrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/grace-connect/backend/internal/models"
	"github.com/grace-connect/backend/pkg/response"
)

// stubStore is an in-memory Store for handler tests.
type stubStore struct {
	stubWriter
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (*models.CampRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.inserted {
		if reg.ID == id {
			return reg, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubStore) ListAll(_ context.Context) ([]*models.CampRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.CampRegistration(nil), s.inserted...), nil
}

func (s *stubStore) UpdateAttendance(_ context.Context, id uuid.UUID, attended bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.inserted {
		if reg.ID == id {
			reg.Attended = attended
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *stubStore) CountByAttendanceDate(_ context.Context) ([]DateCount, error) {
	return nil, nil
}

func newTestRouter(resolver MemberResolver, store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(testSchema(), resolver, store, nil, WorkflowConfig{
		SettleDelay:  time.Millisecond,
		StoreTimeout: time.Second,
	}, nil)
	r := gin.New()
	r.POST("/camp/register", h.Register)
	return r
}

func postRegister(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/camp/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var envelope response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestRegister_VisitorCreatedEnvelope(t *testing.T) {
	store := &stubStore{}
	r := newTestRouter(&stubResolver{}, store)

	w, envelope := postRegister(t, r, `{
		"attendee_type": "VISITOR",
		"full_name": "Kofi Asante",
		"email": "kofi@example.com",
		"phone_number": "0244123456",
		"gender": "Male",
		"branch": "Central Branch",
		"attendance_date": "All Days"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, envelope.Success)
	require.Empty(t, envelope.Error)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Kofi Asante", data["full_name"])
	require.NotEmpty(t, data["id"])
	require.Equal(t, 1, store.count())
}

func TestRegister_MalformedJSON(t *testing.T) {
	r := newTestRouter(&stubResolver{}, &stubStore{})

	w, envelope := postRegister(t, r, "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, envelope.Success)
	require.NotEmpty(t, envelope.Error)
}

func TestRegister_FieldErrorsEnvelope(t *testing.T) {
	r := newTestRouter(&stubResolver{}, &stubStore{})

	w, envelope := postRegister(t, r, `{
		"attendee_type": "VISITOR",
		"email": "not-an-email",
		"phone_number": "0244123456",
		"gender": "Male",
		"branch": "Central Branch",
		"attendance_date": "All Days"
	}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, envelope.Success)
	require.Contains(t, envelope.Fields["full_name"], "Full name is required")
	require.Contains(t, envelope.Fields["email"], "Please enter a valid email")
	require.NotContains(t, envelope.Fields, "phone_number")
}

func TestRegister_MemberNotFoundIs422(t *testing.T) {
	r := newTestRouter(&stubResolver{}, &stubStore{})

	w, envelope := postRegister(t, r, `{
		"attendee_type": "MEMBER",
		"phone_number": "0244999999",
		"attendance_date": "All Days"
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.False(t, envelope.Success)
	require.Contains(t, envelope.Error, "member not found")
}
