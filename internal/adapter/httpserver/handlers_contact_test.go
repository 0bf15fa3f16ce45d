package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sbcarpet/showroom/internal/domain"
	apperrors "github.com/sbcarpet/showroom/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validContactJSON = `{
	"firstName": "Jane",
	"lastName": "Doe",
	"email": "jane@example.com",
	"phone": "+44 7700 900123",
	"message": "I would like a quote for a living room carpet."
}`

func postContact(t *testing.T, srv *testServer, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = testRemoteAddr
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandleContact_Success(t *testing.T) {
	srv := newTestServer(t)

	rec := postContact(t, srv, validContactJSON)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"sent"}`, rec.Body.String())

	sent, keys := srv.relay.calls()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.ContactFields{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "+44 7700 900123",
		Message:   "I would like a quote for a living room carpet.",
	}, sent[0])
	assert.Equal(t, []string{"1.2.3.4"}, keys)
	assert.InDelta(t, 1.0, testutil.ToFloat64(srv.contact.Submissions.WithLabelValues("succeeded")), 0.001)
}

func TestHandleContact_InvalidFields(t *testing.T) {
	srv := newTestServer(t)

	rec := postContact(t, srv, `{"firstName":"Jane","lastName":"Doe","email":"not-an-email","phone":"07700900123","message":"Hello there, a quote please."}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error   string              `json:"error"`
		Type    apperrors.ErrorType `json:"type"`
		Context struct {
			Fields domain.ContactErrors `json:"fields"`
		} `json:"context"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
	assert.Equal(t, "Please enter a valid email address", resp.Context.Fields.Email)
	assert.Empty(t, resp.Context.Fields.FirstName)

	sent, _ := srv.relay.calls()
	assert.Empty(t, sent)
	assert.InDelta(t, 1.0, testutil.ToFloat64(srv.contact.Submissions.WithLabelValues("rejected")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(srv.contact.ValidationFailures.WithLabelValues("email")), 0.001)
}

func TestHandleContact_EmptyForm(t *testing.T) {
	srv := newTestServer(t)

	rec := postContact(t, srv, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	for _, f := range domain.Fields() {
		assert.InDelta(t, 1.0, testutil.ToFloat64(srv.contact.ValidationFailures.WithLabelValues(string(f))), 0.001, f)
	}
}

func TestHandleContact_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := postContact(t, srv, `{"firstName":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"validation"`)
}

func TestHandleContact_SubmissionRateLimited(t *testing.T) {
	srv := newTestServer(t)
	srv.relay.err = domain.ErrSubmissionRateLimited

	rec := postContact(t, srv, validContactJSON)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"rate_limited"`)
}

func TestHandleContact_RelayFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.relay.err = apperrors.ExternalError("mail relay returned an error", errors.New("smtp: 554 rejected")).
		WithContext("status_code", 500)

	rec := postContact(t, srv, validContactJSON)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "smtp")
	assert.NotContains(t, rec.Body.String(), "status_code")

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "your message could not be sent", resp.Error)
	assert.InDelta(t, 1.0, testutil.ToFloat64(srv.contact.Submissions.WithLabelValues("failed")), 0.001)
}

func TestHandleContact_APIRateLimit(t *testing.T) {
	srv := newTestServer(t)

	for range contactAPIBurst {
		rec := postContact(t, srv, `{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := postContact(t, srv, validContactJSON)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	sent, _ := srv.relay.calls()
	assert.Empty(t, sent)
}

func TestHandleContact_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
