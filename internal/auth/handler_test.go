package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	exceeded bool
	checkErr error
	recorded []string
}

func (s *stubLimiter) CheckIPRateLimitWithPurpose(_ context.Context, ip, purpose string) (bool, error) {
	return s.exceeded, s.checkErr
}

func (s *stubLimiter) RecordIPRequestWithPurpose(_ context.Context, ip, purpose string) error {
	s.recorded = append(s.recorded, ip+"|"+purpose)
	return nil
}

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandler_Register(t *testing.T) {
	f := newServiceFixture(t, "test-secret")
	h := NewHandler(f.service, nil)

	rec := postJSON(h.Register, `{"email":"a@b.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a@b.com", body["email"])
	assert.Contains(t, body, "id")
	assert.Contains(t, body, "createdAt")
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "secret1")

	rec = postJSON(h.Register, `{"email":"a@b.com","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"email already registered"`)

	rec = postJSON(h.Register, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"email and password are required"`)

	rec = postJSON(h.Register, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Login(t *testing.T) {
	f := newServiceFixture(t, "test-secret")
	h := NewHandler(f.service, nil)

	_, err := f.service.Register(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)

	rec := postJSON(h.Login, `{"email":"a@b.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "a@b.com", result.User.Email)

	unknown := postJSON(h.Login, `{"email":"x@b.com","password":"secret1"}`)
	wrong := postJSON(h.Login, `{"email":"a@b.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, unknown.Body.String())
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())

	rec = postJSON(h.Login, `{"password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_LoginMissingSecret(t *testing.T) {
	f := newServiceFixture(t, "")
	h := NewHandler(f.service, nil)

	_, err := f.service.Register(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)

	rec := postJSON(h.Login, `{"email":"a@b.com","password":"secret1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Server misconfigured (JWT_SECRET)"}`, rec.Body.String())
}

func TestHandler_RateLimit(t *testing.T) {
	f := newServiceFixture(t, "test-secret")

	limited := &stubLimiter{exceeded: true}
	rec := postJSON(NewHandler(f.service, limited).Login, `{"email":"a@b.com","password":"secret1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, limited.recorded)

	// A broken limiter lets the request through.
	broken := &stubLimiter{checkErr: errors.New("redis down")}
	rec = postJSON(NewHandler(f.service, broken).Register, `{"email":"a@b.com","password":"secret1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, broken.recorded, 1)
	assert.True(t, strings.HasSuffix(broken.recorded[0], "|register"))
}

func TestHandler_ResetPassword(t *testing.T) {
	f := newServiceFixture(t, "test-secret")
	h := NewHandler(f.service, nil)

	alice, err := f.service.Register(context.Background(), "alice@b.com", "secret1")
	require.NoError(t, err)
	_, err = f.service.Register(context.Background(), "bob@b.com", "secret1")
	require.NoError(t, err)

	call := func(ctx context.Context, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.ResetPassword(rec, req)
		return rec
	}

	rec := call(context.Background(), `{"email":"alice@b.com","password":"secret2"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	asAlice := WithUserID(context.Background(), alice.ID)

	rec = call(asAlice, `{"email":"bob@b.com","password":"secret2"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(asAlice, `{"email":"alice@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(asAlice, `{"email":"alice@b.com","password":"secret2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = f.service.Login(context.Background(), "alice@b.com", "secret2")
	assert.NoError(t, err)
}

func TestGetClientIP_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.RemoteAddr = "[::1]:5555"
	assert.Equal(t, "::1", getClientIP(req))
}

func TestHandler_RateLimitKeyIgnoresSpoofedForwardedFor(t *testing.T) {
	f := newServiceFixture(t, "test-secret")
	limiter := &stubLimiter{}
	h := NewHandler(f.service, limiter)

	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","password":"x"}`))
		req.RemoteAddr = "10.0.0.9:4000"
		req.Header.Set("X-Forwarded-For", xff)
		h.Login(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []string{"10.0.0.9|login", "10.0.0.9|login", "10.0.0.9|login"}, limiter.recorded)
}

func TestHandler_ResetPasswordUnknownEmailIsForbidden(t *testing.T) {
	f := newServiceFixture(t, "test-secret")
	h := NewHandler(f.service, nil)

	alice, err := f.service.Register(context.Background(), "alice@b.com", "secret1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"ghost@b.com","password":"secret2"}`)).
		WithContext(WithUserID(context.Background(), alice.ID))
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"FORBIDDEN"`)
}
