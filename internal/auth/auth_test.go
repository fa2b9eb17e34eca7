package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

type userMap map[string]*repository.User

func (m userMap) GetUser(_ context.Context, id string) (*repository.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, errors.NotFound("user", id)
	}
	return u, nil
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *Tokens) {
	t.Helper()
	tokens := NewTokens("test-secret", "be-fraud-cases")
	users := userMap{
		"rev1":    {UserID: "rev1", Role: workflow.RoleReviewer, Active: true},
		"gone":    {UserID: "gone", Role: workflow.RoleReviewer, Active: false},
		"floater": {UserID: "floater", Role: workflow.RoleInitiator, AllRoles: true, Active: true},
	}
	return NewAuthenticator(tokens, NewSessions(15*time.Minute, 100), users, logger.Nop()), tokens
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("s3cret", "issuer-a")
	raw, err := tokens.Issue("inv1", time.Hour)
	require.NoError(t, err)

	claims, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "inv1", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	_, err = NewTokens("other", "issuer-a").Verify(raw)
	assert.Error(t, err, "wrong secret")

	_, err = NewTokens("s3cret", "issuer-b").Verify(raw)
	assert.Error(t, err, "wrong issuer")
}

func TestTokensExpired(t *testing.T) {
	tokens := NewTokens("s3cret", "")
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := tokens.Issue("inv1", time.Hour)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(raw)
	assert.Error(t, err)
}

func TestSessionsIdleWindow(t *testing.T) {
	s := NewSessions(15*time.Minute, 10)
	now := time.Now()

	require.NoError(t, s.Touch("fresh", now.Add(-time.Minute)))
	assert.Equal(t, 1, s.Live())

	err := s.Touch("stale", now.Add(-20*time.Minute))
	assert.ErrorIs(t, err, ErrSessionIdle)

	// A tracked session stays valid regardless of token age.
	require.NoError(t, s.Touch("fresh", now.Add(-time.Minute)))
	s.now = func() time.Time { return now.Add(30 * time.Minute) }
	require.NoError(t, s.Touch("fresh", now.Add(-time.Minute)))

	s.End("fresh")
	assert.ErrorIs(t, s.Touch("fresh", now.Add(-time.Minute)), ErrSessionEnded)
}

func TestSessionsEndedMarkerExpires(t *testing.T) {
	s := NewSessions(50*time.Millisecond, 10)
	issued := time.Now()
	require.NoError(t, s.Touch("sess", issued))
	s.End("sess")
	assert.ErrorIs(t, s.Touch("sess", issued), ErrSessionEnded)

	// Once the marker lapses the token is past the admission age.
	time.Sleep(120 * time.Millisecond)
	assert.ErrorIs(t, s.Touch("sess", issued), ErrSessionIdle)
}

func TestSessionsExpireAfterInactivity(t *testing.T) {
	s := NewSessions(50*time.Millisecond, 10)
	issued := time.Now()
	require.NoError(t, s.Touch("sess", issued))

	time.Sleep(120 * time.Millisecond)
	assert.ErrorIs(t, s.Touch("sess", issued), ErrSessionIdle)
}

func TestAuthenticate(t *testing.T) {
	a, tokens := newTestAuthenticator(t)
	ctx := context.Background()

	raw, err := tokens.Issue("floater", time.Hour)
	require.NoError(t, err)
	actor, err := a.Authenticate(ctx, "Bearer "+raw)
	require.NoError(t, err)
	assert.Equal(t, "floater", actor.UserID)
	assert.True(t, actor.Capabilities.AllRoles)
	assert.True(t, actor.Active)

	raw, err = tokens.Issue("gone", time.Hour)
	require.NoError(t, err)
	actor, err = a.Authenticate(ctx, "bearer "+raw)
	require.NoError(t, err)
	assert.False(t, actor.Active)

	raw, err = tokens.Issue("nobody", time.Hour)
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, "Bearer "+raw)
	assert.Equal(t, errors.ErrCodeUnauthenticated, errors.CodeOf(err))

	_, err = a.Authenticate(ctx, "")
	assert.Equal(t, errors.ErrCodeUnauthenticated, errors.CodeOf(err))

	_, err = a.Authenticate(ctx, "Basic abc")
	assert.Equal(t, errors.ErrCodeUnauthenticated, errors.CodeOf(err))
}

func TestMiddleware(t *testing.T) {
	a, tokens := newTestAuthenticator(t)

	var got Actor
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHENTICATED")

	raw, err := tokens.Issue("rev1", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rev1", got.UserID)
	assert.Equal(t, workflow.RoleReviewer, got.Role)
}

func TestLogout(t *testing.T) {
	a, tokens := newTestAuthenticator(t)
	ctx := context.Background()

	raw, err := tokens.Issue("rev1", time.Hour)
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, "Bearer "+raw)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logout", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	a.Logout(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = a.Authenticate(ctx, "Bearer "+raw)
	assert.Equal(t, errors.ErrCodeUnauthenticated, errors.CodeOf(err))
	assert.ErrorContains(t, err, ErrSessionEnded.Error())

	// A fresh token opens a new session.
	other, err := tokens.Issue("rev1", time.Hour)
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, "Bearer "+other)
	assert.NoError(t, err)

	rec = httptest.NewRecorder()
	a.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnaryServerInterceptor(t *testing.T) {
	a, tokens := newTestAuthenticator(t)
	intercept := a.UnaryServerInterceptor()
	handler := func(ctx context.Context, _ any) (any, error) {
		actor, ok := ActorFromContext(ctx)
		if !ok {
			return "anonymous", nil
		}
		return actor.UserID, nil
	}

	out, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", out)

	_, err = intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/fraud.cases.v1.CaseService/GetCase"}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	raw, err := tokens.Issue("rev1", time.Hour)
	require.NoError(t, err)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+raw))
	out, err = intercept(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/fraud.cases.v1.CaseService/GetCase"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "rev1", out)
}
