package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
)

// UserLookup resolves a user id against the directory.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*repository.User, error)
}

// Authenticator turns a bearer token into an Actor.
type Authenticator struct {
	tokens   *Tokens
	sessions *Sessions
	users    UserLookup
	log      zerolog.Logger
}

// NewAuthenticator wires token verification, idle tracking and user lookup.
func NewAuthenticator(tokens *Tokens, sessions *Sessions, users UserLookup, log *logger.Logger) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Authenticate resolves the "Bearer <token>" header value. Inactive users are
// resolved with Active=false; the engine rejects them.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (Actor, error) {
	raw := bearerToken(header)
	if raw == "" {
		return Actor{}, errors.New(errors.ErrCodeUnauthenticated, "missing bearer token")
	}
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		a.log.Debug().Err(err).Msg("Token rejected")
		return Actor{}, errors.New(errors.ErrCodeUnauthenticated, "invalid bearer token")
	}
	if err := a.sessions.Touch(claims.ID, claims.IssuedAt.Time); err != nil {
		a.log.Debug().Str("user_id", claims.Subject).Str("session", claims.ID).Msg("Idle session rejected")
		return Actor{}, errors.New(errors.ErrCodeUnauthenticated, err.Error())
	}
	user, err := a.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return Actor{}, errors.New(errors.ErrCodeUnauthenticated, "unknown user")
		}
		return Actor{}, err
	}
	return ActorFromUser(user), nil
}

// Middleware authenticates every request and stores the Actor in its context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, err)
			return
		}
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", actor.UserID)
		})
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// Logout ends the session named by the bearer token. Later requests carrying
// the same token are rejected.
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := a.tokens.Verify(bearerToken(r.Header.Get("Authorization")))
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeUnauthenticated, "invalid bearer token"))
		return
	}
	a.sessions.End(claims.ID)
	a.log.Info().Str("user_id", claims.Subject).Str("session", claims.ID).Msg("Session ended")
	w.WriteHeader(http.StatusNoContent)
}

// UnaryServerInterceptor authenticates gRPC calls from the "authorization"
// metadata. Health and reflection methods are exempt.
func (a *Authenticator) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, "/grpc.") {
			return handler(ctx, req)
		}
		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("authorization"); len(v) > 0 {
				header = v[0]
			}
		}
		actor, err := a.Authenticate(ctx, header)
		if err != nil {
			return nil, grpcError(err)
		}
		return handler(WithActor(ctx, actor), req)
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		appErr = errors.Wrap(err, errors.ErrCodeInternal, "authentication failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errors.HTTPStatus(appErr.Code))
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

func grpcError(err error) error {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, "authentication failed")
	}
	switch appErr.Code {
	case errors.ErrCodeUnauthenticated:
		return status.Error(codes.Unauthenticated, appErr.Message)
	case errors.ErrCodeStorageUnavailable:
		return status.Error(codes.Unavailable, appErr.Message)
	default:
		return status.Error(codes.Internal, appErr.Message)
	}
}
