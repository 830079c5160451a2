package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"google.golang.org/grpc/metadata"
)

type contextKey string

const (
	organizationKey contextKey = "organization_id"
	actorKey        contextKey = "actor"
)

const (
	HeaderOrganizationID = "X-Organization-ID"
	HeaderUserID         = "X-User-ID"
	HeaderUserName       = "X-User-Name"
)

// ErrNoOrganization means no tenant could be resolved from the request.
var ErrNoOrganization = errors.New("organization context not found")

func WithOrganization(ctx context.Context, organizationID string) context.Context {
	return context.WithValue(ctx, organizationKey, organizationID)
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetOrganizationID reads the tenant set by middleware, falling back to grpc metadata.
func GetOrganizationID(ctx context.Context) string {
	if val, ok := ctx.Value(organizationKey).(string); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get("x-organization-id"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// RequireOrganization is GetOrganizationID that fails fast on a missing tenant.
func RequireOrganization(ctx context.Context) (string, error) {
	orgID := GetOrganizationID(ctx)
	if orgID == "" {
		return "", ErrNoOrganization
	}
	return orgID, nil
}

// CurrentActor returns the user stamping pickups and deliveries. The zero Actor means unknown.
func CurrentActor(ctx context.Context) model.Actor {
	if val, ok := ctx.Value(actorKey).(model.Actor); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		actor := model.Actor{}
		if val := md.Get("x-user-id"); len(val) > 0 {
			actor.ID = val[0]
		}
		if val := md.Get("x-user-name"); len(val) > 0 {
			actor.DisplayName = val[0]
		}
		return actor
	}
	return model.Actor{}
}

// Middleware copies tenant and actor headers into the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if orgID := r.Header.Get(HeaderOrganizationID); orgID != "" {
			ctx = WithOrganization(ctx, orgID)
		}
		if userID := r.Header.Get(HeaderUserID); userID != "" {
			ctx = WithActor(ctx, model.Actor{
				ID:          userID,
				DisplayName: r.Header.Get(HeaderUserName),
			})
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
