package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lifelessons/backend/identity"
	"lifelessons/backend/models"
	"lifelessons/backend/store"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrEmailTaken means the verified email already belongs to an account with
// a different subject id.
var ErrEmailTaken = fmt.Errorf("%w: email belongs to another account", store.ErrConflict)

// Directory is the subset of the user directory Identify needs.
type Directory interface {
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Identifier resolves verified claims to a local account, creating it on
// first sight.
type Identifier struct {
	dir         Directory
	adminEmails map[string]struct{}
	logger      *zap.Logger
	inflight    singleflight.Group
}

func NewIdentifier(dir Directory, adminEmails []string, logger *zap.Logger) *Identifier {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[strings.ToLower(email)] = struct{}{}
	}
	return &Identifier{dir: dir, adminEmails: admins, logger: logger}
}

// Identify always reads the directory; nothing is cached between calls.
// Concurrent first logins for one subject converge on a single account:
// callers in this process share one lookup, and a creator that loses the
// unique-index race elsewhere re-reads the winner's row.
func (i *Identifier) Identify(ctx context.Context, claims *identity.Claims) (*models.User, error) {
	v, err, _ := i.inflight.Do(claims.Subject, func() (interface{}, error) {
		return i.identify(ctx, claims)
	})
	if err != nil {
		return nil, err
	}
	user := *v.(*models.User)
	return &user, nil
}

func (i *Identifier) identify(ctx context.Context, claims *identity.Claims) (*models.User, error) {
	user, err := i.dir.FindByUID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find account: %w", err)
	}

	user = i.newAccount(claims)
	err = i.dir.Create(ctx, user)
	if err == nil {
		i.logger.Info("account created", zap.String("uid", user.UID), zap.Uint("user_id", user.ID), zap.String("role", user.Role))
		return user, nil
	}
	if !errors.Is(err, store.ErrConflict) {
		return nil, fmt.Errorf("create account: %w", err)
	}

	existing, err := i.dir.FindByUID(ctx, claims.Subject)
	switch {
	case err == nil:
		i.logger.Debug("account creation raced, using existing record", zap.String("uid", claims.Subject))
		return existing, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrEmailTaken
	default:
		return nil, fmt.Errorf("re-read account: %w", err)
	}
}

func (i *Identifier) newAccount(claims *identity.Claims) *models.User {
	name := claims.DisplayName
	if name == "" {
		name, _, _ = strings.Cut(claims.Email, "@")
	}

	role := models.RoleUser
	if _, ok := i.adminEmails[strings.ToLower(claims.Email)]; ok {
		role = models.RoleAdmin
	}

	return &models.User{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: name,
		PhotoURL:    claims.PhotoURL,
		Role:        role,
	}
}
