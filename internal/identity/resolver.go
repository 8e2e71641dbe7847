// Package identity traduce identidades externas verificadas a usuarios
// internos (tenant, user), aprovisionando en el primer acceso.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellotodo/internal/metrics"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
	"github.com/dropDatabas3/hellotodo/internal/store"
	"github.com/dropDatabas3/hellotodo/internal/util"
)

const defaultResolveTimeout = 10 * time.Second

// Resolver resuelve externalID -> UserContext: cache, store y, si no existe,
// aprovisiona con los datos de userinfo.
type Resolver struct {
	repo     store.UserRepository
	cache    *UserCache
	userinfo UserInfoFetcher
	group    singleflight.Group
	timeout  time.Duration
	newID    func() string
	now      func() time.Time
	log      *zap.Logger
}

type ResolverOption func(*Resolver)

func WithResolverLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithResolveTimeout acota store + userinfo cuando el caller no trae deadline.
func WithResolveTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithIDGenerator reemplaza la generación de ids (tests).
func WithIDGenerator(f func() string) ResolverOption {
	return func(r *Resolver) { r.newID = f }
}

func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(repo store.UserRepository, cache *UserCache, userinfo UserInfoFetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		repo:     repo,
		cache:    cache,
		userinfo: userinfo,
		timeout:  defaultResolveTimeout,
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve devuelve el usuario interno de externalID. accessToken es el token ya
// verificado; sólo se usa para userinfo al aprovisionar.
func (r *Resolver) Resolve(ctx context.Context, externalID, accessToken string) (UserContext, error) {
	if externalID == "" {
		return UserContext{}, fmt.Errorf("%w: empty subject", ErrProvisioningFailed)
	}
	if u, ok := r.cache.Get(externalID); ok {
		metrics.IdentityResolutions.WithLabelValues("cache").Inc()
		return newUserContext(u), nil
	}

	ch := r.group.DoChan(externalID, func() (any, error) {
		fctx, cancel := r.detach(ctx)
		defer cancel()
		return r.lookupOrProvision(fctx, externalID, accessToken)
	})

	select {
	case <-ctx.Done():
		return UserContext{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			metrics.IdentityResolutions.WithLabelValues("error").Inc()
			return UserContext{}, res.Err
		}
		return newUserContext(res.Val.(store.User)), nil
	}
}

// Forget elimina la entrada cacheada de externalID.
func (r *Resolver) Forget(externalID string) {
	r.cache.Remove(externalID)
}

func (r *Resolver) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if dl, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, dl)
	}
	return context.WithTimeout(base, r.timeout)
}

func (r *Resolver) lookupOrProvision(ctx context.Context, externalID, accessToken string) (store.User, error) {
	if u, ok := r.cache.Get(externalID); ok {
		metrics.IdentityResolutions.WithLabelValues("cache").Inc()
		return u, nil
	}

	u, err := r.repo.FindByExternalID(ctx, externalID)
	switch {
	case err == nil:
		r.cache.Add(*u)
		metrics.IdentityResolutions.WithLabelValues("store").Inc()
		return *u, nil
	case !errors.Is(err, store.ErrNotFound):
		return store.User{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return r.provision(ctx, externalID, accessToken)
}

func (r *Resolver) provision(ctx context.Context, externalID, accessToken string) (store.User, error) {
	info, err := r.userinfo.Fetch(ctx, accessToken)
	if err != nil {
		return store.User{}, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
	}
	if info.Subject != externalID {
		return store.User{}, fmt.Errorf("%w: userinfo subject %q does not match token subject", ErrProvisioningFailed, info.Subject)
	}

	u := store.User{
		ID:         r.newID(),
		ExternalID: externalID,
		TenantID:   r.newID(),
		Name:       info.DisplayName(),
		Email:      info.Email,
		CreatedAt:  r.now().UTC().Truncate(time.Second),
	}

	err = r.repo.Insert(ctx, &u)
	if errors.Is(err, store.ErrConflict) {
		// Otro proceso aprovisionó primero: se usa su registro.
		existing, ferr := r.repo.FindByExternalID(ctx, externalID)
		if errors.Is(ferr, store.ErrNotFound) {
			return store.User{}, fmt.Errorf("%w: insert conflicted but user not found", ErrProvisioningFailed)
		}
		if ferr != nil {
			return store.User{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, ferr)
		}
		r.cache.Add(*existing)
		r.log.Info("user provisioned concurrently, using existing record",
			logger.ExternalID(externalID), logger.TenantID(existing.TenantID), logger.UserID(existing.ID))
		metrics.IdentityResolutions.WithLabelValues("store").Inc()
		return *existing, nil
	}
	if err != nil {
		return store.User{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	r.cache.Add(u)
	r.log.Info("user provisioned",
		logger.ExternalID(externalID), logger.TenantID(u.TenantID), logger.UserID(u.ID),
		zap.String("email", util.MaskEmail(u.Email)))
	metrics.IdentityResolutions.WithLabelValues("provisioned").Inc()
	return u, nil
}
