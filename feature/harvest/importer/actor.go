package importer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SiteUserFunc returns the name of the site administrator identity.
type SiteUserFunc func(ctx context.Context) (string, error)

// StaticSiteUser returns a SiteUserFunc that always yields name.
func StaticSiteUser(name string) SiteUserFunc {
	return func(context.Context) (string, error) {
		return name, nil
	}
}

// ActorResolver resolves the identity that performs dataset writes. It is
// created per pass; the first successful resolution is reused for the rest
// of that pass and concurrent callers share one lookup.
type ActorResolver struct {
	userName string
	siteUser SiteUserFunc

	mu    sync.RWMutex
	actor string
	sf    singleflight.Group
}

// NewActorResolver creates a resolver preferring userName over the site user.
func NewActorResolver(userName string, siteUser SiteUserFunc) *ActorResolver {
	return &ActorResolver{userName: userName, siteUser: siteUser}
}

// Actor returns the acting user name.
func (a *ActorResolver) Actor(ctx context.Context) (string, error) {
	a.mu.RLock()
	actor := a.actor
	a.mu.RUnlock()
	if actor != "" {
		return actor, nil
	}

	v, err, _ := a.sf.Do("actor", func() (interface{}, error) {
		a.mu.RLock()
		cached := a.actor
		a.mu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		name := a.userName
		if name == "" {
			if a.siteUser == nil {
				return nil, fmt.Errorf("no harvest user configured and no site user available")
			}
			var err error
			name, err = a.siteUser(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve site user: %w", err)
			}
			if name == "" {
				return nil, fmt.Errorf("site user has an empty name")
			}
		}

		a.mu.Lock()
		a.actor = name
		a.mu.Unlock()
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
