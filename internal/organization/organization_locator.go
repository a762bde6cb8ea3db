package organization

import (
	"context"
	"time"

	organizationerrors "go-timeclock/internal/organization/errors"
	"go-timeclock/internal/shared/apperror"
	"go-timeclock/internal/shared/tzcache"
)

// Locator resolves an organization's local zone.
//
type Locator interface {
	Location(ctx context.Context, organizationID string) (*time.Location, error)
	ZoneOf(org Organization) (*time.Location, error)
}

type locator struct {
	repo  Repository
	cache *tzcache.Cache
}

func NewLocator(repo Repository, cache *tzcache.Cache) Locator {
	if cache == nil {
		cache = tzcache.New()
	}
	return &locator{repo: repo, cache: cache}
}

func (l *locator) Location(ctx context.Context, organizationID string) (*time.Location, error) {
	org, err := l.repo.FindByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return l.ZoneOf(*org)
}

func (l *locator) ZoneOf(org Organization) (*time.Location, error) {
	loc, err := l.cache.Location(org.Timezone)
	if err != nil {
		e := organizationerrors.ErrInvalidTimezone
		return nil, apperror.Wrap(err, e.Code, e.Message, e.HTTPStatus)
	}
	return loc, nil
}
