// Package tzcache memoizes IANA zone lookups; every scheduler tick resolves the
// zone of every organization.
package tzcache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Cache struct {
	locations sync.Map
	group     singleflight.Group
	load      func(name string) (*time.Location, error)
}

func New() *Cache {
	return &Cache{load: time.LoadLocation}
}

// Location returns the zone for name. Concurrent lookups of the same name share
// a single load.
func (c *Cache) Location(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("empty timezone name")
	}
	if loc, ok := c.locations.Load(name); ok {
		return loc.(*time.Location), nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		loc, err := c.load(name)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", name, err)
		}
		c.locations.Store(name, loc)
		return loc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*time.Location), nil
}
