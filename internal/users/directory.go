// Package users looks up employee records from the user directory
// sheet, caching individual records so registration checks do not hit
// the backing store on every message.
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shopbot/catalog-service/internal/cache"
	"github.com/shopbot/catalog-service/internal/source"
	"github.com/shopbot/catalog-service/internal/types"
)

// Directory resolves employee ids to their directory records.
type Directory struct {
	src    source.Source
	store  cache.Store
	ttl    time.Duration
	logger zerolog.Logger
}

// New creates a directory over the given source. Records are cached
// per user for ttl.
func New(src source.Source, store cache.Store, ttl time.Duration) *Directory {
	return &Directory{
		src:    src,
		store:  store,
		ttl:    ttl,
		logger: log.With().Str("component", "user_directory").Logger(),
	}
}

// Lookup returns the directory record for one employee id, or
// ErrNotFound when the id is not registered.
func (d *Directory) Lookup(ctx context.Context, userID string) (*types.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, types.ErrNotFound
	}

	key := cache.UserKey(userID)
	if blob, ok := d.store.Get(key); ok {
		var u types.User
		if err := json.Unmarshal(blob, &u); err == nil {
			return &u, nil
		}
		d.store.Delete(key)
	}

	rows, err := d.src.FetchUserRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("user directory fetch: %w", err)
	}

	for _, row := range rows {
		if strings.TrimSpace(row[types.FieldUserID]) != userID {
			continue
		}
		u := types.User{
			ID:       userID,
			Name:     strings.TrimSpace(row[types.FieldName]),
			Surname:  strings.TrimSpace(row[types.FieldSurname]),
			Position: strings.TrimSpace(row[types.FieldPosition]),
			Shop:     strings.TrimSpace(row[types.FieldShop]),
		}
		if blob, err := json.Marshal(u); err == nil {
			d.store.Set(key, blob, d.ttl)
		}
		return &u, nil
	}

	return nil, types.ErrNotFound
}
