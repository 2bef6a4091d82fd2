// Package prefs stores per-user UI preferences (target language, theme) in
// Redis. Preferences survive sessions; the active session itself does not.
package prefs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/civitas-ai/civitas/models"
)

const prefsKeyPrefix = "prefs:"

// Repository persists user preferences in Redis.
type Repository struct {
	client *redis.Client
}

func NewRepository(client *redis.Client) *Repository {
	return &Repository{client: client}
}

// Get returns the stored preferences for userID, or the defaults when the
// user has never saved any.
func (r *Repository) Get(ctx context.Context, userID string) (models.Preferences, error) {
	val, err := r.client.Get(ctx, prefsKeyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.DefaultPreferences(), nil
		}
		return models.Preferences{}, err
	}

	var p models.Preferences
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return models.Preferences{}, err
	}
	if p.Language == "" {
		p.Language = models.DefaultLanguage
	}
	return p, nil
}

// Set stores the preferences for userID.
func (r *Repository) Set(ctx context.Context, userID string, p models.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, prefsKeyPrefix+userID, data, 0).Err()
}
