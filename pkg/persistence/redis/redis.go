// Package redis provides redis-backed blueprint persistence. Documents are
// stored under blueprint:<bot_id>:<id> with a per-bot index set.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on a redis instance.
type Persistence struct {
	client *redis.Client
	repo   *BlueprintRepository
}

// NewPersistence connects using a redis:// URL.
func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	return &Persistence{
		client: client,
		repo:   NewBlueprintRepository(client),
	}, nil
}

// Close releases the client connection pool.
func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// BlueprintRepository returns the redis-backed repository.
func (p *Persistence) BlueprintRepository() persistence.BlueprintRepository {
	return p.repo
}

// BlueprintRepository stores blueprint documents in redis keys.
type BlueprintRepository struct {
	client *redis.Client
}

// NewBlueprintRepository wraps an existing client.
func NewBlueprintRepository(client *redis.Client) *BlueprintRepository {
	return &BlueprintRepository{client: client}
}

func blueprintKey(botID, id string) string {
	return fmt.Sprintf("blueprint:%s:%s", botID, id)
}

func botIndexKey(botID string) string {
	return fmt.Sprintf("blueprints:%s", botID)
}

// Save writes the blueprint document and adds it to the bot index.
func (r *BlueprintRepository) Save(ctx context.Context, bp *models.Blueprint) error {
	data, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("failed to encode blueprint %s: %w", bp.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, blueprintKey(bp.BotID, bp.ID), data, 0)
	pipe.SAdd(ctx, botIndexKey(bp.BotID), bp.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save blueprint %s: %w", bp.ID, err)
	}

	return nil
}

// GetByID loads one blueprint document.
func (r *BlueprintRepository) GetByID(ctx context.Context, botID, id string) (*models.Blueprint, error) {
	data, err := r.client.Get(ctx, blueprintKey(botID, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrBlueprintNotFound
		}

		return nil, fmt.Errorf("failed to read blueprint %s: %w", id, err)
	}

	var bp models.Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("failed to decode blueprint %s: %w", id, err)
	}

	return &bp, nil
}

// ListByBot loads every blueprint in the bot's index set.
func (r *BlueprintRepository) ListByBot(ctx context.Context, botID string) ([]*models.Blueprint, error) {
	ids, err := r.client.SMembers(ctx, botIndexKey(botID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list blueprints for bot %s: %w", botID, err)
	}

	blueprints := make([]*models.Blueprint, 0, len(ids))

	for _, id := range ids {
		bp, err := r.GetByID(ctx, botID, id)
		if err != nil {
			// Index entries can outlive their documents briefly; skip.
			if persistence.IsBlueprintNotFound(err) {
				continue
			}

			return nil, err
		}

		blueprints = append(blueprints, bp)
	}

	return blueprints, nil
}

// Delete removes the document and its index entry.
func (r *BlueprintRepository) Delete(ctx context.Context, botID, id string) error {
	removed, err := r.client.Del(ctx, blueprintKey(botID, id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete blueprint %s: %w", id, err)
	}

	if removed == 0 {
		return persistence.ErrBlueprintNotFound
	}

	if err := r.client.SRem(ctx, botIndexKey(botID), id).Err(); err != nil {
		return fmt.Errorf("failed to update blueprint index for bot %s: %w", botID, err)
	}

	return nil
}
