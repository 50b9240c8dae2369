package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/intellichat/intellichat/internal/model"
)

// galleryKey holds the serialized published image list.
const galleryKey = "gallery:published"

// GetPublishedImages returns the cached gallery. ok is false on a miss or a
// corrupt entry.
func (c *Cache) GetPublishedImages(ctx context.Context) (images []model.PublishedImage, ok bool, err error) {
	data, err := c.client.Get(ctx, galleryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get gallery: %w", err)
	}

	if err := json.Unmarshal(data, &images); err != nil {
		return nil, false, nil //nolint:nilerr
	}
	return images, true, nil
}

// SetPublishedImages caches the gallery for ttl.
func (c *Cache) SetPublishedImages(ctx context.Context, images []model.PublishedImage, ttl time.Duration) error {
	if images == nil {
		images = []model.PublishedImage{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encode gallery: %w", err)
	}
	if err := c.client.Set(ctx, galleryKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("set gallery: %w", err)
	}
	return nil
}

// InvalidatePublishedImages drops the cached gallery.
func (c *Cache) InvalidatePublishedImages(ctx context.Context) error {
	if err := c.client.Del(ctx, galleryKey).Err(); err != nil {
		return fmt.Errorf("invalidate gallery: %w", err)
	}
	return nil
}
