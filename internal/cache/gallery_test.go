package cache

import (
	"context"
	"testing"
	"time"

	"github.com/intellichat/intellichat/internal/model"
)

func TestPublishedImages_RoundTrip(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.GetPublishedImages(ctx); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	images := []model.PublishedImage{
		{ImageURL: "https://ik.example/2.png", UserName: "bob"},
		{ImageURL: "https://ik.example/1.png", UserName: "alice"},
	}
	if err := c.SetPublishedImages(ctx, images, 30*time.Second); err != nil {
		t.Fatalf("SetPublishedImages: %v", err)
	}
	if ttl := mr.TTL(galleryKey); ttl != 30*time.Second {
		t.Errorf("TTL = %s, want 30s", ttl)
	}

	got, ok, err := c.GetPublishedImages(ctx)
	if err != nil || !ok {
		t.Fatalf("GetPublishedImages: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != images[0] || got[1] != images[1] {
		t.Errorf("got %+v, want %+v", got, images)
	}
}

func TestPublishedImages_EmptyListIsAHit(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.SetPublishedImages(ctx, nil, time.Minute); err != nil {
		t.Fatalf("SetPublishedImages: %v", err)
	}
	got, ok, err := c.GetPublishedImages(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != 0 {
		t.Errorf("got %d images, want 0", len(got))
	}
}

func TestPublishedImages_Invalidate(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.SetPublishedImages(ctx, []model.PublishedImage{{ImageURL: "u", UserName: "n"}}, time.Minute)
	if err := c.InvalidatePublishedImages(ctx); err != nil {
		t.Fatalf("InvalidatePublishedImages: %v", err)
	}
	if _, ok, _ := c.GetPublishedImages(ctx); ok {
		t.Error("gallery should be a miss after invalidation")
	}
}

func TestPublishedImages_Expiry(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()

	_ = c.SetPublishedImages(ctx, []model.PublishedImage{{ImageURL: "u", UserName: "n"}}, 10*time.Second)
	mr.FastForward(11 * time.Second)

	if _, ok, _ := c.GetPublishedImages(ctx); ok {
		t.Error("gallery should expire after its TTL")
	}
}

func TestPublishedImages_CorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	if err := mr.Set(galleryKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, ok, err := c.GetPublishedImages(context.Background())
	if err != nil || ok {
		t.Errorf("corrupt entry should be a silent miss, ok=%v err=%v", ok, err)
	}
}
