package cache

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	c.Set("sector:YSSY", "TEST_REGION", time.Minute)

	val, found := c.Get("sector:YSSY")
	if !found {
		t.Fatal("expected cache hit")
	}
	if val != "TEST_REGION" {
		t.Errorf("unexpected value: %v", val)
	}
}

func TestMemoryCache_GetOrSet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	calls := 0
	loader := func() (any, error) {
		calls++
		return "loaded", nil
	}

	v1, err := c.GetOrSet("k", time.Minute, loader)
	if err != nil || v1 != "loaded" {
		t.Fatalf("unexpected result: %v %v", v1, err)
	}
	v2, err := c.GetOrSet("k", time.Minute, loader)
	if err != nil || v2 != "loaded" {
		t.Fatalf("unexpected result: %v %v", v2, err)
	}
	if calls != 1 {
		t.Errorf("expected loader called once, got %d", calls)
	}
}

func TestMemoryCache_GetOrSet_LoaderError(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_, err := c.GetOrSet("k", time.Minute, func() (any, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected loader error to propagate")
	}
	if _, found := c.Get("k"); found {
		t.Error("expected nothing cached after loader error")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	c.Set("k", "v", time.Minute)
	c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("expected key removed after Delete")
	}
}
