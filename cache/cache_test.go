// ABOUTME: Tests for the TTL cache: hits, expiry, overrides, and deletes

package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("key", "value")
	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get missed a fresh entry")
	}
	if got != "value" {
		t.Errorf("Get = %v, want value", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("absent"); ok {
		t.Error("Get hit an entry that was never set")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)

	c.SetWithTTL("key", "value", 20*time.Millisecond)
	if _, ok := c.Get("key"); !ok {
		t.Fatal("entry expired immediately")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("key"); ok {
		t.Error("entry survived its TTL")
	}
}

func TestCacheSetRestartsClock(t *testing.T) {
	c := New(time.Minute)

	c.SetWithTTL("key", "old", 20*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	c.SetWithTTL("key", "new", 100*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("re-set entry expired on the old clock")
	}
	if got != "new" {
		t.Errorf("Get = %v, want new", got)
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(time.Minute)

	c.Set("key", "value")
	c.Delete("key")
	if _, ok := c.Get("key"); ok {
		t.Error("Get hit a deleted entry")
	}
}
