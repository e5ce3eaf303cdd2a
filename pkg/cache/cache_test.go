package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New[int]()
	c.Set("key1", 7, 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestSliceValues(t *testing.T) {
	c := New[[]int]()
	c.Set("nums", []int{1, 2, 3}, 1*time.Second)
	nums, ok := c.Get("nums")
	if !ok || len(nums) != 3 {
		t.Fatalf("expected cached slice, got %v, exists=%v", nums, ok)
	}

	c.Clear()
	if _, ok := c.Get("nums"); ok {
		t.Fatalf("expected cleared cache to miss")
	}
}
