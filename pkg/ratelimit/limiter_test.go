package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 200*time.Millisecond)

	// Test initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Test exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Test refill after the window elapses
	time.Sleep(250 * time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	// Test reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 100*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("Expected first request to be allowed")
	}

	start := time.Now()
	tb.Wait()
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Errorf("Expected Wait to block until refill, only waited %v", elapsed)
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	// Test initial requests
	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	// Test limit reached
	if sw.Allow() {
		t.Error("Expected request to be denied when limit is reached")
	}

	// Test window sliding
	time.Sleep(250 * time.Millisecond)
	if !sw.Allow() {
		t.Error("Expected request to be allowed after window slides")
	}
}

func TestSlidingWindowReset(t *testing.T) {
	sw := NewSlidingWindow(2, time.Second)

	sw.Allow()
	sw.Allow()
	if sw.Allow() {
		t.Error("Expected limit to be reached")
	}

	sw.Reset()
	if !sw.Allow() {
		t.Error("Expected request to be allowed after reset")
	}
}

func TestSlidingWindowEvictsOldRequests(t *testing.T) {
	sw := NewSlidingWindow(2, 100*time.Millisecond)

	sw.Allow()
	time.Sleep(120 * time.Millisecond)
	sw.Allow()
	sw.Allow()

	// Only the two recent requests should count
	if len(sw.requests) != 2 {
		t.Errorf("Expected 2 tracked requests, got %d", len(sw.requests))
	}
}
