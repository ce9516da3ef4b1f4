package models

import (
	"fmt"
	"net/http"
	"time"
)

// CacheLevel represents the cache level where a response was found
type CacheLevel string

const (
	CacheLevelL1   CacheLevel = "L1"
	CacheLevelL2   CacheLevel = "L2"
	CacheLevelMiss CacheLevel = "MISS"
)

func (cl CacheLevel) String() string {
	return string(cl)
}

// CacheLevelFromIndex creates a CacheLevel from a cache index.
// Index 0 returns L1, index 1 returns L2, higher indices return L3, L4, etc.
// Negative indices are treated as L1.
func CacheLevelFromIndex(index int) CacheLevel {
	if index < 0 {
		return CacheLevelL1
	}

	switch index {
	case 0:
		return CacheLevelL1
	case 1:
		return CacheLevelL2
	default:
		return CacheLevel(fmt.Sprintf("L%d", index+1))
	}
}

// CacheResult represents the result of a cache lookup with level information
type CacheResult struct {
	Response *CachedResponse `json:"response,omitempty"`
	Found    bool            `json:"found"`
	Level    CacheLevel      `json:"level"`
}

// CachedResponse is an upstream HTTP response stored in a response cache
type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body"`
	CreatedAt  int64       `json:"created_at"`
	ExpiresAt  int64       `json:"expires_at"`
}

// NewCachedResponse snapshots status, header and body with the given ttl
func NewCachedResponse(statusCode int, header http.Header, body []byte, ttl time.Duration) *CachedResponse {
	now := time.Now().Unix()
	return &CachedResponse{
		StatusCode: statusCode,
		Header:     header.Clone(),
		Body:       body,
		CreatedAt:  now,
		ExpiresAt:  now + int64(ttl.Seconds()),
	}
}

// IsExpired checks if the cached response is past its expiry
func (cr *CachedResponse) IsExpired() bool {
	return time.Now().Unix() > cr.ExpiresAt
}

// RemainingTTL returns how long the response stays valid, never negative
func (cr *CachedResponse) RemainingTTL() time.Duration {
	remaining := cr.ExpiresAt - time.Now().Unix()
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining) * time.Second
}

// Age returns the time elapsed since the response was stored
func (cr *CachedResponse) Age() time.Duration {
	return time.Duration(time.Now().Unix()-cr.CreatedAt) * time.Second
}

// HTTPResponse rebuilds an *http.Response carrying the cached status and header.
// The body is returned separately by callers, so the rebuilt response carries http.NoBody.
func (cr *CachedResponse) HTTPResponse() *http.Response {
	header := cr.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:     fmt.Sprintf("%d %s", cr.StatusCode, http.StatusText(cr.StatusCode)),
		StatusCode: cr.StatusCode,
		Header:     header,
		Body:       http.NoBody,
	}
}
