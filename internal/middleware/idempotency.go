// Package middleware holds gin middleware specific to the console API.
package middleware

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/cache"
	"github.com/prudhivi99/billing-console/internal/logger"
)

const (
	IdempotencyHeader = "X-Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
)

// writebackTimeout bounds the store update after the handler returns.
const writebackTimeout = 5 * time.Second

// Idempotency replays the stored response of a request that carried the same
// X-Idempotency-Key. Requests without the header pass straight through.
// Only 2xx responses are remembered; anything else releases the key.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx).With(zap.String("idempotency_key", key))

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		bodyHash := hashing(body)
		cacheKey := c.Request.Method + " " + c.FullPath() + " " + key

		reserved, err := store.Reserve(ctx, cacheKey, bodyHash, ttl)
		if err != nil {
			// store outage must not block bill creation
			log.Error("Failed to reserve idempotency key", zap.Error(err))
			c.Next()
			return
		}

		if !reserved {
			handleExisting(c, store, cacheKey, bodyHash, log)
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		// The client may be gone by now; the key must still be settled.
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writebackTimeout)
		defer cancel()

		status := recorder.Status()
		if status >= 200 && status < 300 {
			entry := cache.Entry{
				BodyHash:   bodyHash,
				StatusCode: status,
				Body:       recorder.buf.Bytes(),
				CreatedAt:  time.Now(),
			}
			if err := store.Complete(wctx, cacheKey, entry, ttl); err != nil {
				log.Error("Failed to cache successful response", zap.Error(err))
			}
			return
		}

		if err := store.Release(wctx, cacheKey); err != nil {
			log.Error("Failed to clear failed request from cache", zap.Error(err))
		}
	}
}

func handleExisting(c *gin.Context, store cache.IdempotencyStore, cacheKey, bodyHash string, log *zap.Logger) {
	entry, err := store.Get(c.Request.Context(), cacheKey)
	if errors.Is(err, cache.ErrMiss) {
		// expired between Reserve and Get
		c.Next()
		return
	}
	if err != nil {
		log.Error("Failed to check idempotency", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to check idempotency"})
		return
	}

	if entry.BodyHash != "" && bodyHash != "" && entry.BodyHash != bodyHash {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error": "idempotency key conflict: request body does not match previous request",
		})
		return
	}

	switch entry.Status {
	case cache.StatusProcessing:
		log.Info("Concurrent request detected")
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request is already being processed"})
	case cache.StatusCompleted:
		log.Info("Returning cached response")
		c.Header(ReplayedHeader, "true")
		c.Data(entry.StatusCode, "application/json; charset=utf-8", entry.Body)
		c.Abort()
	default:
		log.Warn("Unknown idempotency entry status", zap.String("status", entry.Status))
		c.Next()
	}
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// hashing creates a stable hash of the request body for conflict detection
func hashing(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}
