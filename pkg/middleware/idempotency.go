package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planify/booking-service/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader is the header carrying the caller's key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	idempotencyKeyPrefix = "idempotency:"
)

// Idempotency record states
const (
	statusProcessing = "processing"
	statusCompleted  = "completed"
)

// idempotencyRecord stores the state of an idempotent request
type idempotencyRecord struct {
	Status       string    `json:"status"`
	RequestHash  string    `json:"request_hash"`
	ResponseCode int       `json:"response_code"`
	ResponseBody string    `json:"response_body"`
	CreatedAt    time.Time `json:"created_at"`
}

// RedisClient is the subset of redis operations the middleware needs
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Redis RedisClient
	// TTL for completed records
	TTL time.Duration
	// ProcessingTTL bounds how long an in-flight record blocks duplicates
	ProcessingTTL time.Duration
}

// DefaultIdempotencyConfig returns default configuration
func DefaultIdempotencyConfig(redis RedisClient) *IdempotencyConfig {
	return &IdempotencyConfig{
		Redis:         redis,
		TTL:           24 * time.Hour,
		ProcessingTTL: 60 * time.Second,
	}
}

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency deduplicates mutating requests carrying an
// X-Idempotency-Key header: a repeated key replays the stored response, a
// key still being processed is rejected. Requests without a key pass
// through untouched.
func Idempotency(cfg *IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || cfg == nil || cfg.Redis == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := idempotencyKeyPrefix + key
		reqHash := hashRequest(c)

		record := idempotencyRecord{
			Status:      statusProcessing,
			RequestHash: reqHash,
			CreatedAt:   time.Now(),
		}
		payload, _ := json.Marshal(record)

		acquired, err := cfg.Redis.SetNX(ctx, redisKey, payload, cfg.ProcessingTTL).Result()
		if err != nil {
			// Redis being down must not block bookings; skip deduplication
			c.Next()
			return
		}

		if !acquired {
			replay(c, cfg, ctx, redisKey, reqHash)
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		record.Status = statusCompleted
		record.ResponseCode = recorder.Status()
		record.ResponseBody = recorder.body.String()
		if payload, err := json.Marshal(record); err == nil {
			cfg.Redis.Set(ctx, redisKey, payload, cfg.TTL)
		}
	}
}

func replay(c *gin.Context, cfg *IdempotencyConfig, ctx context.Context, redisKey, reqHash string) {
	data, err := cfg.Redis.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			response.Error(c, http.StatusConflict, "DUPLICATE_REQUEST", "request with this idempotency key was just processed", "")
		} else {
			response.InternalError(c, err)
		}
		c.Abort()
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		response.InternalError(c, err)
		c.Abort()
		return
	}

	if record.RequestHash != reqHash {
		response.Error(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", "idempotency key was used with a different request", "")
		c.Abort()
		return
	}

	if record.Status == statusProcessing {
		response.Error(c, http.StatusConflict, "REQUEST_IN_PROGRESS", "request with this idempotency key is still being processed", "")
		c.Abort()
		return
	}

	c.Data(record.ResponseCode, "application/json", []byte(record.ResponseBody))
	c.Abort()
}

func hashRequest(c *gin.Context) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err == nil {
			h.Write(body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
