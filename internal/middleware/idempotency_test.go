package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/himanshukumarraut/Leave-It/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

type storedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func newIdempotentRouter(t *testing.T) (*gin.Engine, redismock.ClientMock, *int) {
	rdb, mock := redismock.NewClientMock()
	calls := 0

	r := gin.New()
	r.POST("/api/leaves",
		func(c *gin.Context) { c.Set(middleware.ContextEmployeeID, "E1") },
		middleware.Idempotency(rdb, time.Hour),
		func(c *gin.Context) {
			calls++
			c.String(http.StatusCreated, "created")
		},
	)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return r, mock, &calls
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/leaves", nil)
	if key != "" {
		req.Header.Set(middleware.IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	cacheKey := middleware.IdempotencyCacheKey("/api/leaves", "E1", "key-1", []byte{})
	lockKey := cacheKey + ":lock"

	t.Run("first request runs handler and stores response", func(t *testing.T) {
		r, mock, calls := newIdempotentRouter(t)

		stored, _ := json.Marshal(storedResponse{Status: http.StatusCreated, Body: "created"})
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)
		mock.ExpectSet(cacheKey, string(stored), time.Hour).SetVal("OK")
		mock.ExpectDel(lockKey).SetVal(1)

		w := postWithKey(r, "key-1")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "created", w.Body.String())
		assert.Equal(t, 1, *calls)
	})

	t.Run("repeated key replays stored response", func(t *testing.T) {
		r, mock, calls := newIdempotentRouter(t)

		stored, _ := json.Marshal(storedResponse{Status: http.StatusCreated, Body: `{"ok":true}`})
		mock.ExpectGet(cacheKey).SetVal(string(stored))

		w := postWithKey(r, "key-1")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, `{"ok":true}`, w.Body.String())
		assert.Equal(t, "true", w.Header().Get(middleware.IdempotencyReplayHeader))
		assert.Equal(t, 0, *calls)
	})

	t.Run("in-flight duplicate gets conflict", func(t *testing.T) {
		r, mock, calls := newIdempotentRouter(t)

		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(false)

		w := postWithKey(r, "key-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PROCESSING")
		assert.Equal(t, 0, *calls)
	})

	t.Run("redis failure fails open", func(t *testing.T) {
		r, mock, calls := newIdempotentRouter(t)

		mock.ExpectGet(cacheKey).SetErr(errors.New("redis down"))

		w := postWithKey(r, "key-1")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, *calls)
	})

	t.Run("no key skips redis", func(t *testing.T) {
		r, _, calls := newIdempotentRouter(t)

		w := postWithKey(r, "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, *calls)
	})
}

func TestIdempotency_KeyIsScopedToBody(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	calls := 0

	r := gin.New()
	r.POST("/api/leaves",
		middleware.Idempotency(rdb, time.Hour),
		func(c *gin.Context) {
			calls++
			body, _ := io.ReadAll(c.Request.Body)
			c.String(http.StatusCreated, string(body))
		},
	)

	first := `{"employeeId":"E1"}`
	second := `{"employeeId":"E2"}`
	for _, body := range []string{first, second} {
		key := middleware.IdempotencyCacheKey("/api/leaves", "", "k1", []byte(body))
		stored, _ := json.Marshal(storedResponse{Status: http.StatusCreated, Body: body})
		mock.ExpectGet(key).RedisNil()
		mock.ExpectSetNX(key+":lock", "locked", 30*time.Second).SetVal(true)
		mock.ExpectSet(key, string(stored), time.Hour).SetVal("OK")
		mock.ExpectDel(key + ":lock").SetVal(1)
	}

	for _, body := range []string{first, second} {
		req := httptest.NewRequest(http.MethodPost, "/api/leaves", strings.NewReader(body))
		req.Header.Set(middleware.IdempotencyHeader, "k1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, body, w.Body.String())
	}

	assert.Equal(t, 2, calls)
	assert.NotEqual(t,
		middleware.IdempotencyCacheKey("/api/leaves", "", "k1", []byte(first)),
		middleware.IdempotencyCacheKey("/api/leaves", "", "k1", []byte(second)),
	)
	assert.NoError(t, mock.ExpectationsWereMet())
}
