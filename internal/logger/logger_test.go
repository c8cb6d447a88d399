package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "default config",
			config: nil,
		},
		{
			name: "custom json config",
			config: &Config{
				Level:  "debug",
				Format: "json",
			},
		},
		{
			name: "console config",
			config: &Config{
				Level:  "info",
				Format: "console",
				Output: io.Discard,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.config)
			assert.NotNil(t, logger)
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:   "info",
		Format:  "json",
		Output:  buf,
		Service: "bucketgate",
	})

	logger.Info("test message")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "bucketgate", entry["service"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Output: buf})

	logger.With().
		Str("bucket", "test-bucket").
		Str("op", "create_bucket").
		Logger().
		Info("bucket created")

	entry := decode(t, buf)
	assert.Equal(t, "test-bucket", entry["bucket"])
	assert.Equal(t, "create_bucket", entry["op"])
	assert.Equal(t, "bucket created", entry["message"])
}

func TestLogger_ErrorWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "error", Output: buf})

	logger.ErrorWith("upload failed", errors.New("Credentials not available"), map[string]interface{}{
		"bucket": "test-bucket",
		"kind":   "no_credentials",
	})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "upload failed", entry["message"])
	assert.Equal(t, "Credentials not available", entry["error"])
	assert.Equal(t, "test-bucket", entry["bucket"])
	assert.Equal(t, "no_credentials", entry["kind"])
}

func TestLogger_Context(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Output: buf})

	ctx := logger.WithContext(context.Background())
	Nop().Ctx(ctx).Info("from context")

	entry := decode(t, buf)
	assert.Equal(t, "from context", entry["message"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool // should log or not
	}{
		{
			name:     "debug level logs debug",
			level:    "debug",
			logFunc:  func(l *Logger) { l.Debug("debug message") },
			expected: true,
		},
		{
			name:     "info level skips debug",
			level:    "info",
			logFunc:  func(l *Logger) { l.Debug("debug message") },
			expected: false,
		},
		{
			name:     "error level logs error",
			level:    "error",
			logFunc:  func(l *Logger) { l.ErrorWith("error message", errors.New("boom"), nil) },
			expected: true,
		},
		{
			name:     "error level skips info",
			level:    "error",
			logFunc:  func(l *Logger) { l.Info("info message") },
			expected: false,
		},
		{
			name:     "warning alias",
			level:    "WARNING",
			logFunc:  func(l *Logger) { l.Info("info message") },
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(&Config{Level: tt.level, Output: buf})

			tt.logFunc(logger)

			if tt.expected {
				assert.NotEmpty(t, buf.String(), "expected log output")
			} else {
				assert.Empty(t, buf.String(), "expected no log output")
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel("Warn"))
	assert.False(t, ValidLevel("verbose"))
}

func TestMiddleware_AccessLog(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Output: buf})

	var inner *Logger
	h := middleware.RequestID(logger.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = Nop().Ctx(r.Context())
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Object not found in the bucket"}`))
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download/?bucket_name=b&object_name=o", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotNil(t, inner)
	entry := decode(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/v1/download/", entry["path"])
	assert.Equal(t, float64(404), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := New(&Config{Level: "info", Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message")
	}
}

func BenchmarkLogger_WithFields(b *testing.B) {
	logger := New(&Config{Level: "info", Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.With().
			Str("bucket", "test-bucket").
			Str("object", "test.txt").
			Logger().
			Info("benchmark message")
	}
}

func TestLogger_Ctx(t *testing.T) {
	fallback := Nop()
	assert.Same(t, fallback, fallback.Ctx(context.Background()))

	buf := &bytes.Buffer{}
	stored := New(&Config{Level: "info", Output: buf})
	ctx := stored.WithContext(context.Background())

	fallback.Ctx(ctx).Info("routed")
	assert.Contains(t, buf.String(), "routed")
}
