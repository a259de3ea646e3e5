package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectedErr struct{ rejected bool }

func (e rejectedErr) Error() string   { return "rejected" }
func (e rejectedErr) Rejection() bool { return e.rejected }

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestExitMethodWithError_Levels(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	ExitMethodWithError("OrderService.Approve", fmt.Errorf("approve: %w", rejectedErr{rejected: true}))
	ExitMethodWithError("OrderService.Approve", errors.New("connection reset"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "OrderService.Approve", lines[0]["method"])
	assert.Equal(t, "ERROR", lines[1]["level"])
}

func TestHTTPRequest_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	HTTPRequest("GET", "products.list", "/api/v1/products", 200, 3*time.Millisecond)
	HTTPRequest("POST", "quotations.submit", "/api/v1/quotations/q1/submit", 409, time.Millisecond)
	HTTPRequest("GET", "orders.get", "/api/v1/orders/o1", 500, time.Millisecond)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "products.list", lines[0]["route"])
	assert.Equal(t, float64(3), lines[0]["duration_ms"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "ERROR", lines[2]["level"])
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "text")
	t.Cleanup(func() { Initialize("info", "text") })

	EnterMethod("ProductService.GetProduct", "productID", "p1")
	assert.Empty(t, buf.String())

	Info("ready", "component", "test")
	assert.Contains(t, buf.String(), "msg=ready")
}
