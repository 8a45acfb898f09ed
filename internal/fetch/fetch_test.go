package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := NewClient(nil).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.Body, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestClient_Get_InvalidURL(t *testing.T) {
	_, err := NewClient(nil).Get(context.Background(), "not-a-valid-url")
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestClient_Get_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := NewClient(nil).Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_SendsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(&Options{
		UserAgent: "job-radar-test",
		Headers:   map[string]string{"Accept": "application/json"},
	})
	_, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "job-radar-test", gotUA)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClient_MinIntervalSpacesRequests(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(&Options{MinInterval: 50 * time.Millisecond})
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), hits.Load())
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestClient_LimiterHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(&Options{MinInterval: time.Hour})
	_, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"radar","count":3}`))
	}))
	defer server.Close()

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := NewClient(nil).GetJSON(context.Background(), server.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, "radar", out.Name)
	assert.Equal(t, 3, out.Count)
}

func TestClient_GetJSON_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":`))
	}))
	defer server.Close()

	var out map[string]any
	err := NewClient(nil).GetJSON(context.Background(), server.URL, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode JSON")
}

func TestHTMLToText(t *testing.T) {
	html := `<div><p>Build  the   matching engine.</p><ul><li>Go</li><li>Postgres</li></ul><script>x()</script></div>`

	text := HTMLToText(html)
	assert.Equal(t, "Build the matching engine.\nGo\nPostgres", text)
}

func TestHTMLToText_PlainText(t *testing.T) {
	assert.Equal(t, "already plain", HTMLToText("  already   plain  "))
}
