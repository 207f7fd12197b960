package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yijing/internal/divination"
	"yijing/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Informational(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ChatPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_ = json.NewEncoder(w).Encode(types.ChatResponse{Response: "請來信預約", Intent: types.IntentPersona})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/"})
	got, err := c.Resolve(context.Background(), "聯絡方式", nil)
	require.NoError(t, err)
	assert.Equal(t, "請來信預約", got)

	assert.Equal(t, "聯絡方式", raw["message"])
	v, present := raw["numbers"]
	assert.True(t, present, "numbers is sent as null")
	assert.Nil(t, v)
}

func TestResolve_WithRitual(t *testing.T) {
	var req types.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(types.ChatResponse{Response: "卦象"})
	}))
	defer srv.Close()

	ritual := divination.Ritual{101, 202, 303}
	got, err := New(Config{BaseURL: srv.URL}).Resolve(context.Background(), "運勢", &ritual)
	require.NoError(t, err)
	assert.Equal(t, "卦象", got)
	assert.Equal(t, []int{101, 202, 303}, req.Numbers)
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		contain string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			contain: "status 500",
		},
		{
			name: "bad request with message",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: "請輸入問題"})
			},
			contain: "請輸入問題",
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			contain: "decode body",
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"response":"  "}`))
			},
			contain: "empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New(Config{BaseURL: srv.URL}).Resolve(context.Background(), "q", nil)
			require.ErrorIs(t, err, ErrResolver)
			assert.Contains(t, err.Error(), tt.contain)
		})
	}
}

func TestResolve_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: url}).Resolve(context.Background(), "q", nil)
	require.ErrorIs(t, err, ErrResolver)
}

func TestResolve_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}).Resolve(context.Background(), "q", nil)
	require.ErrorIs(t, err, ErrResolver)
}

func TestHealth(t *testing.T) {
	status := "ok"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, HealthPath, r.URL.Path)
		_ = json.NewEncoder(w).Encode(types.HealthResponse{Status: status, LLM: "disabled"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	require.NoError(t, c.Health(context.Background()))

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "disabled", st.LLM)

	status = "degraded"
	assert.ErrorIs(t, c.Health(context.Background()), ErrResolver)
}
