package resend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIKey:  "re_test_key",
		BaseURL: server.URL,
		From:    "TableMenu <noreply@tablemenu.example>",
	})
	require.NoError(t, err)
	return client
}

func testRequest() SendRequest {
	return SendRequest{
		To:      []string{"owner@bistro.example"},
		Subject: "Welcome",
		HTML:    "<p>Hello</p>",
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://api.resend.com", From: "a@b.c"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_Send_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test_key", r.Header.Get("Authorization"))

		var body SendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TableMenu <noreply@tablemenu.example>", body.From)
		assert.Equal(t, []string{"owner@bistro.example"}, body.To)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	})

	resp, err := client.Send(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "email_123", resp.ID)
	assert.Equal(t, "closed", client.BreakerState())
}

func TestClient_Send_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "Unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "Validation", status: http.StatusUnprocessableEntity, wantErr: ErrInvalidRequest},
		{name: "Rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "Server error", status: http.StatusInternalServerError, wantErr: ErrSendFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"statusCode":0,"name":"error","message":"nope"}`))
			})

			_, err := client.Send(context.Background(), testRequest())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Send_NoRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Send(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Send_BreakerOpens(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.Send(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrSendFailed)
	}

	_, err := client.Send(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, "open", client.BreakerState())
}

func TestClient_Send_InvalidRequestSkipsNetwork(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.Send(context.Background(), SendRequest{Subject: "x", HTML: "y"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, atomic.LoadInt32(&calls))
}
