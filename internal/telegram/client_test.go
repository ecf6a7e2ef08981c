package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/maine/tg_gemini_relay/internal/config"
)

// recordedRequest - запрос, полученный тестовым сервером Bot API.
type recordedRequest struct {
	path        string
	contentType string
	body        map[string]any
}

type apiRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *apiRecorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}

func newTestAPI(t *testing.T, status int, respBody string) (*httptest.Server, *apiRecorder) {
	t.Helper()
	rec := &apiRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, recordedRequest{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		rec.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func testClient(baseURL string) *Client {
	return NewClient("123:abc", config.Telegram{APIBaseURL: baseURL, RequestTimeout: 5 * time.Second})
}

func TestClient_SendMessage(t *testing.T) {
	srv, got := newTestAPI(t, http.StatusOK, `{"ok":true,"result":{}}`)
	c := testClient(srv.URL)

	if err := c.SendMessage(context.Background(), NewChatID(42), "hello"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	reqs := got.all()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.path != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", req.path)
	}
	if req.contentType != "application/json" {
		t.Errorf("Content-Type = %q", req.contentType)
	}
	if req.body["chat_id"] != float64(42) || req.body["text"] != "hello" {
		t.Errorf("body = %v", req.body)
	}
}

func TestClient_SendMessage_APIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		respBody string
		wantDiag string
	}{
		{
			name:     "json error body",
			status:   http.StatusBadRequest,
			respBody: `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
			wantDiag: `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
		},
		{
			name:     "non-json error body",
			status:   http.StatusBadGateway,
			respBody: `<html>bad gateway</html>`,
			wantDiag: "null",
		},
		{
			name:     "empty error body",
			status:   http.StatusForbidden,
			respBody: ``,
			wantDiag: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestAPI(t, tt.status, tt.respBody)
			c := testClient(srv.URL)

			err := c.SendMessage(context.Background(), NewChatID(1), "x")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("SendMessage() error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.DiagnosticText() != tt.wantDiag {
				t.Errorf("DiagnosticText() = %s, want %s", apiErr.DiagnosticText(), tt.wantDiag)
			}
		})
	}
}

func TestClient_SendMessage_TransportError(t *testing.T) {
	srv, _ := newTestAPI(t, http.StatusOK, `{}`)
	c := testClient(srv.URL)
	srv.Close()

	err := c.SendMessage(context.Background(), NewChatID(1), "x")
	if err == nil {
		t.Fatal("SendMessage() should fail when the API is unreachable")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failure should not be an *APIError")
	}
}

func TestClient_SetWebhook(t *testing.T) {
	srv, got := newTestAPI(t, http.StatusOK, `{"ok":true,"result":true}`)
	c := testClient(srv.URL + "/")

	if err := c.SetWebhook(context.Background(), "https://relay.example.com/webhook", "s3cret"); err != nil {
		t.Fatalf("SetWebhook() error = %v", err)
	}

	reqs := got.all()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.path != "/bot123:abc/setWebhook" {
		t.Errorf("path = %q", req.path)
	}
	if req.body["url"] != "https://relay.example.com/webhook" || req.body["secret_token"] != "s3cret" {
		t.Errorf("body = %v", req.body)
	}
}
