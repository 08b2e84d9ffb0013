package telegram_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cliprate/internal/telegram"
	"cliprate/internal/testsupport"
)

type apiCall struct {
	method string
	body   map[string]any
}

// fakeBotAPI records every call and answers with canned results.
type fakeBotAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	updates map[string]any
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		var body map[string]any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Errorf("decode body: %v", err)
			}
		}

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{method: method, body: body})
		f.mu.Unlock()

		result := any(true)
		if method == "getUpdates" {
			result = f.updates["batch"]
			if result == nil {
				result = []any{}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	})
}

func (f *fakeBotAPI) recorded(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, call := range f.calls {
		if call.method == method {
			out = append(out, call)
		}
	}
	return out
}

func newTestClient(t *testing.T, api *fakeBotAPI) *telegram.Client {
	t.Helper()

	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	client, err := telegram.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestSendMessageCarriesKeyboard(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "1", CallbackData: "score:1"}},
		},
	}
	if err := client.SendMessage(context.Background(), 42, "rate it", markup); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	calls := api.recorded("sendMessage")
	if len(calls) != 1 {
		t.Fatalf("expected one sendMessage call, got %d", len(calls))
	}
	body := calls[0].body
	if body["chat_id"].(float64) != 42 || body["text"] != "rate it" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["reply_markup"] == nil {
		t.Fatal("expected reply_markup in body")
	}
}

func TestSendVideoUsesFileID(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	if err := client.SendVideo(context.Background(), 7, "clip-abc", "Video 1 of 3"); err != nil {
		t.Fatalf("SendVideo: %v", err)
	}
	calls := api.recorded("sendVideo")
	if len(calls) != 1 {
		t.Fatalf("expected one sendVideo call, got %d", len(calls))
	}
	if calls[0].body["video"] != "clip-abc" || calls[0].body["caption"] != "Video 1 of 3" {
		t.Fatalf("unexpected body: %v", calls[0].body)
	}
}

func TestEditMessageReplyMarkupRemovesKeyboard(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	if err := client.EditMessageReplyMarkup(context.Background(), 42, 7, nil); err != nil {
		t.Fatalf("EditMessageReplyMarkup: %v", err)
	}
	calls := api.recorded("editMessageReplyMarkup")
	if len(calls) != 1 {
		t.Fatalf("expected one editMessageReplyMarkup call, got %d", len(calls))
	}
	body := calls[0].body
	if body["chat_id"].(float64) != 42 || body["message_id"].(float64) != 7 {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, present := body["reply_markup"]; present {
		t.Fatal("nil markup must omit reply_markup so the keyboard is removed")
	}
}

func TestGetUpdatesDecodesBatch(t *testing.T) {
	api := &fakeBotAPI{updates: map[string]any{
		"batch": []map[string]any{
			{
				"update_id": 10,
				"callback_query": map[string]any{
					"id":   "cb1",
					"from": map[string]any{"id": 5},
					"data": "score:4",
				},
			},
			{
				"update_id": 11,
				"message": map[string]any{
					"message_id": 1,
					"from":       map[string]any{"id": 5},
					"chat":       map[string]any{"id": 5},
					"text":       "/start",
				},
			},
		},
	}}
	client := newTestClient(t, api)

	updates, err := client.GetUpdates(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected two updates, got %d", len(updates))
	}
	if updates[0].CallbackQuery == nil || updates[0].CallbackQuery.Data != "score:4" {
		t.Fatalf("unexpected first update: %+v", updates[0])
	}
	if updates[1].Message == nil || updates[1].Message.Text != "/start" {
		t.Fatalf("unexpected second update: %+v", updates[1])
	}
}

func TestCallSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"description": "Bad Request: chat not found",
			"error_code":  400,
		})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	client, err := telegram.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	err = client.SendMessage(context.Background(), 1, "hi", nil)
	if err == nil {
		t.Fatal("expected API error")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected description in error, got %v", err)
	}
}
