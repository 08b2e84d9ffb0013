package telegram_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cliprate/internal/logging"
	"cliprate/internal/session"
	"cliprate/internal/survey"
	"cliprate/internal/telegram"
	"cliprate/internal/testsupport"
)

// TestPollerDispatchesBatch wires a real manager and store behind a fake Bot
// API: one poll delivers a /start message followed by a score press, the
// second poll stops the loop. The store state afterwards proves both events
// travelled the full decode-dispatch-persist path.
func TestPollerDispatchesBatch(t *testing.T) {
	batch := []map[string]any{
		{
			"update_id": 100,
			"message": map[string]any{
				"message_id": 1,
				"from":       map[string]any{"id": 9, "first_name": "Ann"},
				"chat":       map[string]any{"id": 9},
				"text":       "/start Robotics",
			},
		},
		{
			"update_id": 101,
			"callback_query": map[string]any{
				"id":   "cb1",
				"from": map[string]any{"id": 9},
				"data": "score:4",
			},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		polls   int32
		mu      sync.Mutex
		offsets []float64
		sent    []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		raw, _ := io.ReadAll(r.Body)

		result := any(true)
		switch method {
		case "getUpdates":
			var body map[string]any
			_ = json.Unmarshal(raw, &body)
			mu.Lock()
			offsets = append(offsets, body["offset"].(float64))
			mu.Unlock()
			if atomic.AddInt32(&polls, 1) == 1 {
				result = batch
			} else {
				cancel()
				result = []any{}
			}
		case "sendMessage":
			var body map[string]any
			_ = json.Unmarshal(raw, &body)
			mu.Lock()
			sent = append(sent, body["text"].(string))
			mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	cfg.Telegram.PollTimeout = 1
	st := testsupport.MustOpenStore(t, cfg)
	cat := testsupport.MustLoadCatalog(t)
	machine := session.NewMachine(cat, cfg.Survey.VideosPerTheme, testsupport.FixedRand(t, 1))

	client, err := telegram.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	renderer := telegram.NewPromptRenderer(client, cat)
	manager := survey.NewManager(st, cat, machine, renderer, logging.NewNop())
	poller := telegram.NewPoller(cfg, client, manager, logging.NewNop())

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	sess, err := st.GetProgress(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session created by /start")
	}
	if sess.Theme != "Robotics" {
		t.Fatalf("unexpected theme %q", sess.Theme)
	}
	if sess.CriterionIndex != 1 {
		t.Fatalf("expected score press to advance criterion, got %d", sess.CriterionIndex)
	}
	ratings, err := st.AllRatings(context.Background())
	if err != nil {
		t.Fatalf("AllRatings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Score != 4 {
		t.Fatalf("unexpected ratings: %+v", ratings)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(offsets) < 2 || offsets[1] != 102 {
		t.Fatalf("expected second poll offset past the batch, got %v", offsets)
	}
	greeted := false
	for _, text := range sent {
		if strings.Contains(text, "Hello, Ann!") {
			greeted = true
		}
	}
	if !greeted {
		t.Fatalf("expected the sender's name in the intro, got %q", sent)
	}
}
