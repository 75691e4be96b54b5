package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("test-key", "asst_123", WithHTTPClient(server.Client()), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	return client
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name        string
		apiKey      string
		assistantID string
		err         error
	}{
		{"valid", "key", "asst", nil},
		{"missing key", "", "asst", ErrMissingAPIKey},
		{"missing assistant", "key", "", ErrMissingAssistantID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := New(tc.apiKey, tc.assistantID)
			if err != tc.err {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}

			if tc.err == nil && client.baseURL != defaultBaseURL {
				t.Errorf("expected default base URL, got %s", client.baseURL)
			}
		})
	}
}

func TestCreateSession(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/threads" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected Bearer test-key, got %s", got)
		}

		if got := r.Header.Get("OpenAI-Beta"); got != betaHeader {
			t.Errorf("expected OpenAI-Beta %s, got %s", betaHeader, got)
		}

		writeTestJSON(t, w, map[string]string{"id": "thread_1", "object": "thread"})
	}))

	id, err := client.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id != "thread_1" {
		t.Errorf("expected thread_1, got %s", id)
	}
}

func TestPostMessageAndStartRun(t *testing.T) {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		var body createMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		if body.Role != RoleUser || body.Content != "policy text" {
			t.Errorf("unexpected message body %+v", body)
		}

		writeTestJSON(t, w, map[string]string{"id": "msg_1"})
	})

	mux.HandleFunc("POST /threads/thread_1/runs", func(w http.ResponseWriter, r *http.Request) {
		var body createRunRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		if body.AssistantID != "asst_123" {
			t.Errorf("expected assistant asst_123, got %s", body.AssistantID)
		}

		writeTestJSON(t, w, map[string]string{"id": "run_1", "status": "queued"})
	})

	mux.HandleFunc("GET /threads/thread_1/runs/run_1", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(t, w, map[string]string{"id": "run_1", "status": "completed"})
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	if err := client.PostMessage(ctx, "thread_1", RoleUser, "policy text"); err != nil {
		t.Fatalf("unexpected error posting message: %v", err)
	}

	runID, err := client.StartRun(ctx, "thread_1")
	if err != nil {
		t.Fatalf("unexpected error starting run: %v", err)
	}

	if runID != "run_1" {
		t.Errorf("expected run_1, got %s", runID)
	}

	status, err := client.RunStatus(ctx, "thread_1", runID)
	if err != nil {
		t.Fatalf("unexpected error reading run status: %v", err)
	}

	if !status.Terminal() || !status.Succeeded() {
		t.Errorf("expected completed status, got %s", status)
	}
}

func TestListMessages_Chronological(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("order") != "desc" {
			t.Errorf("expected order=desc, got %s", r.URL.RawQuery)
		}

		writeTestJSON(t, w, map[string]any{
			"data": []map[string]any{
				{
					"id":   "msg_2",
					"role": "assistant",
					"content": []map[string]any{
						{"type": "text", "text": map[string]any{"value": "Policy Safe!", "annotations": []any{}}},
					},
				},
				{
					"id":   "msg_1",
					"role": "user",
					"content": []map[string]any{
						{"type": "text", "text": map[string]any{"value": "policy text"}},
						{"type": "image_file", "image_file": map[string]any{"file_id": "f"}},
					},
				},
			},
		})
	}))

	messages, err := client.ListMessages(context.Background(), "thread_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	if messages[0].Role != RoleUser || messages[0].Text != "policy text" {
		t.Errorf("expected oldest user message first, got %+v", messages[0])
	}

	if messages[1].Role != RoleAssistant || messages[1].Text != "Policy Safe!" {
		t.Errorf("expected assistant reply last, got %+v", messages[1])
	}
}

func TestDeleteSession(t *testing.T) {
	var deleted bool

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/threads/thread_1" {
			deleted = true
		}

		writeTestJSON(t, w, map[string]any{"id": "thread_1", "deleted": true})
	}))

	if err := client.DeleteSession(context.Background(), "thread_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !deleted {
		t.Error("expected thread delete request")
	}
}

func TestCall_NonOKStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	if _, err := client.CreateSession(context.Background()); err == nil {
		t.Fatal("expected error for unauthorized response")
	}
}

func TestRunStatus_Terminal(t *testing.T) {
	testCases := []struct {
		status   RunStatus
		terminal bool
	}{
		{RunQueued, false},
		{RunInProgress, false},
		{RunRequiresAction, false},
		{RunCancelling, false},
		{RunCompleted, true},
		{RunFailed, true},
		{RunCancelled, true},
		{RunExpired, true},
		{RunIncomplete, true},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.Terminal(); got != tc.terminal {
				t.Errorf("expected %v, got %v", tc.terminal, got)
			}
		})
	}
}
