package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chatServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientGenerate(t *testing.T) {
	t.Parallel()

	var seen chatRequest
	content := "```json\n" + `{"tasks":[{"date":"2024-01-01","task_description":"Drink one glass"},{"date":"2024-01-02","task_description":"Drink two glasses"}]}` + "\n```"
	srv := chatServer(t, http.StatusOK, content, &seen)
	c := NewClient(srv.URL+"/v1/", "sk-test", "gpt-test", 5*time.Second)

	got, err := c.Generate(context.Background(), Request{HabitName: "Drink water", StartDate: "2024-01-01", EndDate: "2024-01-02"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(got.Tasks) != 2 || got.Model != "gpt-test" || got.RawResponse != content || got.Prompt == "" {
		t.Fatalf("Generate() = %+v", got)
	}
	if seen.Model != "gpt-test" || seen.MaxTokens != maxTokens || seen.Temperature != temperature || len(seen.Messages) != 2 {
		t.Fatalf("request = %+v", seen)
	}
	if seen.Messages[0].Role != "system" || seen.Messages[1].Role != "user" {
		t.Fatalf("roles = %s, %s", seen.Messages[0].Role, seen.Messages[1].Role)
	}
}

func TestClientParseFailure(t *testing.T) {
	t.Parallel()

	srv := chatServer(t, http.StatusOK, "Sorry, I can't do that.", nil)
	c := NewClient(srv.URL+"/v1", "sk-test", "gpt-test", 5*time.Second)

	_, err := c.Reschedule(context.Background(), Request{HabitName: "Read", StartDate: "2024-01-01", EndDate: "2024-01-02"})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Reschedule() error = %v, want ErrParse", err)
	}
}

func TestClientHTTPError(t *testing.T) {
	t.Parallel()

	srv := chatServer(t, http.StatusTooManyRequests, "", nil)
	c := NewClient(srv.URL+"/v1", "sk-test", "gpt-test", 5*time.Second)

	_, err := c.Generate(context.Background(), Request{HabitName: "Read", StartDate: "2024-01-01", EndDate: "2024-01-02"})
	if err == nil || errors.Is(err, ErrParse) {
		t.Fatalf("Generate() error = %v, want transport error", err)
	}
}
