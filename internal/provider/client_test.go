package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/apperr"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(config.Provider{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 250 * time.Millisecond,
	})
	return client, srv
}

func TestSubmitImmediateSendsScheduledInPast(t *testing.T) {
	var captured PostRequest

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/post" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(PostResult{ID: "pp_1", Status: StatusPosted})
	}))

	before := time.Now()
	result, err := client.SubmitImmediatePost(context.Background(), map[string]any{"TWITTER": map[string]any{}})
	if err != nil {
		t.Fatalf("SubmitImmediatePost: %v", err)
	}

	if result.ID != "pp_1" || result.Status != StatusPosted {
		t.Errorf("result = %+v", result)
	}
	if captured.Status != StatusScheduled {
		t.Errorf("request status = %q, want SCHEDULED", captured.Status)
	}
	if !captured.ScheduledAt.Before(before) {
		t.Errorf("scheduledAt %v should lie in the past", captured.ScheduledAt)
	}
	if _, ok := captured.Platforms["TWITTER"]; !ok {
		t.Errorf("platforms = %v", captured.Platforms)
	}
}

func TestSubmitScheduledCarriesTimestamp(t *testing.T) {
	var captured PostRequest

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(PostResult{ID: "pp_2", Status: StatusScheduled})
	}))

	when := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	if _, err := client.SubmitScheduledPost(context.Background(), map[string]any{"TIKTOK": map[string]any{}}, when); err != nil {
		t.Fatalf("SubmitScheduledPost: %v", err)
	}

	if !captured.ScheduledAt.Equal(when) {
		t.Errorf("scheduledAt = %v, want %v", captured.ScheduledAt, when)
	}
}

func TestSubmitRetriesOnTimeout(t *testing.T) {
	var calls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			time.Sleep(time.Second) // outlives the client timeout
			return
		}
		json.NewEncoder(w).Encode(PostResult{ID: "pp_3", Status: StatusPosted})
	}))

	var slept []time.Duration
	client.WithSleep(func(d time.Duration) { slept = append(slept, d) })

	result, err := client.SubmitImmediatePost(context.Background(), map[string]any{"TWITTER": map[string]any{}})
	if err != nil {
		t.Fatalf("SubmitImmediatePost after retries: %v", err)
	}

	if result.ID != "pp_3" {
		t.Errorf("result = %+v", result)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("provider called %d times, want 3", got)
	}
	if len(slept) != 2 || slept[0] != 5*time.Second || slept[1] != 10*time.Second {
		t.Errorf("backoff = %v, want [5s 10s]", slept)
	}
}

func TestSubmitGivesUpAfterTwoRetries(t *testing.T) {
	var calls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(time.Second)
	}))
	client.WithSleep(func(time.Duration) {})

	_, err := client.SubmitImmediatePost(context.Background(), map[string]any{"TWITTER": map[string]any{}})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if apperr.KindOf(err) != apperr.KindProviderTimeout {
		t.Errorf("error kind = %v, want provider timeout", apperr.KindOf(err))
	}
	if !strings.Contains(err.Error(), "may still be processing") {
		t.Errorf("timeout error should warn about ambiguity, got %q", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("provider called %d times, want 3", got)
	}
}

func TestSubmitDoesNotRetryProviderErrors(t *testing.T) {
	var calls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"message":"caption too long for TIKTOK"}}`))
	}))
	client.WithSleep(func(time.Duration) { t.Error("sleep should not be called") })

	_, err := client.SubmitImmediatePost(context.Background(), map[string]any{"TIKTOK": map[string]any{}})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
	if apperr.KindOf(err) != apperr.KindProvider {
		t.Errorf("error kind = %v, want provider", apperr.KindOf(err))
	}
	if !strings.Contains(err.Error(), "caption too long for TIKTOK") {
		t.Errorf("provider message should pass through verbatim, got %q", err)
	}
}

func TestResponseErrorFallsBackToStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway error</html>"))
	}))

	_, err := client.FetchPost(context.Background(), "pp_9")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("fallback error should carry the HTTP status, got %q", err)
	}
}

func TestResponseErrorFlatMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"post not found"}`))
	}))

	_, err := client.FetchPost(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "post not found") {
		t.Errorf("flat message body should pass through, got %v", err)
	}
}

func TestDeletePostSendsDelete(t *testing.T) {
	var gotMethod, gotPath string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.DeletePost(context.Background(), "pp_4"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/post/pp_4" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestUploadMediaMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()

		if header.Filename != "clip-key" {
			t.Errorf("filename = %q", header.Filename)
		}
		if got := r.FormValue("contentType"); got != "video/mp4" {
			t.Errorf("contentType field = %q", got)
		}
		json.NewEncoder(w).Encode(UploadResult{UploadID: "up_7", Status: UploadStatusProcessing})
	}))

	result, err := client.UploadMedia(context.Background(), "clip-key", "video/mp4", []byte("fake-bytes"))
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if result.UploadID != "up_7" {
		t.Errorf("result = %+v", result)
	}
}
