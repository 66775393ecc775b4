package ocrprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConvertSendsAuthAndDecodesPages(t *testing.T) {
	var gotAuth, gotMethod, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pages":       []string{"page one", "page two"},
			"model":       "docmark-ocr-v1",
			"temperature": 0,
			"usage": map[string]any{
				"prompt_tokens":     100,
				"completion_tokens": 50,
				"total_tokens":      150,
			},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret-token", Model: "docmark-ocr-v1"}, nil)
	result, err := client.Convert(context.Background(), []byte("pdf bytes"), "application/pdf", "invoice.pdf")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/v1/convert" {
		t.Fatalf("expected POST /v1/convert, got %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody["filename"] != "invoice.pdf" || gotBody["mime_type"] != "application/pdf" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}

	if len(result.Pages) != 2 || result.Pages[0] != "page one" {
		t.Fatalf("unexpected pages: %v", result.Pages)
	}
	if result.Tokens.Total != 150 {
		t.Fatalf("expected total tokens 150, got %d", result.Tokens.Total)
	}
	if !strings.Contains(result.Markdown(), "---") {
		t.Fatalf("expected Markdown() to join multiple pages with a separator, got %q", result.Markdown())
	}
}

func TestConvertReturnsErrorOnNonTwoXXStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("provider overloaded"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := client.Convert(context.Background(), []byte("x"), "application/pdf", "x.pdf")
	if err == nil {
		t.Fatalf("expected an error for a 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected the status code in the error, got %v", err)
	}
}

func TestConvertRejectsEmptyPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"pages": []string{}, "model": "m"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := client.Convert(context.Background(), []byte("x"), "application/pdf", "x.pdf")
	if err == nil {
		t.Fatalf("expected an error when the provider returns no pages")
	}
}

func TestConvertRejectsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := client.Convert(context.Background(), []byte("x"), "application/pdf", "x.pdf")
	if err == nil {
		t.Fatalf("expected a decode error for malformed JSON")
	}
}
