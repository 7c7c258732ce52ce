package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtract_Text(t *testing.T) {
	e := NewExtractor(nil)
	doc, err := e.Extract(context.Background(), Source{Type: "text", Content: "  Bean Bros launched a new latte.  "})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Text != "Bean Bros launched a new latte." {
		t.Errorf("text = %q", doc.Text)
	}
}

func TestExtract_DefaultTypeIsText(t *testing.T) {
	e := NewExtractor(nil)
	doc, err := e.Extract(context.Background(), Source{Content: "hello"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Text != "hello" {
		t.Errorf("text = %q", doc.Text)
	}
}

func TestExtract_EmptyText(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), Source{Type: "text", Content: "   "})
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

func TestExtract_UnknownType(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), Source{Type: "video", Content: "x"})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestExtract_FileUTF8(t *testing.T) {
	e := NewExtractor(nil)
	enc := base64.StdEncoding.EncodeToString([]byte("Chiến dịch mùa hè #cafe"))
	doc, err := e.Extract(context.Background(), Source{Type: "file", Content: enc})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Text != "Chiến dịch mùa hè #cafe" {
		t.Errorf("text = %q", doc.Text)
	}
	if doc.Origin != "upload" {
		t.Errorf("origin = %q", doc.Origin)
	}
}

func TestExtract_FileBadBase64(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), Source{Type: "file", Content: "!!!not base64"})
	if err == nil || !strings.Contains(err.Error(), "base64") {
		t.Errorf("err = %v, want base64 error", err)
	}
}

func TestExtract_FileBinary(t *testing.T) {
	e := NewExtractor(nil)
	enc := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00, 0x81})
	_, err := e.Extract(context.Background(), Source{Type: "file", Content: enc})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestExtract_FileBrokenPDF(t *testing.T) {
	e := NewExtractor(nil)
	enc := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4\ngarbage"))
	_, err := e.Extract(context.Background(), Source{Type: "file", Content: enc})
	if err == nil || !strings.Contains(err.Error(), "pdf") {
		t.Errorf("err = %v, want pdf error", err)
	}
}

func TestExtract_URLPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "SocialVault/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("price list: latte 45k"))
	}))
	defer srv.Close()

	e := NewExtractor(srv.Client())
	doc, err := e.Extract(context.Background(), Source{Type: "url", URL: srv.URL + "/prices.txt"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Text != "price list: latte 45k" {
		t.Errorf("text = %q", doc.Text)
	}
	if doc.Title != srv.URL+"/prices.txt" {
		t.Errorf("title = %q, want url", doc.Title)
	}
	if doc.Origin != srv.URL+"/prices.txt" {
		t.Errorf("origin = %q", doc.Origin)
	}
}

func TestExtract_URLHTML(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Bean Bros Blog</title></head><body>
<nav>Home | About</nav>
<article><h1>Summer menu</h1>
<p>Bean Bros is launching a cold brew line across all stores this summer, with three new flavours and a loyalty promotion for regular customers.</p>
<p>The campaign runs on Facebook and Instagram with daily posts and short videos that highlight the baristas and the brewing process.</p>
</article></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	e := NewExtractor(srv.Client())
	doc, err := e.Extract(context.Background(), Source{Type: "url", URL: srv.URL})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(doc.Text, "cold brew line") {
		t.Errorf("text missing article body: %q", doc.Text)
	}
	if doc.Title != "Bean Bros Blog" {
		t.Errorf("title = %q", doc.Title)
	}
	if strings.Contains(doc.Text, "<p>") {
		t.Errorf("text still contains markup: %q", doc.Text)
	}
}

func TestExtract_URLNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewExtractor(srv.Client())
	_, err := e.Extract(context.Background(), Source{Type: "url", URL: srv.URL})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Errorf("status = %d", fe.Status)
	}
}

func TestExtract_URLInvalid(t *testing.T) {
	e := NewExtractor(nil)
	for _, u := range []string{"", "ftp://example.com/x", "not a url"} {
		_, err := e.Extract(context.Background(), Source{Type: "url", URL: u})
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("url %q: err = %v, want ErrUnsupported", u, err)
		}
	}
}

func TestExtract_URLBodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("a", maxFetchSize+1024)))
	}))
	defer srv.Close()

	e := NewExtractor(srv.Client())
	doc, err := e.Extract(context.Background(), Source{Type: "url", URL: srv.URL})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Text) != maxFetchSize {
		t.Errorf("len = %d, want %d", len(doc.Text), maxFetchSize)
	}
}
