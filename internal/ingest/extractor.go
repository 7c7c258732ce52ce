// Package ingest turns imported competitor material (pasted text, uploaded
// files, web pages) into plain text.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

const (
	fetchTimeout = 10 * time.Second
	maxFetchSize = 5 << 20 // 5MB
	userAgent    = "SocialVault/1.0 (competitor content import)"
)

// Source types accepted by Extract.
const (
	TypeText = "text"
	TypeFile = "file"
	TypeURL  = "url"
)

var (
	// ErrEmpty is returned when the source yields no text.
	ErrEmpty = errors.New("no extractable text")
	// ErrUnsupported is returned for an unknown source type or binary file.
	ErrUnsupported = errors.New("unsupported content")
)

// FetchError is a non-2xx reply while fetching a URL.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Status)
}

// Source is one piece of material to import. Content holds the text for
// TypeText and base64 data for TypeFile.
type Source struct {
	Type    string
	Content string
	URL     string
}

// Document is the extracted result.
type Document struct {
	Title  string
	Text   string
	Origin string // url or "upload"
}

// Extractor extracts text from sources.
type Extractor struct {
	client *http.Client
}

// NewExtractor creates an Extractor. A nil client gets a default one.
func NewExtractor(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return &Extractor{client: client}
}

// Extract resolves src into plain text.
func (e *Extractor) Extract(ctx context.Context, src Source) (Document, error) {
	typ := strings.ToLower(strings.TrimSpace(src.Type))
	if typ == "" {
		typ = TypeText
	}

	var (
		doc Document
		err error
	)
	switch typ {
	case TypeText:
		doc = Document{Text: src.Content}
	case TypeFile:
		doc, err = e.fromFile(src.Content)
	case TypeURL:
		doc, err = e.fromURL(ctx, src.URL)
	default:
		return Document{}, fmt.Errorf("%w: source type %q", ErrUnsupported, src.Type)
	}
	if err != nil {
		return Document{}, err
	}

	doc.Text = strings.TrimSpace(doc.Text)
	if doc.Text == "" {
		return Document{}, ErrEmpty
	}
	return doc, nil
}

func (e *Extractor) fromFile(encoded string) (Document, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return Document{}, fmt.Errorf("decoding base64 content: %w", err)
	}
	text, err := decodeBytes(data, "")
	if err != nil {
		return Document{}, err
	}
	return Document{Text: text, Origin: "upload"}, nil
}

func (e *Extractor) fromURL(ctx context.Context, rawURL string) (Document, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Document{}, fmt.Errorf("%w: invalid url %q", ErrUnsupported, rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return Document{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetching url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Document{}, &FetchError{URL: parsed.String(), Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return Document{}, fmt.Errorf("reading url response: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/html" || mediaType == "application/xhtml+xml" || (mediaType == "" && looksLikeHTML(body)) {
		article, err := readability.FromReader(bytes.NewReader(body), parsed)
		if err != nil {
			return Document{}, fmt.Errorf("extracting readable text: %w", err)
		}
		title := pageTitle(body)
		if title == "" {
			title = parsed.String()
		}
		return Document{Title: title, Text: article.TextContent, Origin: parsed.String()}, nil
	}

	text, err := decodeBytes(body, mediaType)
	if err != nil {
		return Document{}, err
	}
	return Document{Title: parsed.String(), Text: text, Origin: parsed.String()}, nil
}

// decodeBytes returns the text of a PDF or UTF-8 payload.
func decodeBytes(data []byte, mediaType string) (string, error) {
	if mediaType == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF-")) {
		return pdfText(data)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: binary data", ErrUnsupported)
	}
	return string(data), nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// pageTitle returns the text of the first <title> element, if any.
func pageTitle(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(z.Text()))
			}
		case html.EndTagToken:
			inTitle = false
		}
	}
}
