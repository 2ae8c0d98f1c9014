package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestSendAndParseGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "IBM" || r.Header.Get("User-Agent") != "volserve/1.0" {
			t.Errorf("query=%q ua=%q", r.URL.RawQuery, r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{"answer":42}`))
	}))
	defer srv.Close()

	var out struct {
		Answer int `json:"answer"`
	}
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		URL:         srv.URL,
		QueryParams: url.Values{"symbol": {"IBM"}},
	}, &out)
	if err != nil || out.Answer != 42 {
		t.Fatalf("out=%+v err=%v", out, err)
	}
}

func TestSendAndParsePOSTJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("method=%s ct=%s", r.Method, r.Header.Get("Content-Type"))
		}
		var in map[string]int
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]int{"double": in["n"] * 2})
	}))
	defer srv.Close()

	var raw []byte
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    srv.URL,
		Body:   map[string]int{"n": 4},
	}, &raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "{\"double\":8}\n" {
		t.Fatalf("raw = %q", raw)
	}
}

func TestSendAndParseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "slow down")
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests || se.Body != "slow down" {
		t.Fatalf("err = %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestCustomTransportAndUserAgent(t *testing.T) {
	var gotUA string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotUA = r.Header.Get("User-Agent")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})

	var out struct {
		OK bool `json:"ok"`
	}
	c := NewClient(WithTransport(rt), WithUserAgent("probe/2"))
	if err := c.SendAndParse(context.Background(), &RequestOptions{URL: "http://example.invalid/x"}, &out); err != nil {
		t.Fatal(err)
	}
	if !out.OK || gotUA != "probe/2" {
		t.Fatalf("ok=%v ua=%q", out.OK, gotUA)
	}
}
