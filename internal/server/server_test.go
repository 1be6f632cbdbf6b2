package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nativemerge/pkg/errors"
)

const body = `{
  "config": {"merge_sequence": [{"libapp.so": ["libapp\\.so"]}], "blocklist": ["libc\\+\\+_shared\\.so"]},
  "graph": {
    "platforms": {
      "arm64": {
        "nodes": [
          {"target": "//app", "raw_name": "libapp.so", "deps": ["//log", "//stl"]},
          {"target": "//log", "raw_name": "liblog.so"},
          {"target": "//stl", "raw_name": "libc++_shared.so"}
        ]
      }
    }
  }
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New("", nil, log.New(io.Discard))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, payload string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/version"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
		if resp.Header.Get(RunIDHeader) == "" {
			t.Errorf("GET %s missing %s", path, RunIDHeader)
		}
	}
}

func TestMerge(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/v1/merge", body)
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /v1/merge = %d: %s", resp.StatusCode, data)
	}

	var doc struct {
		Platforms map[string]struct {
			Mapping map[string]*string `json:"mapping"`
		} `json:"platforms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	mapping := doc.Platforms["arm64"].Mapping
	if got := mapping["//log"]; got == nil || *got != "libapp.so" {
		t.Errorf("//log -> %v, want libapp.so", got)
	}
	if got, ok := mapping["//stl"]; !ok || got != nil {
		t.Errorf("//stl -> %v, want null", got)
	}
}

func TestInspectAndGraph(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/v1/inspect", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/inspect = %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `"split_groups"`) {
		t.Errorf("inspection document missing split_groups: %s", data)
	}

	resp = post(t, ts, "/v1/graph", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/graph = %d", resp.StatusCode)
	}
	data, _ = io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("POST /v1/graph body = %.80s", data)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	cyclic := `{
	  "config": {"merge_sequence": [{"name": "libapp.so", "roots": ["liba\\.so"]}]},
	  "graph": {"nodes": [
	    {"target": "//a", "raw_name": "liba.so", "deps": ["//b"]},
	    {"target": "//b", "raw_name": "libb.so", "deps": ["//a"]}
	  ]}
	}`

	tests := []struct {
		name    string
		path    string
		payload string
		status  int
		code    errors.Code
	}{
		{"malformed body", "/v1/merge", `{`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", "/v1/merge", `{"cfg": {}}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"missing config", "/v1/merge", `{"graph": {"nodes": []}}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"empty sequence", "/v1/merge", `{"config": {"merge_sequence": []}, "graph": {"nodes": []}}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"unknown platform", "/v1/merge", strings.Replace(body, `"graph"`, `"platforms": ["ios"], "graph"`, 1), http.StatusNotFound, errors.ErrCodeNotFound},
		{"cycle", "/v1/merge", cyclic, http.StatusUnprocessableEntity, errors.ErrCodeCycleInInput},
		{"bad format", "/v1/graph", strings.Replace(body, `"graph"`, `"format": "png", "graph"`, 1), http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.path, tt.payload)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var e errorBody
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if e.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", e.Code, tt.code, e.Message)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidConfig, http.StatusBadRequest},
		{errors.ErrCodeFileNotFound, http.StatusNotFound},
		{errors.ErrCodeCycleInLibraries, http.StatusUnprocessableEntity},
		{errors.ErrCodeInconsistentGraph, http.StatusUnprocessableEntity},
		{errors.ErrCodeCacheUnavailable, http.StatusServiceUnavailable},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.code); got != tt.want {
			t.Errorf("StatusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
