package pipeline

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/nativemerge/pkg/cache"
	"github.com/matzehuels/nativemerge/pkg/config"
	"github.com/matzehuels/nativemerge/pkg/errors"
	mio "github.com/matzehuels/nativemerge/pkg/io"
	"github.com/matzehuels/nativemerge/pkg/observability"
)

const testConfig = `
merge_sequence:
  - name: libapp.so
    roots: ['libapp\.so']
blocklist: ['libc\+\+_shared\.so']
`

const testDocument = `{
  "platforms": {
    "arm64": {
      "nodes": [
        {"target": "//app", "raw_name": "libapp.so", "deps": ["//net", "//stl"]},
        {"target": "//net", "raw_name": "libnet.so", "deps": ["//log", "//stl"]},
        {"target": "//log", "raw_name": "liblog.so"},
        {"target": "//stl", "raw_name": "libc++_shared.so"}
      ]
    },
    "x86_64": {
      "nodes": [
        {"target": "//app", "raw_name": "libapp.so", "deps": ["//log"]},
        {"target": "//log", "raw_name": "liblog.so"}
      ]
    }
  }
}`

const cyclicPlatform = `{
  "platforms": {
    "arm64": {"nodes": [{"target": "//app", "raw_name": "libapp.so"}]},
    "riscv": {
      "nodes": [
        {"target": "//app", "raw_name": "libapp.so", "deps": ["//a"]},
        {"target": "//a", "raw_name": "liba.so", "deps": ["//b"]},
        {"target": "//b", "raw_name": "libb.so", "deps": ["//a"]}
      ]
    }
  }
}`

func testOptions(t *testing.T, doc string) Options {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig), config.FormatYAML)
	if err != nil {
		t.Fatalf("config.Parse() error = %v", err)
	}
	d, err := mio.ReadDocument(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	return Options{Config: cfg, Document: d}
}

func mapped(rep *mio.PlatformReport, target string) string {
	v := rep.Mapping[target]
	if v == nil {
		return "<excluded>"
	}
	return *v
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"DOT", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := testOptions(t, testDocument)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if got := strings.Join(opts.Platforms, ","); got != "arm64,x86_64" {
		t.Errorf("Platforms = %s, want arm64,x86_64", got)
	}
	if opts.Logger == nil {
		t.Error("Logger default not set")
	}

	tests := []struct {
		name   string
		mutate func(*Options)
		code   errors.Code
	}{
		{"missing config", func(o *Options) { o.Config = nil }, errors.ErrCodeInvalidConfig},
		{"missing document", func(o *Options) { o.Document = nil }, errors.ErrCodeInvalidInput},
		{"unknown platform", func(o *Options) { o.Platforms = []string{"ios"} }, errors.ErrCodeNotFound},
		{"empty sequence", func(o *Options) { o.Config = config.New() }, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, testDocument)
			tt.mutate(&opts)
			err := opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsPlatformSelectionIsSortedAndUnique(t *testing.T) {
	opts := testOptions(t, testDocument)
	opts.Platforms = []string{"x86_64", "arm64", "x86_64"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(opts.Platforms, ","); got != "arm64,x86_64" {
		t.Errorf("Platforms = %s, want arm64,x86_64", got)
	}
}

func TestExecute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), testOptions(t, testDocument))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Reports) != 2 {
		t.Fatalf("len(Reports) = %d, want 2", len(res.Reports))
	}
	arm, ok := res.Report("arm64")
	if !ok {
		t.Fatal("Report(arm64) missing")
	}
	for target, want := range map[string]string{
		"//app": "libapp.so",
		"//net": "libapp.so",
		"//log": "libapp.so",
		"//stl": "<excluded>",
	} {
		if got := mapped(arm, target); got != want {
			t.Errorf("arm64 %s -> %s, want %s", target, got, want)
		}
	}
	if arm.Fingerprint == "" {
		t.Error("Fingerprint not set")
	}
	if res.Stats.Platforms != 2 || res.Stats.Targets != 6 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if len(res.CacheInfo.Hits) != 0 {
		t.Errorf("CacheInfo.Hits = %v with a null cache", res.CacheInfo.Hits)
	}
}

func TestExecute_FailingPlatformFailsRun(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), testOptions(t, cyclicPlatform))
	if !errors.Is(err, errors.ErrCodeCycleInInput) {
		t.Fatalf("Execute() error = %v, want CYCLE_IN_INPUT", err)
	}
	if !strings.Contains(errors.UserMessage(err), `platform "riscv"`) {
		t.Errorf("UserMessage() = %s, want platform name", errors.UserMessage(err))
	}
}

func TestExecute_Cache(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(mem, nil, nil)

	first, err := runner.Execute(ctx, testOptions(t, testDocument))
	if err != nil {
		t.Fatal(err)
	}
	if mem.Len() != 2 {
		t.Errorf("cache entries = %d, want 2", mem.Len())
	}

	second, err := runner.Execute(ctx, testOptions(t, testDocument))
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.Hit("arm64") || !second.CacheInfo.Hit("x86_64") {
		t.Errorf("CacheInfo.Hits = %v, want both platforms", second.CacheInfo.Hits)
	}
	for i := range first.Reports {
		a, b := first.Reports[i], second.Reports[i]
		if string(a.CanonicalMapping()) != string(b.CanonicalMapping()) || a.Fingerprint != b.Fingerprint {
			t.Errorf("%s: cached report differs from computed report", a.Platform)
		}
	}

	opts := testOptions(t, testDocument)
	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(third.CacheInfo.Hits) != 0 {
		t.Errorf("Refresh served %v from cache", third.CacheInfo.Hits)
	}
}

func TestExecute_ConfigChangeMissesCache(t *testing.T) {
	ctx := context.Background()
	mem, _ := cache.NewMemoryCache(16)
	runner := NewRunner(mem, nil, nil)

	if _, err := runner.Execute(ctx, testOptions(t, testDocument)); err != nil {
		t.Fatal(err)
	}
	opts := testOptions(t, testDocument)
	opts.Config.Blocklist = nil
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.CacheInfo.Hits) != 0 {
		t.Errorf("changed config served %v from cache", res.CacheInfo.Hits)
	}
	arm, _ := res.Report("arm64")
	if got := mapped(arm, "//stl"); got != "libapp.so" {
		t.Errorf("//stl -> %s, want libapp.so without blocklist", got)
	}
}

type countingHooks struct {
	observability.NoopMergeHooks
	started, completed atomic.Int32
}

func (h *countingHooks) OnMergeStart(context.Context, string, int) { h.started.Add(1) }
func (h *countingHooks) OnMergeComplete(context.Context, string, int, time.Duration, error) {
	h.completed.Add(1)
}

func TestExecute_EmitsMergeHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetMergeHooks(hooks)
	t.Cleanup(observability.Reset)

	runner := NewRunner(nil, nil, nil)
	runner.Concurrency = 1
	if _, err := runner.Execute(context.Background(), testOptions(t, testDocument)); err != nil {
		t.Fatal(err)
	}
	if hooks.started.Load() != 2 || hooks.completed.Load() != 2 {
		t.Errorf("hooks started=%d completed=%d, want 2 and 2", hooks.started.Load(), hooks.completed.Load())
	}
}

func TestRender(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), testOptions(t, testDocument))
	if err != nil {
		t.Fatal(err)
	}
	arm, _ := res.Report("arm64")

	artifacts, err := Render(context.Background(), arm, RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	dot := string(artifacts[FormatDOT])
	if !strings.Contains(dot, `"libapp.so" -> "libc++_shared.so";`) {
		t.Errorf("Render() DOT missing library edge:\n%s", dot)
	}

	if _, err := Render(context.Background(), arm, RenderOptions{Formats: []string{"png"}}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Render(png) error = %v, want INVALID_INPUT", err)
	}
}
