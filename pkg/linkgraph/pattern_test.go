package linkgraph

import (
	"errors"
	"testing"
)

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		raw     string
		want    bool
	}{
		{"//a:root", "//a:root", true},
		{"//a:root", "//x//a:root_test", true},
		{"^//a:", "//a:lib", true},
		{"^//a:", "//b//a:lib", false},
		{`\.so$`, "//out/libfoo.so", true},
		{"net", "//core:base", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.raw, func(t *testing.T) {
			p := MustCompilePattern(tt.pattern)
			if got := p.Match(tt.raw); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCompilePattern_Errors(t *testing.T) {
	if _, err := CompilePattern(""); !errors.Is(err, ErrEmptyPattern) {
		t.Errorf("CompilePattern(empty) = %v, want ErrEmptyPattern", err)
	}
	if _, err := CompilePattern("(unclosed"); err == nil {
		t.Error("CompilePattern(invalid regex) should fail")
	}
	if _, err := CompilePatterns([]string{"ok", "[bad"}); err == nil {
		t.Error("CompilePatterns() should fail on the second pattern")
	}
}

func TestBlocklist(t *testing.T) {
	bl, err := NewBlocklist([]string{"//third_party/", "_jni$"})
	if err != nil {
		t.Fatalf("NewBlocklist() error = %v", err)
	}

	g := NewGraph()
	_ = g.Add(LinkableNode{Target: "t1", RawName: "//third_party/zlib:z", Mergeable: true})
	_ = g.Add(LinkableNode{Target: "t2", RawName: "//app:bridge_jni", Mergeable: true})
	_ = g.Add(LinkableNode{Target: "t3", RawName: "//app:core", Mergeable: true})
	_ = g.Add(LinkableNode{Target: "t4", RawName: "//app:prebuilt", Mergeable: false})

	hits := bl.Hits(g)
	for _, want := range []Target{"t1", "t2", "t4"} {
		if !hits.Contains(want) {
			t.Errorf("Hits() missing %s", want)
		}
	}
	if hits.Contains("t3") {
		t.Error("Hits() contains mergeable, unmatched t3")
	}
}

func TestBlocklist_Nil(t *testing.T) {
	var bl *Blocklist
	n := &LinkableNode{Target: "t", RawName: "//x", Mergeable: true}
	if bl.Excludes(n) {
		t.Error("nil blocklist excluded a mergeable node")
	}
	n.Mergeable = false
	if !bl.Excludes(n) {
		t.Error("nil blocklist kept a non-mergeable node")
	}
}
