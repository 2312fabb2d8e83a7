package cache

import (
	"testing"

	"github.com/pavelanni/karne/internal/model"
)

func result(name string) model.AnalysisResult {
	return model.AnalysisResult{StudentInfo: model.StudentInfo{Name: name}}
}

func TestNew(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) should fail", size)
		}
	}
	if _, err := New(DefaultSize); err != nil {
		t.Errorf("New(DefaultSize): %v", err)
	}
}

func TestEviction(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	c.Add("a", result("A"))
	c.Add("b", result("B"))

	// Touch a so b becomes least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Add("c", result("C"))

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if got, ok := c.Get("a"); !ok || got.StudentInfo.Name != "A" {
		t.Errorf("Get(a) = %+v, %v", got, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len after Purge = %d, want 0", c.Len())
	}
}

func TestNilCache(t *testing.T) {
	var c *Analyses
	c.Add("a", result("A"))
	if _, ok := c.Get("a"); ok {
		t.Error("nil cache should never hit")
	}
	if c.Len() != 0 {
		t.Error("nil cache should be empty")
	}
	c.Purge()
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("metin", []string{"data:image/png;base64,AAA"})

	if got := Fingerprint("metin", []string{"data:image/png;base64,AAA"}); got != base {
		t.Error("fingerprint should be stable")
	}
	if len(base) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(base))
	}

	different := []struct {
		name   string
		text   string
		images []string
	}{
		{"text changed", "metin!", []string{"data:image/png;base64,AAA"}},
		{"image changed", "metin", []string{"data:image/png;base64,AAB"}},
		{"image added", "metin", []string{"data:image/png;base64,AAA", "x"}},
		{"bytes moved between parts", "metindata:image/png;base64,AAA", nil},
	}
	for _, tt := range different {
		t.Run(tt.name, func(t *testing.T) {
			if Fingerprint(tt.text, tt.images) == base {
				t.Error("fingerprint should differ")
			}
		})
	}

	if Fingerprint("ab", []string{"c"}) == Fingerprint("a", []string{"bc"}) {
		t.Error("part boundaries should affect the fingerprint")
	}
}
