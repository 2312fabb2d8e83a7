package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelanni/karne/internal/model"
)

const sampleHistory = `[
  {
    "id": "a1",
    "savedAt": 1700000000000,
    "ogrenci_bilgi": {"ad_soyad": "Ayşe Yılmaz", "sube": "8-A", "numara": "12"},
    "executive_summary": {"lgs_tahmini_yuzdelik": 4.5},
    "exams_history": [{"sinav_adi": "Deneme 1", "toplam_puan": 410}],
    "konu_analizi": [{"ders": "Matematik", "konu": "Üslü İfadeler", "dogru": 3, "yanlis": 1, "bos": 1}]
  },
  "not an object"
]`

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestViperForCmdEnv(t *testing.T) {
	t.Setenv("KARNE_LLM_MODEL", "gemma3")
	t.Setenv("KARNE_CACHE_SIZE", "9")

	cmd := serveCmd()
	v := viperForCmd(cmd)
	if got := v.GetString("llm-model"); got != "gemma3" {
		t.Errorf("llm-model = %q, want gemma3", got)
	}
	if got := v.GetInt("cache-size"); got != 9 {
		t.Errorf("cache-size = %d, want 9", got)
	}
	if got := v.GetString("addr"); got != "127.0.0.1:8080" {
		t.Errorf("addr = %q, want default", got)
	}
}

func TestRootHasServeFlags(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"addr", "db", "llm-provider", "lang", "cache-size"} {
		if root.Flags().Lookup(name) == nil {
			t.Errorf("root command is missing flag --%s", name)
		}
	}
}

func TestHistoryCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "karne.db")
	common := []string{"--db", db, "--lang", "en", "--log-level", "error"}
	with := func(args ...string) []string { return append(args, common...) }

	out, err := run(t, with("history", "list")...)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No saved analyses yet.") {
		t.Errorf("empty list output = %q", out)
	}

	importPath := filepath.Join(dir, "history.json")
	if err := os.WriteFile(importPath, []byte(sampleHistory), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, with("history", "import", importPath)...)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if want := "1 analyses imported, 0 skipped, 1 invalid."; !strings.Contains(out, want) {
		t.Errorf("import output = %q, want %q", out, want)
	}

	out, err = run(t, with("history", "list")...)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Saved analyses", "a1", "Ayşe Yılmaz", "Deneme 1", "1 analysis saved."} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, with("history", "show", "all")...)
	if err != nil {
		t.Fatalf("show all: %v", err)
	}
	var combined model.AnalysisResult
	if err := json.Unmarshal([]byte(out), &combined); err != nil {
		t.Fatalf("show output is not JSON: %v\n%s", err, out)
	}
	if combined.StudentInfo.Name != "Ayşe Yılmaz" || len(combined.TopicAnalysis) != 1 {
		t.Errorf("combined view = %+v", combined)
	}

	exportPath := filepath.Join(dir, "export.json")
	if _, err := run(t, with("history", "export", "-o", exportPath)...); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatal(err)
	}
	var exported []model.AnalysisResult
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if len(exported) != 1 || exported[0].ID != "a1" {
		t.Errorf("exported = %+v", exported)
	}

	out, err = run(t, with("history", "delete", "a1")...)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Analysis deleted: a1") {
		t.Errorf("delete output = %q", out)
	}
	if _, err := run(t, with("history", "delete", "a1")...); err == nil {
		t.Error("deleting a missing analysis should fail")
	}
}
