package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateTurkish(t *testing.T) {
	ctx := initLang(t, "tr")

	got := T(ctx, "ErrRateLimited")
	if got != "Sistem yoğunluğu var, lütfen 10 saniye bekleyip tekrar deneyin." {
		t.Errorf("T(ErrRateLimited) = %q", got)
	}

	got = T(ctx, "ErrNotFound")
	if got != "Analiz bulunamadı." {
		t.Errorf("T(ErrNotFound) = %q, want 'Analiz bulunamadı.'", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "ErrNotFound")
	if got != "Analysis not found." {
		t.Errorf("T(ErrNotFound) = %q, want 'Analysis not found.'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "AnalysesCount", 1)
	if got1 != "1 analysis saved." {
		t.Errorf("Tp(AnalysesCount, 1) = %q, want '1 analysis saved.'", got1)
	}

	got5 := Tp(ctx, "AnalysesCount", 5)
	if got5 != "5 analyses saved." {
		t.Errorf("Tp(AnalysesCount, 5) = %q, want '5 analyses saved.'", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "tr")

	got := Td(ctx, "ImportSummary", map[string]any{"Imported": 3, "Skipped": 1, "Invalid": 0})
	if got != "3 analiz içe aktarıldı, 1 atlandı, 0 geçersiz." {
		t.Errorf("Td(ImportSummary) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "tr")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestContextWithoutLocalizer(t *testing.T) {
	initLang(t, "en")

	if got := T(context.Background(), "ErrNotFound"); got != "Analiz bulunamadı." {
		t.Errorf("T without localizer = %q, want the Turkish default", got)
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("tr"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	h := Middleware("tr")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(T(r.Context(), "ErrNotFound")))
	}))

	tests := []struct {
		url  string
		want string
	}{
		{"/", "Analiz bulunamadı."},
		{"/?lang=en", "Analysis not found."},
		{"/?lang=xx", "Analiz bulunamadı."},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}
