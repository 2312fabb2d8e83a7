package document

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{"pdf magic", "karne", []byte("%PDF-1.7\n..."), "application/pdf"},
		{"pdf by extension", "rapor.PDF", []byte{0x00, 0x01, 0x02}, "application/pdf"},
		{"unknown binary", "rapor.bin", []byte{0x00, 0x01, 0x02}, "application/octet-stream"},
		{"plain text", "notlar.txt", []byte("Matematik 15 net"), "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectType(tt.file, tt.data); got != tt.want {
				t.Errorf("DetectType(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL("image/png", []byte("abc")); got != "data:image/png;base64,YWJj" {
		t.Errorf("DataURL = %q", got)
	}
}

func TestScaled(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{800, 600, 800, 600},
		{2048, 1024, 1024, 512},
		{1000, 3000, 341, 1024},
		{1024, 1024, 1024, 1024},
		{5000, 1, 1024, 1},
	}
	for _, tt := range tests {
		w, h := scaled(tt.w, tt.h)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("scaled(%d, %d) = %d, %d, want %d, %d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestCompress(t *testing.T) {
	out, err := Compress(pngBytes(t, 2000, 500))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1024 || b.Dy() != 256 {
		t.Errorf("compressed size = %dx%d, want 1024x256", b.Dx(), b.Dy())
	}

	if _, err := Compress([]byte("not an image")); err == nil {
		t.Error("Compress should fail on non-image data")
	}
}

func TestPrepare(t *testing.T) {
	t.Run("mixed files", func(t *testing.T) {
		p, err := Prepare([]File{
			{Name: "notlar.txt", Data: []byte("  Türkçe 18 net ")},
			{Name: "karne.png", Data: pngBytes(t, 10, 10)},
			{Name: "tarama.pdf", Data: []byte{0x00, 0x01, 0x02}},
		})
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if p.Text != "Türkçe 18 net" {
			t.Errorf("Text = %q", p.Text)
		}
		if len(p.Images) != 2 {
			t.Fatalf("Images len = %d, want 2", len(p.Images))
		}
		if !strings.HasPrefix(p.Images[0], "data:image/jpeg;base64,") {
			t.Errorf("image should be re-encoded as jpeg, got %.30s", p.Images[0])
		}
		if !strings.HasPrefix(p.Images[1], "data:application/pdf;base64,") {
			t.Errorf("unreadable pdf should be sent as a document, got %.30s", p.Images[1])
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Prepare([]File{{Name: "arsiv.zip", Data: []byte("PK\x03\x04rest")}})
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})

	t.Run("no files", func(t *testing.T) {
		p, err := Prepare(nil)
		if err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if p.Text != "" || len(p.Images) != 0 {
			t.Errorf("empty input should give an empty payload, got %+v", p)
		}
	})
}

func TestExtractPDFTextGarbage(t *testing.T) {
	if got := ExtractPDFText([]byte("%PDF-1.4 broken")); got != "" {
		t.Errorf("ExtractPDFText(garbage) = %q, want empty", got)
	}
}
