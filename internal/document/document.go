// Package document turns uploaded exam reports into an analysis payload.
package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/pavelanni/karne/internal/llm"
)

const (
	// MaxDimension is the longest image side sent for analysis.
	MaxDimension = 1024
	// JPEGQuality is the re-encoding quality for uploaded images.
	JPEGQuality = 30
	// minPDFText is the extracted text length below which a PDF is treated
	// as a scan and sent as a document instead.
	minPDFText = 50
)

// ErrUnsupported is returned for files that are neither images, PDFs nor text.
var ErrUnsupported = errors.New("unsupported file type")

// UnsupportedError names a file that cannot be analyzed. It matches
// ErrUnsupported with errors.Is.
type UnsupportedError struct {
	Name string
	MIME string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrUnsupported, e.Name, e.MIME)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// File is one uploaded document.
type File struct {
	Name string
	Data []byte
}

// Prepare builds the payload for a set of files. PDFs with a text layer
// contribute text; scanned PDFs and images are sent as data URLs.
func Prepare(files []File) (llm.Payload, error) {
	var (
		p    llm.Payload
		text strings.Builder
	)
	for _, f := range files {
		mime := DetectType(f.Name, f.Data)
		switch {
		case mime == "application/pdf":
			if t := ExtractPDFText(f.Data); utf8.RuneCountInString(t) > minPDFText {
				text.WriteString(t)
				text.WriteString("\n")
				continue
			}
			p.Images = append(p.Images, DataURL(mime, f.Data))
		case strings.HasPrefix(mime, "image/"):
			p.Images = append(p.Images, compressOrOriginal(f, mime))
		case strings.HasPrefix(mime, "text/plain"):
			text.Write(f.Data)
			text.WriteString("\n")
		default:
			return llm.Payload{}, &UnsupportedError{Name: f.Name, MIME: mime}
		}
	}
	p.Text = strings.TrimSpace(text.String())
	return p, nil
}

// DetectType sniffs the content type, falling back to the file extension.
func DetectType(name string, data []byte) string {
	mime := http.DetectContentType(data)
	if mime == "application/octet-stream" && strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "application/pdf"
	}
	return mime
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func compressOrOriginal(f File, mime string) string {
	out, err := Compress(f.Data)
	if err != nil {
		slog.Warn("sending image uncompressed", "file", f.Name, "error", err)
		return DataURL(mime, f.Data)
	}
	return DataURL("image/jpeg", out)
}

// Compress scales an image so its longest side is at most MaxDimension,
// flattens it onto white and re-encodes it as JPEG.
func Compress(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := scaled(b.Dx(), b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, stddraw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func scaled(w, h int) (int, int) {
	if w <= MaxDimension && h <= MaxDimension {
		return w, h
	}
	if w > h {
		return MaxDimension, max(1, h*MaxDimension/w)
	}
	return max(1, w*MaxDimension/h), MaxDimension
}

// ExtractPDFText returns the text layer of a PDF, page by page. Scanned or
// unreadable PDFs yield an empty string.
func ExtractPDFText(data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pdf text extraction failed", "panic", r)
			text = ""
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Debug("pdf not readable", "error", err)
		return ""
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			slog.Debug("pdf page not readable", "page", i, "error", err)
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		fmt.Fprintf(&sb, "--- Sayfa %d ---\n%s\n\n", i, content)
	}
	return strings.TrimSpace(sb.String())
}
