package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

// Templates holds the prompt files shipped with the binary.
//
//go:embed templates/*.txt
var Templates embed.FS

// MaxTextRunes bounds the extracted document text placed into a prompt.
const MaxTextRunes = 60000

var systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)

// Template names, relative to the templates directory.
const (
	tmplSystem      = "system"
	tmplTextPayload = "text_payload"
	tmplOCRContext  = "ocr_context"
	tmplCoach       = "coach"
)

var names = []string{tmplSystem, tmplTextPayload, tmplOCRContext, tmplCoach}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

// TextData holds template data for document text prompts.
type TextData struct {
	Text string
}

// CoachData holds template data for the coach system instruction.
type CoachData struct {
	StudentName string
	// Summary is the executive summary serialized as JSON.
	Summary string
}

// Load parses prompt templates from fsys. Files are read from
// templates/<name>.txt. Only the first call has any effect.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template, len(names))
		for _, name := range names {
			file := "templates/" + name + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", file, err)
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// System returns the analysis instructions sent with every request.
func System() (string, error) {
	return render(tmplSystem, nil)
}

// TextPayload wraps extracted document text in a begin/end block.
func TextPayload(text string) (string, error) {
	return render(tmplTextPayload, TextData{Text: sanitizeText(text)})
}

// OCRContext renders short OCR text attached next to document images.
func OCRContext(text string) (string, error) {
	return render(tmplOCRContext, TextData{Text: sanitizeText(text)})
}

// Coach renders the system instruction for the study coach chat.
func Coach(data CoachData) (string, error) {
	data.StudentName = strings.TrimSpace(data.StudentName)
	return render(tmplCoach, data)
}

func render(name string, data any) (string, error) {
	if err := Load(Templates); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	tmpl, ok := templates[name]
	if !ok {
		return "", errors.New("unknown prompt template: " + name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeText(text string) string {
	text = systemInstructionsRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) > MaxTextRunes {
		runes := []rune(text)
		text = string(runes[:MaxTextRunes]) + "\n\n[Metin uzunluk nedeniyle kısaltıldı]"
	}
	return text
}
