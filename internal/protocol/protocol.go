// Package protocol manages protocol document attachments: text
// extraction from uploaded PDF/markdown/plain-text files and a
// per-project registry of the extracted text.
package protocol

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/crypto/blake2b"
)

// Attachment is one protocol document bound to a project.
type Attachment struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Digest string `json:"digest"` // blake2b-256 of the extracted text
}

// Extract reads a protocol file and returns an attachment with the
// extracted text. PDF files go through text extraction; anything else
// is read as-is.
func Extract(path string) (Attachment, error) {
	var text string
	var err error

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err = extractPDFText(path)
	} else {
		text, err = readTextFile(path)
	}
	if err != nil {
		return Attachment{}, err
	}

	return Attachment{
		Name:   filepath.Base(path),
		Text:   text,
		Digest: digest(text),
	}, nil
}

// extractPDFText extracts plain text from every page of a PDF.
func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // skip unextractable pages, keep the rest
		}
		if text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n"), nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// digest returns the hex blake2b-256 digest of the extracted text,
// used to detect protocol changes between imports.
func digest(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
