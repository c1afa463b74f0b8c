// Package extract turns source documents into the plain text the ownership
// list parser consumes.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrExtraction is wrapped by every failure to obtain document text.
var ErrExtraction = errors.New("text extraction failed")

// File reads the document at path. Files with a .pdf extension are
// extracted as PDF; anything else is read as UTF-8 text.
func File(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		return PDF(f, info.Size(), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return Normalize(string(data)), nil
}

// Normalize composes diacritics (NFC) and unifies line endings, so that
// decomposed "č" from some PDF producers still matches the section markers.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")
	return norm.NFC.String(text)
}
