// Package extraction turns a résumé document and a job posting into structured models.
package extraction

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ErrNoExtractableText means the document yielded no text at all.
var ErrNoExtractableText = errors.New("no extractable text in document")

// pageBreak separates pages in extracted text.
const pageBreak = "\f"

// Format is a supported document format.
type Format string

// Supported formats
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

// UnsupportedFormatError is returned for documents that are neither PDF, DOCX nor text.
type UnsupportedFormatError struct {
	Hint string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("unsupported document format (%s)", e.Hint)
	}
	return "unsupported document format"
}

// TextExtractor converts document bytes into linear text.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// DocumentExtractor extracts text from PDF, DOCX and plain-text documents.
// PDF pages are separated by a form feed.
type DocumentExtractor struct {
	// Filename, when set, decides the format by extension before content sniffing.
	Filename string
}

// ExtractText implements TextExtractor.
func (d DocumentExtractor) ExtractText(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrNoExtractableText
	}

	format, err := DetectFormat(data, d.Filename)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatPDF:
		return extractPDFText(data)
	case FormatDOCX:
		return extractDocxText(data)
	default:
		return string(bytes.ToValidUTF8(data, []byte(" "))), nil
	}
}

// DetectFormat picks the document format from the file extension, falling back
// to the content's magic bytes.
func DetectFormat(data []byte, filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".md", ".text":
		return FormatText, nil
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return FormatPDF, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		if bytes.Contains(data, []byte("word/document.xml")) {
			return FormatDOCX, nil
		}
		return "", &UnsupportedFormatError{Hint: "zip archive without word/document.xml"}
	case utf8.Valid(data):
		return FormatText, nil
	default:
		return "", &UnsupportedFormatError{Hint: "binary content"}
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, pageBreak), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return docxXMLToText(doc.Editable().GetContent())
}

// docxXMLToText flattens WordprocessingML into lines: one line per paragraph,
// with tabs and breaks preserved.
func docxXMLToText(content string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	var sb strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode docx xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
