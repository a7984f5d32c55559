package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	// ErrUnsupportedFormat is returned for extensions outside SupportedExtensions.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrExtraction is returned when a supported file cannot be read as text.
	ErrExtraction = errors.New("content extraction failed")
)

var supported = []string{".pdf", ".doc", ".docx", ".txt"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SupportedExtensions lists the extensions ExtractText understands.
func SupportedExtensions() []string {
	return append([]string(nil), supported...)
}

// ExtractText pulls plain text out of an in-memory resume. ext is the declared
// file extension, with or without the leading dot.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOC/DOCX).
func ExtractText(ctx context.Context, data []byte, ext string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format := normalizeExt(ext)
	defer func() {
		// The PDF parser panics on some malformed inputs.
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: %s: %v", ErrExtraction, format, rec)
		}
	}()

	var raw string
	switch format {
	case ".pdf":
		raw, err = extractPDF(data)
	case ".docx", ".doc":
		raw, err = extractDOCX(data)
	case ".txt":
		raw, err = extractTXT(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, format, err)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: %s: no text found", ErrExtraction, format)
	}
	return raw, nil
}

func normalizeExt(ext string) string {
	clean := strings.ToLower(strings.TrimSpace(ext))
	if clean != "" && !strings.HasPrefix(clean, ".") {
		clean = "." + clean
	}
	return clean
}

func extractPDF(data []byte) (string, error) {
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return "", errors.New("missing %PDF signature")
	}
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractDOCX reads word/document.xml from an OOXML archive. Legacy binary
// .doc files are not archives and fail here.
func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	// In-memory archives hold no file handle, so the document is never closed.
	var content string
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		// The library insists on word/_rels/document.xml.rels, which OPC
		// packages may omit.
		body, zipErr := readDocumentXML(data)
		if zipErr != nil {
			return "", err
		}
		content = body
	} else {
		content = doc.Editable().GetContent()
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.New("document.xml file not found")
	}
	return stripDocxXML(content)
}

func readDocumentXML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	f, err := zr.Open("word/document.xml")
	if err != nil {
		return "", err
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func extractTXT(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errors.New("text is not valid UTF-8")
	}
	return string(data), nil
}
