package flashquiz

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const docxMIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Extraction is the text read from a document together with how many
// pages, paragraphs or lines it came from.
type Extraction struct {
	Text  string
	Units int
}

// DetectFormat resolves the format of an upload from its MIME type,
// falling back to the file extension. It returns "" when neither is known.
func DetectFormat(name, mimeType string) Format {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch mt {
	case "application/pdf":
		return FormatPDF
	case docxMIMEType:
		return FormatDOCX
	case "text/plain":
		return FormatTXT
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".txt":
		return FormatTXT
	}
	return ""
}

// Extract converts a document into a single text blob. Pages and paragraphs
// are joined with newlines in document order.
func Extract(doc Document) (*Extraction, error) {
	switch doc.Format {
	case FormatPDF:
		return extractPDF(doc)
	case FormatDOCX:
		return extractDOCX(doc)
	case FormatTXT:
		return extractTXT(doc)
	default:
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, doc.Format, doc.Name)
	}
}

func extractPDF(doc Document) (ext *Extraction, err error) {
	// the pdf reader panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			ext = nil
			err = fmt.Errorf("%w: %s: corrupted PDF: %v", ErrExtraction, doc.Name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, doc.Name, err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: page %d: %v", ErrExtraction, doc.Name, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return nil, fmt.Errorf("%w: %s has no text layer (scanned images are not supported)", ErrExtraction, doc.Name)
	}

	VerboseLog("Extracted %d characters from %d PDF pages of %s", sb.Len(), pages, doc.Name)
	return &Extraction{Text: sb.String(), Units: pages}, nil
}

func extractDOCX(doc Document) (*Extraction, error) {
	reader, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid DOCX container: %v", ErrExtraction, doc.Name, err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, doc.Name, err)
		}
		defer rc.Close()

		paragraphs, err := docxParagraphs(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, doc.Name, err)
		}

		VerboseLog("Extracted %d paragraphs from %s", len(paragraphs), doc.Name)
		return &Extraction{Text: strings.Join(paragraphs, "\n") + "\n", Units: len(paragraphs)}, nil
	}

	return nil, fmt.Errorf("%w: %s has no word/document.xml", ErrExtraction, doc.Name)
}

// docxParagraphs streams word/document.xml and returns the non-empty
// paragraphs. Runs inside hyperlinks and table cells are included.
func docxParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteString(" ")
			case "br", "cr":
				current.WriteString(" ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

func extractTXT(doc Document) (*Extraction, error) {
	if !utf8.Valid(doc.Data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", ErrExtraction, doc.Name)
	}

	text := strings.TrimPrefix(string(doc.Data), "\ufeff")
	lines := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}
	return &Extraction{Text: text, Units: lines}, nil
}
