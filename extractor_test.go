package flashquiz

import (
	"archive/zip"
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDOCX builds a minimal DOCX container in memory
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

// createTestPDF builds a one page PDF whose content stream shows text in Helvetica
func createTestPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	buf := new(bytes.Buffer)
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		mimeType string
		want     Format
	}{
		{"pdf by mime", "upload", "application/pdf", FormatPDF},
		{"docx by mime", "upload", docxMIMEType, FormatDOCX},
		{"txt by mime with charset", "upload", "text/plain; charset=utf-8", FormatTXT},
		{"pdf by extension", "notes.PDF", "application/octet-stream", FormatPDF},
		{"docx by extension", "notes.docx", "", FormatDOCX},
		{"txt by extension", "notes.txt", "", FormatTXT},
		{"mime wins over extension", "notes.txt", "application/pdf", FormatPDF},
		{"unknown", "slides.pptx", "application/octet-stream", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.file, tt.mimeType))
		})
	}
}

func TestExtract_TXT(t *testing.T) {
	doc := Document{
		Name:   "notes.txt",
		Format: FormatTXT,
		Data:   []byte("\ufeffFirst line of notes.\n\nSecond line of notes.\n"),
	}

	ext, err := Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "First line of notes.\n\nSecond line of notes.\n", ext.Text)
	assert.Equal(t, 2, ext.Units)
}

func TestExtract_TXTInvalidUTF8(t *testing.T) {
	doc := Document{Name: "bad.txt", Format: FormatTXT, Data: []byte{0xff, 0xfe, 0xfd}}

	ext, err := Extract(doc)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Nil(t, ext)
}

func TestExtract_DOCX(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Photosynthesis converts light</w:t></w:r><w:r><w:t xml:space="preserve"> into chemical energy.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Chlorophyll</w:t><w:tab/><w:t>absorbs red and blue light.</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Cell text</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body>
</w:document>`

	doc := Document{Name: "bio.docx", Format: FormatDOCX, Data: createTestDOCX(t, docXML)}

	ext, err := Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, ext.Units)
	assert.Equal(t, "Photosynthesis converts light into chemical energy.\nChlorophyll absorbs red and blue light.\nCell text\n", ext.Text)
}

func TestExtract_DOCXMissingDocument(t *testing.T) {
	doc := Document{Name: "empty.docx", Format: FormatDOCX, Data: createTestDOCX(t, "")}

	_, err := Extract(doc)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_DOCXCorrupted(t *testing.T) {
	doc := Document{Name: "broken.docx", Format: FormatDOCX, Data: []byte("this is not a zip archive")}

	_, err := Extract(doc)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_PDF(t *testing.T) {
	doc := Document{
		Name:   "bio.pdf",
		Format: FormatPDF,
		Data:   createTestPDF("Mitochondria produce ATP for the cell."),
	}

	ext, err := Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, ext.Units)
	assert.Contains(t, ext.Text, "Mitochondria produce ATP for the cell.")

	points := Segment(ext.Text, DefaultMinLength, DefaultMaxLength)
	require.Len(t, points, 1)
	assert.Equal(t, "Mitochondria produce ATP for the cell.", points[0].Text)
}

func TestExtract_PDFCorrupted(t *testing.T) {
	doc := Document{Name: "broken.pdf", Format: FormatPDF, Data: []byte("%PDF-1.4\nnot really a pdf")}

	_, err := Extract(doc)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	doc := Document{Name: "slides.pptx", Format: "pptx", Data: []byte("data")}

	ext, err := Extract(doc)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Nil(t, ext)
}
