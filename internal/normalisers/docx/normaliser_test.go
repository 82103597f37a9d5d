package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// createTestDOCX creates a minimal DOCX archive in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types/>`,
		documentPart:          documentXML,
		corePart:              coreXML,
	}
	for name, body := range parts {
		if body == "" {
			continue
		}
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func wordDoc(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
	assert.Equal(t, []string{mimeDOCX}, New().SupportedMIMETypes())
}

func TestNormalise_Paragraphs(t *testing.T) {
	docXML := wordDoc(`
<w:p><w:r><w:t>Senior engineer.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t xml:space="preserve">Skills: </w:t></w:r><w:r><w:t>Python</w:t></w:r><w:r><w:tab/><w:t>Docker</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Kubernetes</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)
	coreXML := `<?xml version="1.0"?><cp:coreProperties xmlns:cp="x" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title> Jane Doe CV </dc:title></cp:coreProperties>`

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      "/uploads/jane_doe.docx",
		MIMEType: mimeDOCX,
		Content:  createTestDOCX(t, docXML, coreXML),
	})
	require.NoError(t, err)

	assert.Equal(t, "Senior engineer.\nSkills: Python\tDocker\nKubernetes", result.Content)
	assert.Equal(t, "Jane Doe CV", result.Title)
	assert.Equal(t, "docx", result.Metadata["format"])
	assert.Equal(t, mimeDOCX, result.Metadata["mime_type"])
}

func TestNormalise_TitleFallbackToFilename(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/uploads/statement_of-work.docx",
		Content: createTestDOCX(t, wordDoc(`<w:p><w:r><w:t>x</w:t></w:r></w:p>`), ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "statement of work", result.Title)
}

func TestNormalise_EmptyDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "empty.docx",
		Content: createTestDOCX(t, wordDoc(""), ""),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Content)
}

func TestNormalise_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  *domain.RawDocument
	}{
		{"nil document", nil},
		{"not a zip", &domain.RawDocument{URI: "a.docx", Content: []byte("plain text")}},
		{"missing document part", &domain.RawDocument{URI: "a.docx", Content: createTestDOCX(t, "", "<x/>")}},
		{"malformed xml", &domain.RawDocument{URI: "a.docx", Content: createTestDOCX(t, "<w:document><w:p>", "")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), tt.raw)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, result)
		})
	}
}
