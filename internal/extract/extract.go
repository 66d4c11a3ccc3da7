// Package extract turns uploaded document bytes into plain text for the
// matching engine. Plain text, PDF and DOCX files are supported; PDF
// extraction is a best-effort scan of content streams.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type FileType string

const (
	FileTypeText FileType = "txt"
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
)

const (
	MimeText = "text/plain"
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyDocument   = errors.New("document is empty")
)

// SupportedExtensions returns the accepted file extensions
func SupportedExtensions() []string {
	return []string{".txt", ".pdf", ".docx"}
}

// SupportedMimeTypes returns the accepted MIME types
func SupportedMimeTypes() []string {
	return []string{MimeText, MimePDF, MimeDOCX}
}

// DetectType resolves the document type from the file extension, then the
// declared MIME type, then the content itself.
func DetectType(filename, declaredMime string, data []byte) (FileType, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "txt":
		return FileTypeText, nil
	case "pdf":
		return FileTypePDF, nil
	case "docx":
		return FileTypeDOCX, nil
	}

	if ft, ok := typeFromMime(declaredMime); ok {
		return ft, nil
	}

	if len(data) > 0 {
		detected := mimetype.Detect(data)
		if ft, ok := typeFromMime(detected.String()); ok {
			return ft, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
}

func typeFromMime(mime string) (FileType, bool) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	switch mediaType {
	case MimeText:
		return FileTypeText, true
	case MimePDF:
		return FileTypePDF, true
	case MimeDOCX:
		return FileTypeDOCX, true
	default:
		return "", false
	}
}

// Extract returns the text content of a document
func Extract(filename, declaredMime string, data []byte) (string, FileType, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	ft, err := DetectType(filename, declaredMime, data)
	if err != nil {
		return "", "", err
	}

	var text string
	switch ft {
	case FileTypeText:
		text, err = extractText(data)
	case FileTypePDF:
		text, err = extractPDF(data)
	case FileTypeDOCX:
		text, err = extractDOCX(data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedType, ft)
	}
	if err != nil {
		return "", ft, fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	return text, ft, nil
}

// extractText decodes UTF-8 or BOM-marked UTF-16 text
func extractText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return strings.ToValidUTF8(string(decoded), "�"), nil
}
