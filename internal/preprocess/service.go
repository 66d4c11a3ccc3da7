package preprocess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/RishiKendai/textmatch/internal/extract"
	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

var ErrDocumentTooLarge = errors.New("document exceeds the maximum size")

// DocumentStore persists extracted documents
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	FindByChecksum(ctx context.Context, checksum string) (*models.Document, error)
}

type Service struct {
	client   *ExtractorClient
	store    DocumentStore
	maxRunes int
}

// NewService builds the ingestion service. client may be nil when no remote
// extractor is configured; maxRunes <= 0 disables the size check.
func NewService(client *ExtractorClient, store DocumentStore, maxRunes int) *Service {
	return &Service{
		client:   client,
		store:    store,
		maxRunes: maxRunes,
	}
}

// Checksum identifies extracted text for de-duplication
func Checksum(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

// ExtractText turns an upload into text, asking the remote extractor when
// local extraction of a PDF or DOCX comes back empty or fails.
func (s *Service) ExtractText(ctx context.Context, filename, mimeType string, data []byte) (string, extract.FileType, error) {
	text, fileType, err := extract.Extract(filename, mimeType, data)
	if errors.Is(err, extract.ErrUnsupportedType) || errors.Is(err, extract.ErrEmptyDocument) {
		return "", fileType, err
	}

	needsRemote := err != nil || strings.TrimSpace(text) == ""
	if needsRemote && s.client != nil && fileType != extract.FileTypeText {
		log.Debug().
			Err(err).
			Str("filename", filename).
			Str("fileType", string(fileType)).
			Msg("Local extraction came back empty, using remote extractor")

		resp, rerr := s.client.Extract(ctx, &ExtractRequest{
			Filename: filename,
			MimeType: mimeType,
			Content:  data,
		})
		if rerr != nil {
			return "", fileType, fmt.Errorf("failed to extract remotely: %w", rerr)
		}
		text, err = resp.Text, nil
	}
	if err != nil {
		return "", fileType, err
	}

	if strings.TrimSpace(text) == "" {
		return "", fileType, fmt.Errorf("%w: %s", extract.ErrEmptyDocument, filename)
	}
	if s.maxRunes > 0 && utf8.RuneCountInString(text) > s.maxRunes {
		return "", fileType, fmt.Errorf("%w: %s has more than %d characters", ErrDocumentTooLarge, filename, s.maxRunes)
	}

	return text, fileType, nil
}

// Ingest extracts and stores an uploaded document. An upload whose text is
// already stored returns the existing document and duplicate=true.
func (s *Service) Ingest(ctx context.Context, filename, mimeType string, data []byte) (*models.Document, bool, error) {
	text, fileType, err := s.ExtractText(ctx, filename, mimeType, data)
	if err != nil {
		return nil, false, err
	}

	checksum := Checksum(text)

	existing, err := s.store.FindByChecksum(ctx, checksum)
	if err != nil {
		return nil, false, err
	}
	if existing != nil && existing.Text != text {
		// 64-bit checksums can collide; only identical text is a duplicate
		log.Warn().
			Str("checksum", checksum).
			Str("documentId", existing.ID.Hex()).
			Msg("Checksum collision with stored document, storing upload separately")
		existing = nil
	}
	if existing != nil {
		log.Debug().
			Str("filename", filename).
			Str("documentId", existing.ID.Hex()).
			Msg("Duplicate upload, reusing stored document")
		return existing, true, nil
	}

	doc := &models.Document{
		Filename:  filename,
		FileType:  string(fileType),
		MimeType:  mimeType,
		Checksum:  checksum,
		Text:      text,
		Runes:     utf8.RuneCountInString(text),
		SizeBytes: int64(len(data)),
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("failed to store document: %w", err)
	}

	log.Info().
		Str("documentId", doc.ID.Hex()).
		Str("filename", filename).
		Str("fileType", doc.FileType).
		Int("runes", doc.Runes).
		Msg("Document ingested")

	return doc, false, nil
}
