package preprocess

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RishiKendai/textmatch/internal/extract"
	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	mu   sync.Mutex
	docs []*models.Document
}

func (m *memStore) InsertDocument(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now()
	m.docs = append(m.docs, doc)
	return nil
}

func (m *memStore) FindByChecksum(_ context.Context, checksum string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Checksum == checksum {
			return d, nil
		}
	}
	return nil, nil
}

// headerless binary body: nothing for either local pass to keep
var opaquePDF = []byte("\x00\x01\x02\x03 12 34 \xff\xfe\n")

func newExtractorServer(t *testing.T, status int, body any, seen *ExtractRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/extract", r.URL.Path)
		assert.Equal(t, "k3y", r.Header.Get("x-api-key"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChecksum(t *testing.T) {
	a := Checksum("same text")
	assert.Len(t, a, 16)
	assert.Equal(t, a, Checksum("same text"))
	assert.NotEqual(t, a, Checksum("other text"))
}

func TestIngest_StoresAndDeduplicates(t *testing.T) {
	store := &memStore{}
	svc := NewService(nil, store, 1000)
	ctx := context.Background()

	doc, dup, err := svc.Ingest(ctx, "essay.txt", "text/plain", []byte("An original essay about rivers"))
	require.NoError(t, err)
	assert.False(t, dup)
	assert.False(t, doc.ID.IsZero())
	assert.Equal(t, "txt", doc.FileType)
	assert.Equal(t, 30, doc.Runes)
	assert.Equal(t, Checksum("An original essay about rivers"), doc.Checksum)

	again, dup, err := svc.Ingest(ctx, "copy.txt", "", []byte("An original essay about rivers"))
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, doc.ID, again.ID)
	assert.Len(t, store.docs, 1)
}

func TestIngest_ChecksumCollisionStoresNewDocument(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()

	// a stored document that shares the checksum but not the text
	text := "A second essay about mountains"
	store.docs = append(store.docs, &models.Document{
		ID:       primitive.NewObjectID(),
		Checksum: Checksum(text),
		Text:     "Something else entirely",
	})

	svc := NewService(nil, store, 1000)
	doc, dup, err := svc.Ingest(ctx, "mountains.txt", "", []byte(text))
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, text, doc.Text)
	assert.NotEqual(t, store.docs[0].ID, doc.ID)
	assert.Len(t, store.docs, 2)
}

func TestIngest_TooLarge(t *testing.T) {
	svc := NewService(nil, &memStore{}, 10)

	_, _, err := svc.Ingest(context.Background(), "big.txt", "", []byte(strings.Repeat("é", 11)))
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestIngest_Unsupported(t *testing.T) {
	svc := NewService(nil, &memStore{}, 0)

	_, _, err := svc.Ingest(context.Background(), "pic.gif", "image/gif", []byte("GIF89a\x01\x00\x01\x00"))
	assert.ErrorIs(t, err, extract.ErrUnsupportedType)
}

func TestExtractText_EmptyWithoutRemote(t *testing.T) {
	svc := NewService(nil, &memStore{}, 0)

	_, _, err := svc.ExtractText(context.Background(), "scan.pdf", "", opaquePDF)
	assert.ErrorIs(t, err, extract.ErrEmptyDocument)
}

func TestExtractText_RemoteFallback(t *testing.T) {
	var seen ExtractRequest
	srv := newExtractorServer(t, http.StatusOK, ExtractResponse{Text: "Recovered by OCR", Pages: 1}, &seen)

	svc := NewService(NewExtractorClient(srv.URL, "k3y", time.Second), &memStore{}, 0)

	text, ft, err := svc.ExtractText(context.Background(), "scan.pdf", "application/pdf", opaquePDF)
	require.NoError(t, err)
	assert.Equal(t, extract.FileTypePDF, ft)
	assert.Equal(t, "Recovered by OCR", text)
	assert.Equal(t, "scan.pdf", seen.Filename)
	assert.Equal(t, opaquePDF, seen.Content)
}

func TestExtractText_RemoteSkippedForPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("extractor must not be called for plain text")
	}))
	defer srv.Close()

	svc := NewService(NewExtractorClient(srv.URL, "k3y", time.Second), &memStore{}, 0)

	_, _, err := svc.ExtractText(context.Background(), "blank.txt", "", []byte("   \n\t "))
	assert.ErrorIs(t, err, extract.ErrEmptyDocument)
}

func TestExtractorClient_Errors(t *testing.T) {
	srv := newExtractorServer(t, http.StatusUnprocessableEntity, ExtractError{Error: "ENCRYPTED", Message: "password protected"}, nil)
	client := NewExtractorClient(srv.URL, "k3y", time.Second)

	_, err := client.Extract(context.Background(), &ExtractRequest{Filename: "x.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTED - password protected")

	srv500 := newExtractorServer(t, http.StatusInternalServerError, map[string]string{"oops": "boom"}, nil)
	_, err = NewExtractorClient(srv500.URL, "k3y", time.Second).Extract(context.Background(), &ExtractRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code 500")
}
