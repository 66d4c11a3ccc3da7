package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/RishiKendai/textmatch/internal/config"
	"github.com/RishiKendai/textmatch/internal/extract"
	"github.com/RishiKendai/textmatch/internal/jobs"
	"github.com/RishiKendai/textmatch/internal/matching"
	"github.com/RishiKendai/textmatch/internal/metrics"
	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/RishiKendai/textmatch/internal/preprocess"
	"github.com/RishiKendai/textmatch/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	errDocumentTooLarge = errors.New("document is too large")
	errUploadTooLarge   = errors.New("upload is too large")
	errMissingFile      = errors.New("file is required")
)

// DocumentService extracts and stores uploaded documents
type DocumentService interface {
	ExtractText(ctx context.Context, filename, mimeType string, data []byte) (string, extract.FileType, error)
	Ingest(ctx context.Context, filename, mimeType string, data []byte) (*models.Document, bool, error)
}

// DocumentReader reads stored documents
type DocumentReader interface {
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
}

// JobDispatcher queues asynchronous analyses
type JobDispatcher interface {
	Dispatch(ctx context.Context, req *models.JobRequest) (*models.JobRecord, error)
}

// JobReader reads job records
type JobReader interface {
	Get(ctx context.Context, jobID string) (*models.JobRecord, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	cfg            *config.Config
	documents      DocumentService
	store          DocumentReader
	dispatcher     JobDispatcher
	jobStore       JobReader
	computeSem     chan struct{} // Semaphore for bounded concurrency
	computeTimeout time.Duration
}

// NewHandler creates a new handler
func NewHandler(
	cfg *config.Config,
	documents DocumentService,
	store DocumentReader,
	dispatcher JobDispatcher,
	jobStore JobReader,
) *Handler {
	sem := make(chan struct{}, cfg.MaxConcurrentCompute)

	return &Handler{
		cfg:            cfg,
		documents:      documents,
		store:          store,
		dispatcher:     dispatcher,
		jobStore:       jobStore,
		computeSem:     sem,
		computeTimeout: cfg.ComputationTimeout,
	}
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	count, err := h.store.CountDocuments(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Health check could not reach the document store")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"store":  "unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"documents":  count,
		"algorithms": algorithmTags(),
	})
}

// Analyze compares two raw texts synchronously
func (h *Handler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	h.respondAnalysis(c, req)
}

// AnalyzeUpload compares two uploaded files without storing them
func (h *Handler) AnalyzeUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.cfg.MaxUploadBytes+(1<<20))

	ctx := c.Request.Context()
	var texts [2]string
	for i, field := range []string{"file1", "file2"} {
		filename, mimeType, data, err := h.readUpload(c, field)
		if err != nil {
			writeError(c, err)
			return
		}
		text, _, err := h.documents.ExtractText(ctx, filename, mimeType, data)
		if err != nil {
			writeError(c, err)
			return
		}
		texts[i] = text
	}

	minMatchLength := 0
	if raw := c.PostForm("minMatchLength"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, fmt.Errorf("%w: %q", matching.ErrInvalidMatchLength, raw))
			return
		}
		minMatchLength = n
	}

	h.respondAnalysis(c, models.AnalyzeRequest{
		Doc1:           texts[0],
		Doc2:           texts[1],
		Algorithm:      c.PostForm("algorithm"),
		MinMatchLength: minMatchLength,
	})
}

// Compare runs every algorithm over the same document pair
func (h *Handler) Compare(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	minMatchLength, err := h.validateDocuments(req)
	if err != nil {
		writeError(c, err)
		return
	}

	var results []*models.AnalysisResult
	err = h.runBounded(c.Request.Context(), func() error {
		var cerr error
		results, cerr = matching.CompareAlgorithms(req.Doc1, req.Doc2, minMatchLength)
		return cerr
	})
	if err != nil {
		writeError(c, err)
		return
	}

	for _, result := range results {
		metrics.ObserveAnalysis(result.Algorithm, result.TimeTaken, result.PlagiarismPercentage, nil)
	}

	c.JSON(http.StatusOK, models.CompareResponse{Results: results})
}

// UploadDocument extracts and stores a document for later jobs
func (h *Handler) UploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+(1<<20))

	filename, mimeType, data, err := h.readUpload(c, "file")
	if err != nil {
		writeError(c, err)
		return
	}

	doc, duplicate, err := h.documents.Ingest(c.Request.Context(), filename, mimeType, data)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	c.JSON(status, documentResponse(doc, duplicate))
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.store.GetDocumentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, documentResponse(doc, false))
}

// CreateJob queues an analysis of two stored documents
func (h *Handler) CreateJob(c *gin.Context) {
	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "sourceId and targetId are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	record, err := h.dispatcher.Dispatch(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.JobResponse{
		Step:  record.Step,
		JobID: record.JobID,
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	record, err := h.jobStore.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) respondAnalysis(c *gin.Context, req models.AnalyzeRequest) {
	algorithm, err := matching.ParseAlgorithm(req.Algorithm)
	if err != nil {
		writeError(c, err)
		return
	}

	minMatchLength, err := h.validateDocuments(req)
	if err != nil {
		writeError(c, err)
		return
	}

	var result *models.AnalysisResult
	err = h.runBounded(c.Request.Context(), func() error {
		var aerr error
		result, aerr = matching.Analyze(req.Doc1, req.Doc2, algorithm, minMatchLength)
		return aerr
	})

	var timeTaken, percentage float64
	if result != nil {
		timeTaken, percentage = result.TimeTaken, result.PlagiarismPercentage
	}
	metrics.ObserveAnalysis(algorithm.Label(), timeTaken, percentage, err)

	if err != nil {
		writeError(c, err)
		return
	}

	source := matching.Normalize(req.Doc1)
	resp := models.AnalyzeResponse{
		Result:       result,
		Verdict:      matching.GetVerdict(result.PlagiarismPercentage),
		Matches:      matching.BuildMatchViews(source, result.Matches, matching.MaxListedMatches),
		TotalMatches: len(result.Matches),
	}

	includeSegments := h.cfg.IncludeSegmentsDefault
	if raw := c.Query("segments"); raw != "" {
		if v, perr := strconv.ParseBool(raw); perr == nil {
			includeSegments = v
		}
	}
	if includeSegments {
		target := matching.Normalize(req.Doc2)
		resp.SourceSegments = matching.Segments(source, matching.SourceSpans(source, result.Matches), matching.MaxHighlighted)
		resp.TargetSegments = matching.Segments(target, result.Matches, matching.MaxHighlighted)
	}

	c.JSON(http.StatusOK, resp)
}

// validateDocuments applies the size guard and resolves the match length
func (h *Handler) validateDocuments(req models.AnalyzeRequest) (int, error) {
	for _, doc := range []string{req.Doc1, req.Doc2} {
		if n := utf8.RuneCountInString(doc); n > h.cfg.MaxDocumentRunes {
			return 0, fmt.Errorf("%w: %d characters, limit %d", errDocumentTooLarge, n, h.cfg.MaxDocumentRunes)
		}
	}

	minMatchLength := req.MinMatchLength
	if minMatchLength == 0 {
		minMatchLength = h.cfg.DefaultMinMatchLength
	}
	if minMatchLength < 0 {
		return 0, fmt.Errorf("%w: got %d", matching.ErrInvalidMatchLength, minMatchLength)
	}
	return minMatchLength, nil
}

// runBounded runs fn under the compute semaphore and timeout. A run that
// outlives the timeout is abandoned; it still holds its slot until it ends.
func (h *Handler) runBounded(ctx context.Context, fn func() error) error {
	select {
	case h.computeSem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan error, 1)
	go func() {
		defer func() { <-h.computeSem }()
		done <- fn()
	}()

	timer := time.NewTimer(h.computeTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return jobs.ErrComputationTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) readUpload(c *gin.Context, field string) (string, string, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", "", nil, fmt.Errorf("%w: limit %d bytes", errUploadTooLarge, h.cfg.MaxUploadBytes)
		}
		return "", "", nil, fmt.Errorf("%w: %s", errMissingFile, field)
	}
	if header.Size > h.cfg.MaxUploadBytes {
		return "", "", nil, fmt.Errorf("%w: %s is %d bytes, limit %d", errUploadTooLarge, header.Filename, header.Size, h.cfg.MaxUploadBytes)
	}

	data, err := readFileHeader(header)
	if err != nil {
		return "", "", nil, err
	}
	return header.Filename, header.Header.Get("Content-Type"), data, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

func documentResponse(doc *models.Document, duplicate bool) models.DocumentResponse {
	return models.DocumentResponse{
		ID:        doc.ID.Hex(),
		Filename:  doc.Filename,
		FileType:  doc.FileType,
		Runes:     doc.Runes,
		Duplicate: duplicate,
	}
}

func algorithmTags() []string {
	tags := make([]string, 0, len(matching.Algorithms))
	for _, a := range matching.Algorithms {
		tags = append(tags, a.Tag())
	}
	return tags
}

// writeError maps domain errors to status codes and error codes
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"

	switch {
	case errors.Is(err, matching.ErrUnknownAlgorithm):
		status, code = http.StatusBadRequest, "UNKNOWN_ALGORITHM"
	case errors.Is(err, matching.ErrInvalidMatchLength):
		status, code = http.StatusBadRequest, "INVALID_MIN_MATCH_LENGTH"
	case errors.Is(err, errMissingFile):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, errDocumentTooLarge), errors.Is(err, errUploadTooLarge), errors.Is(err, preprocess.ErrDocumentTooLarge):
		status, code = http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE"
	case errors.Is(err, extract.ErrUnsupportedType):
		status, code = http.StatusUnsupportedMediaType, "UNSUPPORTED_DOCUMENT"
	case errors.Is(err, extract.ErrEmptyDocument), errors.Is(err, extract.ErrInvalidDOCX):
		status, code = http.StatusUnprocessableEntity, "UNREADABLE_DOCUMENT"
	case errors.Is(err, repository.ErrDocumentNotFound), errors.Is(err, jobs.ErrJobNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, jobs.ErrComputationTimeout):
		status, code = http.StatusGatewayTimeout, "COMPUTATION_TIMEOUT"
	case errors.Is(err, jobs.ErrPoolClosed):
		status, code = http.StatusServiceUnavailable, "UNAVAILABLE"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusRequestTimeout, "REQUEST_TIMEOUT"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		message = "Internal server error"
	}

	c.JSON(status, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
