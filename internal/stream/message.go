package stream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RishiKendai/textmatch/internal/models"
)

var ErrInvalidMessage = errors.New("invalid stream message")

// StreamMessage is a stream entry with its string fields
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// ParseSubmission reads an analysis request from stream fields:
// docA, docB (required), algorithm, minMatchLength and jobId (optional).
func ParseSubmission(msg *StreamMessage) (*models.Submission, error) {
	get := func(key string) string {
		return strings.TrimSpace(msg.Fields[key])
	}

	submission := &models.Submission{
		JobID:     get("jobId"),
		SourceID:  get("docA"),
		TargetID:  get("docB"),
		Algorithm: get("algorithm"),
	}

	if submission.SourceID == "" {
		return nil, fmt.Errorf("%w %s: missing docA", ErrInvalidMessage, msg.ID)
	}
	if submission.TargetID == "" {
		return nil, fmt.Errorf("%w %s: missing docB", ErrInvalidMessage, msg.ID)
	}

	if raw := get("minMatchLength"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w %s: minMatchLength %q is not a number", ErrInvalidMessage, msg.ID, raw)
		}
		submission.MinMatchLength = n
	}

	return submission, nil
}
