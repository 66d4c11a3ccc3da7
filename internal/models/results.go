package models

import (
	"time"
)

type Step string

const (
	StepIdle      Step = "idle"
	StepQueued    Step = "queued"
	StepStarted   Step = "started"
	StepAnalyzing Step = "analyzing"
	StepCompleted Step = "completed"
	StepFailed    Step = "failed"
)

// Match is a located occurrence inside the normalized target document.
// Index and Length are counted in runes.
type Match struct {
	Index  int    `bson:"index" json:"index"`
	Length int    `bson:"length" json:"length"`
	Text   string `bson:"text" json:"text"`
}

// End returns the offset one past the last rune of the match.
func (m Match) End() int {
	return m.Index + m.Length
}

// AnalysisResult is the outcome of a single document comparison
type AnalysisResult struct {
	Matches              []Match `json:"matches"`
	TimeTaken            float64 `json:"timeTaken"` // milliseconds
	Algorithm            string  `json:"algorithm"` // KMP, Boyer-Moore, Rabin-Karp
	PlagiarismPercentage float64 `json:"plagiarismPercentage"`
}

// Verdict is the display classification of a plagiarism percentage
type Verdict struct {
	Level  string `json:"level"`  // low, moderate, high
	Label  string `json:"label"`  // Low Similarity, Moderate Similarity, High Similarity
	Action string `json:"action"` // pass, review, flag
}

// MatchView is a merged match prepared for rendering
type MatchView struct {
	Index       int    `json:"index"`
	SourceIndex int    `json:"sourceIndex"` // -1 when the text is not found in the source
	Length      int    `json:"length"`
	Preview     string `json:"preview"`
}

// Segment is a slice of a normalized document, marked when it belongs to a match
type Segment struct {
	Text    string `json:"text"`
	IsMatch bool   `json:"isMatch"`
	MatchID int    `json:"matchId,omitempty"`
}

// AnalyzeRequest represents a request to compare two documents
type AnalyzeRequest struct {
	Doc1           string `json:"doc1"`
	Doc2           string `json:"doc2"`
	Algorithm      string `json:"algorithm"`
	MinMatchLength int    `json:"minMatchLength"`
}

// AnalyzeResponse wraps a result with its display data
type AnalyzeResponse struct {
	Result         *AnalysisResult `json:"result"`
	Verdict        Verdict         `json:"verdict"`
	Matches        []MatchView     `json:"matchViews"`
	TotalMatches   int             `json:"totalMatches"`
	SourceSegments []Segment       `json:"sourceSegments,omitempty"`
	TargetSegments []Segment       `json:"targetSegments,omitempty"`
}

// CompareResponse holds one result per algorithm for the same document pair
type CompareResponse struct {
	Results []*AnalysisResult `json:"results"`
}

// JobRequest represents a request to analyze two stored documents asynchronously
type JobRequest struct {
	JobID          string `json:"jobId,omitempty"`
	SourceID       string `json:"sourceId" binding:"required"`
	TargetID       string `json:"targetId" binding:"required"`
	Algorithm      string `json:"algorithm"`
	MinMatchLength int    `json:"minMatchLength"`
}

// JobResponse represents the response from the jobs endpoint
type JobResponse struct {
	Step  Step   `json:"step"`
	JobID string `json:"jobId"`
}

// JobRecord is the hand-off record a caller polls for an asynchronous analysis
type JobRecord struct {
	JobID     string          `json:"jobId"`
	Step      Step            `json:"step"`
	SourceID  string          `json:"sourceId"`
	TargetID  string          `json:"targetId"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Verdict   *Verdict        `json:"verdict,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
