package models

// Submission represents an analysis request read from the Redis stream
type Submission struct {
	JobID          string `json:"jobId"`
	SourceID       string `json:"docA"`
	TargetID       string `json:"docB"`
	Algorithm      string `json:"algorithm"`
	MinMatchLength int    `json:"minMatchLength"`
}

// JobRequest converts the submission into a dispatcher request
func (s *Submission) JobRequest() *JobRequest {
	return &JobRequest{
		JobID:          s.JobID,
		SourceID:       s.SourceID,
		TargetID:       s.TargetID,
		Algorithm:      s.Algorithm,
		MinMatchLength: s.MinMatchLength,
	}
}
