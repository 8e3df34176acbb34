package scoring

import "context"

// Resume is one uploaded resume handed to the scorer. Ingestion and
// parsing happen upstream; the pipeline treats the content as opaque.
type Resume struct {
	FileName string
	Content  string
}

// RankedCandidate is one scored resume as reported by a scorer.
type RankedCandidate struct {
	Name            string
	Email           string
	Phone           string
	ExperienceYears int
	Skills          string
	MatchScore      float64
	Status          string
	Reasoning       string
}

// Result carries the scorer's output for one job.
type Result struct {
	Candidates []RankedCandidate
	TokensUsed int
	Cost       float64
}

// Scorer ranks a batch of resumes against a job description. The matching
// model behind it is an external collaborator; implementations must honor
// ctx cancellation so the pipeline can bound scoring time.
type Scorer interface {
	Score(ctx context.Context, description string, resumes []Resume) (*Result, error)
}
