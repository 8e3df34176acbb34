package scoring

import "context"

// SampleScorer returns a fixed ranked batch regardless of input. It stands
// in for the real matching model during development and keeps the pipeline
// exercisable end to end without one.
type SampleScorer struct{}

func NewSampleScorer() *SampleScorer {
	return &SampleScorer{}
}

func (s *SampleScorer) Score(ctx context.Context, description string, resumes []Resume) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Candidates: []RankedCandidate{
			{
				Name:            "Sarah Johnson",
				Email:           "s.johnson@email.com",
				Phone:           "+1 (555) 123-4567",
				ExperienceYears: 8,
				Skills:          "React, Node.js, Python, AWS",
				MatchScore:      94,
				Status:          "shortlisted",
				Reasoning:       "Excellent match with required skills and experience",
			},
			{
				Name:            "Michael Chen",
				Email:           "m.chen@email.com",
				Phone:           "+1 (555) 987-6543",
				ExperienceYears: 6,
				Skills:          "Java, Spring, AWS, Docker",
				MatchScore:      89,
				Status:          "shortlisted",
				Reasoning:       "Strong technical background, good culture fit",
			},
			{
				Name:            "Emily Rodriguez",
				Email:           "e.rodriguez@email.com",
				Phone:           "+1 (555) 456-7890",
				ExperienceYears: 4,
				Skills:          "Vue.js, PHP, MySQL",
				MatchScore:      78,
				Status:          "under_review",
				Reasoning:       "Some relevant skills but limited experience",
			},
			{
				Name:            "David Park",
				Email:           "d.park@email.com",
				Phone:           "+1 (555) 789-0123",
				ExperienceYears: 3,
				Skills:          "Angular, .NET, SQL Server",
				MatchScore:      65,
				Status:          "under_review",
				Reasoning:       "Different tech stack but transferable skills",
			},
			{
				Name:            "Lisa Thompson",
				Email:           "l.thompson@email.com",
				Phone:           "+1 (555) 234-5678",
				ExperienceYears: 2,
				Skills:          "HTML, CSS, JavaScript",
				MatchScore:      42,
				Status:          "not_qualified",
				Reasoning:       "Limited experience and skills for senior role",
			},
		},
		TokensUsed: 1250,
		Cost:       2.50,
	}, nil
}
