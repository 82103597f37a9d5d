package domain

// Profile is a candidate document to be scored against requirements.
type Profile struct {
	// Name identifies the candidate, usually the file name.
	Name string

	// Text is the full profile text.
	Text string
}

// MatchResult is a candidate scored against a requirements document.
// It is computed per request and never persisted.
type MatchResult struct {
	// Name identifies the candidate.
	Name string `json:"name" yaml:"name"`

	// Score is |matched| / |requirements|, in [0, 1].
	Score float64 `json:"match_score" yaml:"match_score"`

	// Matched are the candidate skills found in the requirements, in vocabulary order.
	Matched []string `json:"matching_skills" yaml:"matching_skills"`

	// AllSkills are every skill found in the candidate text, in vocabulary order.
	AllSkills []string `json:"all_skills" yaml:"all_skills"`
}

// MatchReport is the outcome of matching uploaded documents.
type MatchReport struct {
	// Requirements are the skills extracted from the statement of work.
	Requirements []string `json:"requirements" yaml:"requirements"`

	// Matches are ranked by descending score.
	Matches []MatchResult `json:"matches" yaml:"matches"`

	// Warnings lists profiles that could not be read.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
