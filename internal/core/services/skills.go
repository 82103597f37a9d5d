package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DefaultSkillVocabulary is the fixed list of skills recognised in profile
// and requirement documents.
var DefaultSkillVocabulary = []string{
	"python", "javascript", "java", "c++", "c#", "ruby", "go", "rust",
	"react", "angular", "vue", "node.js", "django", "flask", "fastapi",
	"docker", "kubernetes", "aws", "azure", "gcp", "terraform",
	"machine learning", "deep learning", "nlp", "computer vision",
	"data science", "data analysis", "data engineering", "devops",
	"project management", "agile", "scrum", "product management",
}

// SkillMatcher extracts skills from free text by case-insensitive substring
// lookup against a vocabulary and scores profiles against requirements.
//
// Lookup is plain substring search, so "go" is found inside "good" and
// "java" inside "javascript".
type SkillMatcher struct {
	vocabulary []string
}

// NewSkillMatcher creates a matcher for the given vocabulary.
// With no arguments DefaultSkillVocabulary is used.
func NewSkillMatcher(vocabulary ...string) *SkillMatcher {
	if len(vocabulary) == 0 {
		vocabulary = DefaultSkillVocabulary
	}

	seen := make(map[string]bool, len(vocabulary))
	vocab := make([]string, 0, len(vocabulary))
	for _, skill := range vocabulary {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" || seen[skill] {
			continue
		}
		seen[skill] = true
		vocab = append(vocab, skill)
	}

	return &SkillMatcher{vocabulary: vocab}
}

// Vocabulary returns a copy of the recognised skills.
func (m *SkillMatcher) Vocabulary() []string {
	return append([]string(nil), m.vocabulary...)
}

// ExtractSkills returns the vocabulary skills present in text, in
// vocabulary order. Each skill appears at most once.
func (m *SkillMatcher) ExtractSkills(text string) []string {
	lower := strings.ToLower(text)

	found := []string{}
	for _, skill := range m.vocabulary {
		if strings.Contains(lower, skill) {
			found = append(found, skill)
		}
	}
	return found
}

// ScoreSkills returns the fraction of requirements covered by profile.
// It is 0 when requirements is empty. Both inputs are treated as sets.
func ScoreSkills(profile, requirements []string) float64 {
	req := toSet(requirements)
	if len(req) == 0 {
		return 0
	}
	return float64(len(intersect(profile, req))) / float64(len(req))
}

// MatchingSkills returns the profile skills that are also requirements,
// in first-seen profile order without duplicates.
func MatchingSkills(profile, requirements []string) []string {
	return intersect(profile, toSet(requirements))
}

// Match scores every profile against the skills found in requirementsText
// and returns results sorted by descending score. Profiles with equal
// scores keep their input order.
func (m *SkillMatcher) Match(profiles []domain.Profile, requirementsText string) []domain.MatchResult {
	return m.MatchRequirements(profiles, m.ExtractSkills(requirementsText))
}

// MatchRequirements is Match with the requirements already extracted.
func (m *SkillMatcher) MatchRequirements(profiles []domain.Profile, requirements []string) []domain.MatchResult {
	results := make([]domain.MatchResult, 0, len(profiles))
	for _, p := range profiles {
		skills := m.ExtractSkills(p.Text)
		results = append(results, domain.MatchResult{
			Name:      p.Name,
			Score:     ScoreSkills(skills, requirements),
			Matched:   MatchingSkills(skills, requirements),
			AllSkills: skills,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func intersect(items []string, set map[string]bool) []string {
	out := []string{}
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if set[item] && !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
