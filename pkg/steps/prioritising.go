package steps

import (
	"strings"
	"unicode/utf8"
)

// PrioritisingStrategy scores the candidates matching a step; the highest
// score wins and a tie at the top makes the step ambiguous.
type PrioritisingStrategy interface {
	Score(step string, candidate *StepCandidate) int
}

// ByPriorityField scores candidates by their declared priority.
type ByPriorityField struct{}

func (ByPriorityField) Score(_ string, candidate *StepCandidate) int {
	return candidate.Priority
}

// ByLevenshteinDistance prefers the candidate whose template is closest to
// the step text.
type ByLevenshteinDistance struct{}

func (ByLevenshteinDistance) Score(step string, candidate *StepCandidate) int {
	return -levenshtein(strings.ToLower(step), strings.ToLower(candidate.Template))
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return utf8.RuneCountInString(b)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// prioritise returns the single best candidate, or every candidate sharing
// the top score.
func prioritise(strategy PrioritisingStrategy, step string, candidates []*StepCandidate) []*StepCandidate {
	if len(candidates) < 2 {
		return candidates
	}
	best := []*StepCandidate{candidates[0]}
	bestScore := strategy.Score(step, candidates[0])
	for _, c := range candidates[1:] {
		switch score := strategy.Score(step, c); {
		case score > bestScore:
			best, bestScore = []*StepCandidate{c}, score
		case score == bestScore:
			best = append(best, c)
		}
	}
	return best
}
