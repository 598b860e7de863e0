package domain

import "sort"

// AlignmentData compares how two users rank the world. The overall score is
// bounded to [0,100]; higher means more agreement. Scoring is a normalized
// Kendall tau over atoms the two users have both ranked; when the users
// share no ranked atoms there is no signal and the score sits at the neutral
// midpoint of 50.
type AlignmentData struct {
	OverallAlignment float64           `json:"overall_alignment"`
	Comparisons      []StackComparison `json:"comparisons"`
	Divergences      []Divergence      `json:"divergences"`
}

// StackComparison is the per-stack-pair breakdown behind an alignment score:
// one stack from each user, matched on shared atoms, with the agreement of
// their shared rankings.
type StackComparison struct {
	StackAID    string   `json:"stack_a_id"`
	StackBID    string   `json:"stack_b_id"`
	Category    Category `json:"category"`
	SharedAtoms int      `json:"shared_atoms"`
	Alignment   float64  `json:"alignment"`
}

// DivergenceSeverity buckets how strongly two users disagree on one atom.
type DivergenceSeverity string

// Divergence severities.
const (
	SeverityLow    DivergenceSeverity = "low"
	SeverityMedium DivergenceSeverity = "medium"
	SeverityHigh   DivergenceSeverity = "high"
)

// Divergence is a single atom the two users rank in strongly different
// positions within a matched stack pair.
type Divergence struct {
	AtomID    string             `json:"atom_id"`
	StackAID  string             `json:"stack_a_id"`
	StackBID  string             `json:"stack_b_id"`
	UserARank int                `json:"user_a_rank"`
	UserBRank int                `json:"user_b_rank"`
	Severity  DivergenceSeverity `json:"severity"`
}

// ComputeAlignment scores agreement between two users' stack rankings.
// Each stack is matched to the other user's stack sharing the most atoms (at
// least two shared atoms are needed for rank comparison to mean anything);
// the pair's score is Kendall tau over the shared atoms' relative order,
// mapped from [-1,1] onto [0,100]. The overall score is the mean of pair
// scores weighted by shared-atom count. Matching runs in both directions and
// a mutual match counts once, so swapping the two users never changes the
// overall score.
func ComputeAlignment(stacksA, stacksB []*Stack) *AlignmentData {
	data := &AlignmentData{
		OverallAlignment: 50, // no shared rankings: no signal either way
		Comparisons:      []StackComparison{},
		Divergences:      []Divergence{},
	}

	type pairKey struct{ a, b string }
	seen := make(map[pairKey]bool)
	var weightedSum, weightTotal float64

	// addPair keeps A's orientation in the breakdown regardless of which
	// matching direction found the pair.
	addPair := func(a, b *Stack, shared []string) {
		key := pairKey{a.ID, b.ID}
		if seen[key] {
			return
		}
		seen[key] = true

		score := pairAlignment(a, b, shared)
		data.Comparisons = append(data.Comparisons, StackComparison{
			StackAID:    a.ID,
			StackBID:    b.ID,
			Category:    a.Category,
			SharedAtoms: len(shared),
			Alignment:   score,
		})
		data.Divergences = append(data.Divergences, pairDivergences(a, b, shared)...)

		weight := float64(len(shared))
		weightedSum += score * weight
		weightTotal += weight
	}

	for _, a := range stacksA {
		if b, shared := bestMatch(a, stacksB); b != nil {
			addPair(a, b, shared)
		}
	}
	for _, b := range stacksB {
		if a, _ := bestMatch(b, stacksA); a != nil {
			addPair(a, b, sharedAtoms(a, b))
		}
	}

	if weightTotal > 0 {
		data.OverallAlignment = clampScore(weightedSum / weightTotal)
	}
	return data
}

// bestMatch finds the stack in candidates sharing the most atoms with s.
// Requires at least two shared atoms. Ties go to the lexically smaller stack
// ID so repeated calls on unchanged data are deterministic.
func bestMatch(s *Stack, candidates []*Stack) (*Stack, []string) {
	var best *Stack
	var bestShared []string

	for _, candidate := range candidates {
		shared := sharedAtoms(s, candidate)
		if len(shared) < 2 {
			continue
		}
		if best == nil || len(shared) > len(bestShared) ||
			(len(shared) == len(bestShared) && candidate.ID < best.ID) {
			best = candidate
			bestShared = shared
		}
	}
	return best, bestShared
}

// sharedAtoms returns the atom IDs present in both stacks, ordered by their
// rank in a for determinism.
func sharedAtoms(a, b *Stack) []string {
	var shared []string
	for _, item := range a.Items {
		if b.ContainsAtom(item.AtomID) {
			shared = append(shared, item.AtomID)
		}
	}
	sort.SliceStable(shared, func(i, j int) bool {
		return a.AtomRank(shared[i]) < a.AtomRank(shared[j])
	})
	return shared
}

// pairAlignment maps Kendall tau over the shared atoms' ranks to [0,100].
func pairAlignment(a, b *Stack, shared []string) float64 {
	tau := kendallTau(a, b, shared)
	return clampScore((tau + 1) / 2 * 100)
}

// kendallTau computes the rank correlation of the shared atoms between the
// two stacks: (concordant - discordant) / totalPairs, in [-1,1].
func kendallTau(a, b *Stack, shared []string) float64 {
	n := len(shared)
	if n < 2 {
		return 0
	}

	var concordant, discordant int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// shared is ordered by a's ranks, so a always ranks shared[i]
			// above shared[j]; the pair agrees iff b does too.
			if b.AtomRank(shared[i]) < b.AtomRank(shared[j]) {
				concordant++
			} else {
				discordant++
			}
		}
	}

	pairs := n * (n - 1) / 2
	return float64(concordant-discordant) / float64(pairs)
}

// pairDivergences lists shared atoms the two stacks place far apart.
// Distance is the atom's position gap within the shared-atom orderings,
// normalized by the largest possible gap.
func pairDivergences(a, b *Stack, shared []string) []Divergence {
	n := len(shared)
	if n < 2 {
		return nil
	}

	posB := make(map[string]int, n)
	orderedByB := append([]string(nil), shared...)
	sort.SliceStable(orderedByB, func(i, j int) bool {
		return b.AtomRank(orderedByB[i]) < b.AtomRank(orderedByB[j])
	})
	for i, atomID := range orderedByB {
		posB[atomID] = i
	}

	var divergences []Divergence
	for posA, atomID := range shared {
		distance := float64(abs(posA-posB[atomID])) / float64(n-1)
		if distance < 1.0/3 {
			continue
		}

		severity := SeverityMedium
		if distance >= 2.0/3 {
			severity = SeverityHigh
		} else if distance < 0.5 {
			severity = SeverityLow
		}

		divergences = append(divergences, Divergence{
			AtomID:    atomID,
			StackAID:  a.ID,
			StackBID:  b.ID,
			UserARank: a.AtomRank(atomID),
			UserBRank: b.AtomRank(atomID),
			Severity:  severity,
		})
	}
	return divergences
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
