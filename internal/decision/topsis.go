package decision

import (
	"fmt"
	"math"

	"github.com/rx3lixir/groupdecide/internal/ledger"
)

// neutralScore stands in for a missing rating: indifference, not the worst rating.
const neutralScore = 0.0

// undecidedCloseness is used when an alternative coincides with both the ideal
// and the anti-ideal solution.
const undecidedCloseness = 0.5

// TOPSIS ranks items by group TOPSIS: items are alternatives, current members
// are equally weighted benefit criteria.
func TOPSIS(items []ledger.PublicItem, members []string) Result {
	res := Result{Method: MethodTOPSIS, Ranked: []RankedItem{}}
	if len(items) == 0 {
		res.Text = "No items to rank."
		return res
	}

	matrix := DecisionMatrix(items, members)
	closeness := Closeness(matrix)

	means := make(map[string]float64, len(items))
	for i, item := range items {
		scores := memberScores(item, members)
		means[item.InstanceID] = mean(scores)
		res.Ranked = append(res.Ranked, RankedItem{
			InstanceID:  item.InstanceID,
			Name:        item.Name,
			Score:       closeness[i],
			RatingCount: len(scores),
		})
	}
	rank(res.Ranked)

	winner := res.Ranked[0]
	res.WinnerID = winner.InstanceID
	res.Text = fmt.Sprintf("Top (TOPSIS): %s", winner.Name)
	res.Details = fmt.Sprintf(
		"Closest to the ideal group preference and farthest from the worst case.%s\nWinner mean score: %.2f.",
		listing(res.Ranked, func(r RankedItem) string {
			return fmt.Sprintf("%s: %.4f", r.Name, r.Score)
		}),
		means[winner.InstanceID],
	)
	return res
}

// DecisionMatrix builds M[item][member]; unrated cells hold the neutral score.
func DecisionMatrix(items []ledger.PublicItem, members []string) [][]float64 {
	m := make([][]float64, len(items))
	for i, item := range items {
		row := make([]float64, len(members))
		for j, member := range members {
			row[j] = neutralScore
			if e, ok := item.Ratings[member]; ok && e.Valid() {
				row[j] = float64(e.Score())
			}
		}
		m[i] = row
	}
	return m
}

// Closeness computes the TOPSIS closeness coefficient of every row of matrix,
// shaped [alternatives][criteria], with equal weights and benefit criteria.
// A column whose sum of squares is 0 normalizes to all zeros.
func Closeness(matrix [][]float64) []float64 {
	n := len(matrix)
	if n == 0 {
		return nil
	}
	k := len(matrix[0])

	// Vector normalization per column, then equal weights
	weighted := make([][]float64, n)
	for i := range weighted {
		weighted[i] = make([]float64, k)
	}
	weight := 0.0
	if k > 0 {
		weight = 1 / float64(k)
	}
	for j := 0; j < k; j++ {
		var sumSq float64
		for i := 0; i < n; i++ {
			sumSq += matrix[i][j] * matrix[i][j]
		}
		if sumSq == 0 {
			continue
		}
		norm := math.Sqrt(sumSq)
		for i := 0; i < n; i++ {
			weighted[i][j] = matrix[i][j] / norm * weight
		}
	}

	// Ideal and anti-ideal solutions
	ideal := make([]float64, k)
	anti := make([]float64, k)
	for j := 0; j < k; j++ {
		ideal[j] = weighted[0][j]
		anti[j] = weighted[0][j]
		for i := 1; i < n; i++ {
			ideal[j] = math.Max(ideal[j], weighted[i][j])
			anti[j] = math.Min(anti[j], weighted[i][j])
		}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var dPlus, dMinus float64
		for j := 0; j < k; j++ {
			dPlus += (weighted[i][j] - ideal[j]) * (weighted[i][j] - ideal[j])
			dMinus += (weighted[i][j] - anti[j]) * (weighted[i][j] - anti[j])
		}
		dPlus, dMinus = math.Sqrt(dPlus), math.Sqrt(dMinus)
		if dPlus+dMinus == 0 {
			out[i] = undecidedCloseness
			continue
		}
		out[i] = dMinus / (dPlus + dMinus)
	}
	return out
}
