// Package decision turns a room's public items and ratings into group rankings.
//
// Everything here is pure: the same items and members always produce the same
// results, and inputs are never modified.
package decision

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rx3lixir/groupdecide/internal/ledger"
)

type Method string

const (
	MethodWeightedSum Method = "weighted_sum"
	MethodTOPSIS      Method = "topsis"
)

// RankedItem is one alternative with the value it was ranked by: the mean
// rating for the weighted sum, the closeness coefficient for TOPSIS.
type RankedItem struct {
	InstanceID  string  `json:"unique_instance_id"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	RatingCount int     `json:"rating_count"`
}

// Result is an opaque presentation payload, rebuilt on every computation.
type Result struct {
	Method   Method       `json:"method"`
	Ranked   []RankedItem `json:"ranked_items"`
	WinnerID string       `json:"winner_id,omitempty"`
	Text     string       `json:"text"`
	Details  string       `json:"details"`
}

// Winner returns the first ranked item, if any.
func (r Result) Winner() (RankedItem, bool) {
	if len(r.Ranked) == 0 {
		return RankedItem{}, false
	}
	return r.Ranked[0], true
}

// Compute runs both ranking methods over the same item set.
func Compute(items []ledger.PublicItem, members []string) (weighted, topsis Result) {
	return WeightedSum(items, members), TOPSIS(items, members)
}

// memberScores returns the scores of the ratings cast on item by current
// members, in member order.
func memberScores(item ledger.PublicItem, members []string) []int {
	var scores []int
	for _, m := range members {
		if e, ok := item.Ratings[m]; ok && e.Valid() {
			scores = append(scores, e.Score())
		}
	}
	return scores
}

func countEmotion(item ledger.PublicItem, members []string, want ledger.Emotion) int {
	n := 0
	for _, m := range members {
		if item.Ratings[m] == want {
			n++
		}
	}
	return n
}

func mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// rank orders by descending score, then by descending rating count. The input
// must be in item insertion order; the stable sort keeps it for full ties.
func rank(items []RankedItem) {
	slices.SortStableFunc(items, func(a, b RankedItem) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return b.RatingCount - a.RatingCount
	})
}

func listing(ranked []RankedItem, format func(RankedItem) string) string {
	var b strings.Builder
	for i, r := range ranked {
		fmt.Fprintf(&b, "\n%d. %s", i+1, format(r))
	}
	return b.String()
}
