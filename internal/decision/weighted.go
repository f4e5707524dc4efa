package decision

import (
	"fmt"

	"github.com/rx3lixir/groupdecide/internal/ledger"
)

// WeightedSum ranks items by the mean emotion score of the ratings cast by
// current members. Unrated items score 0.
func WeightedSum(items []ledger.PublicItem, members []string) Result {
	res := Result{Method: MethodWeightedSum, Ranked: []RankedItem{}}
	if len(items) == 0 {
		res.Text = "No items to rank."
		return res
	}

	byID := make(map[string]ledger.PublicItem, len(items))
	for _, item := range items {
		scores := memberScores(item, members)
		res.Ranked = append(res.Ranked, RankedItem{
			InstanceID:  item.InstanceID,
			Name:        item.Name,
			Score:       mean(scores),
			RatingCount: len(scores),
		})
		byID[item.InstanceID] = item
	}
	rank(res.Ranked)

	winner := res.Ranked[0]
	winnerItem := byID[winner.InstanceID]
	veryInterested := countEmotion(winnerItem, members, ledger.VeryInterested)
	notAtAll := countEmotion(winnerItem, members, ledger.NotAtAll)

	res.WinnerID = winner.InstanceID
	res.Text = fmt.Sprintf("Top (Weighted Sum): %s", winner.Name)
	res.Details = fmt.Sprintf(
		"Ranked by mean rating of current members.%s\nWinner: %d very interested, %d not at all.",
		listing(res.Ranked, func(r RankedItem) string {
			return fmt.Sprintf("%s: %.2f (%d ratings)", r.Name, r.Score, r.RatingCount)
		}),
		veryInterested,
		notAtAll,
	)
	if notAtAll > 0 {
		res.Details += "\nWarning: this choice has strong objection(s)."
	}
	return res
}
