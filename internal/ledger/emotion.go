package ledger

import (
	"fmt"

	"github.com/rx3lixir/groupdecide/internal/errs"
	"github.com/samber/lo"
)

// Emotion is one of the five fixed rating levels.
type Emotion string

const (
	VeryInterested Emotion = "VERY_INTERESTED"
	Interested     Emotion = "INTERESTED"
	Okay           Emotion = "OKAY"
	NotInterested  Emotion = "NOT_INTERESTED"
	NotAtAll       Emotion = "NOT_AT_ALL"
)

// EmotionInfo describes a rating level for presentation.
type EmotionInfo struct {
	Key   Emotion `json:"key"`
	Emoji string  `json:"emoji"`
	Label string  `json:"label"`
	Score int     `json:"score"`
}

// Ordered by score, highest first
var scale = []EmotionInfo{
	{Key: VeryInterested, Emoji: "😍", Label: "Very Interested", Score: 5},
	{Key: Interested, Emoji: "🙂", Label: "Interested", Score: 3},
	{Key: Okay, Emoji: "😐", Label: "Okay", Score: 1},
	{Key: NotInterested, Emoji: "😕", Label: "Not Interested", Score: -2},
	{Key: NotAtAll, Emoji: "😠", Label: "Not Interested At All", Score: -5},
}

var scoreByKey = lo.SliceToMap(scale, func(e EmotionInfo) (Emotion, int) {
	return e.Key, e.Score
})

// Scale returns the emotion scale ordered by descending score.
func Scale() []EmotionInfo {
	out := make([]EmotionInfo, len(scale))
	copy(out, scale)
	return out
}

// ParseEmotion validates a raw emotion key.
func ParseEmotion(raw string) (Emotion, error) {
	e := Emotion(raw)
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidEmotionKey, raw)
	}
	return e, nil
}

func (e Emotion) Valid() bool {
	_, ok := scoreByKey[e]
	return ok
}

// Score returns the numeric weight of the emotion, 0 for unknown keys.
func (e Emotion) Score() int {
	return scoreByKey[e]
}
