package room

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/groupdecide/internal/decision"
	"github.com/rx3lixir/groupdecide/internal/ledger"
	"github.com/samber/lo"
)

// Snapshot is an immutable copy of the full room state. It is the unit handed
// to sessions: receivers replace their local state with it, never merge.
type Snapshot struct {
	ID                   string                          `json:"id"`
	UID                  uuid.UUID                       `json:"uid"`
	Name                 string                          `json:"name"`
	HostID               string                          `json:"host_id"`
	HostName             string                          `json:"host_name"`
	Members              []Participant                   `json:"members"`
	PrivateItems         map[string][]ledger.PrivateItem `json:"private_items"`
	PublicItems          []ledger.PublicItem             `json:"public_items"`
	UsersDoneRating      []string                        `json:"users_done_rating"`
	FinalDecisionScoring *decision.Result                `json:"final_decision_scoring"`
	FinalDecisionTOPSIS  *decision.Result                `json:"final_decision_topsis"`
	Phase                Phase                           `json:"phase"`
	Version              uint64                          `json:"version"`
	DecisionRound        int                             `json:"decision_round"`
	DecisionComputed     bool                            `json:"decision_computed"`
	CreatedAt            time.Time                       `json:"created_at"`
	UpdatedAt            time.Time                       `json:"updated_at"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		ID:                   s.id,
		UID:                  s.uid,
		Name:                 s.name,
		HostID:               s.hostID,
		Members:              slices.Clone(s.members),
		PrivateItems:         make(map[string][]ledger.PrivateItem, len(s.members)),
		PublicItems:          s.ledger.PublicItems(),
		UsersDoneRating:      slices.Clone(s.done),
		FinalDecisionScoring: cloneResult(s.scoring),
		FinalDecisionTOPSIS:  cloneResult(s.topsis),
		Phase:                s.Phase(),
		Version:              s.version,
		DecisionRound:        s.rounds,
		DecisionComputed:     s.computed,
		CreatedAt:            s.createdAt,
		UpdatedAt:            s.updatedAt,
	}
	if snap.Members == nil {
		snap.Members = []Participant{}
	}
	if snap.UsersDoneRating == nil {
		snap.UsersDoneRating = []string{}
	}
	if host, ok := lo.Find(s.members, func(p Participant) bool { return p.ID == s.hostID }); ok {
		snap.HostName = host.Name
	}

	lists := s.ledger.PrivateLists()
	for _, m := range s.members {
		items := lists[m.ID]
		if items == nil {
			items = []ledger.PrivateItem{}
		}
		snap.PrivateItems[m.ID] = items
	}
	return snap
}

func cloneResult(r *decision.Result) *decision.Result {
	if r == nil {
		return nil
	}
	c := *r
	c.Ranked = slices.Clone(r.Ranked)
	return &c
}

// ViewFor returns the snapshot as seen by participantID: other members'
// private lists are left out.
func (s Snapshot) ViewFor(participantID string) Snapshot {
	view := s
	view.PrivateItems = make(map[string][]ledger.PrivateItem, 1)
	if items, ok := s.PrivateItems[participantID]; ok {
		view.PrivateItems[participantID] = items
	}
	return view
}

func (s Snapshot) IsMember(participantID string) bool {
	return lo.ContainsBy(s.Members, func(p Participant) bool { return p.ID == participantID })
}
