package room

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/groupdecide/internal/decision"
	"github.com/rx3lixir/groupdecide/internal/errs"
	"github.com/rx3lixir/groupdecide/internal/ledger"
)

type Phase string

const (
	PhaseRating  Phase = "rating"
	PhaseDecided Phase = "decided"
)

// Participant is a member of a room. The id is an opaque token supplied by
// the caller and stable for the lifetime of its session.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p Participant) validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: participant id is required", errs.ErrInvalidArgument)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: display name is required", errs.ErrInvalidArgument)
	}
	return nil
}

// State is the authoritative state of one room. Only the room's actor reads or
// writes it, and every command runs against a private clone that replaces the
// current state only if the command succeeds.
type State struct {
	id        string
	uid       uuid.UUID // never reused, unlike the room code
	name      string
	hostID    string
	members   []Participant // join order
	ledger    *ledger.Ledger
	done      []string // finalize order
	scoring   *decision.Result
	topsis    *decision.Result
	version   uint64
	rounds    int
	computed  bool
	createdAt time.Time
	updatedAt time.Time
}

func newState(id, name string, host Participant, now time.Time) (*State, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", errs.ErrInvalidArgument)
	}
	host.Name = strings.TrimSpace(host.Name)
	if err := host.validate(); err != nil {
		return nil, err
	}
	return &State{
		id:        id,
		uid:       uuid.New(),
		name:      name,
		hostID:    host.ID,
		members:   []Participant{host},
		ledger:    ledger.New(),
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func (s *State) clone() *State {
	c := *s
	c.members = slices.Clone(s.members)
	c.done = slices.Clone(s.done)
	c.ledger = s.ledger.Clone()
	c.computed = false
	return &c
}

func (s *State) Phase() Phase {
	if s.scoring != nil && s.topsis != nil {
		return PhaseDecided
	}
	return PhaseRating
}

func (s *State) memberIndex(id string) int {
	return slices.IndexFunc(s.members, func(p Participant) bool { return p.ID == id })
}

func (s *State) member(id string) (Participant, error) {
	idx := s.memberIndex(id)
	if idx < 0 {
		return Participant{}, fmt.Errorf("%w: %s", errs.ErrNotAMember, id)
	}
	return s.members[idx], nil
}

func (s *State) memberIDs() []string {
	ids := make([]string, len(s.members))
	for i, m := range s.members {
		ids[i] = m.ID
	}
	return ids
}

func (s *State) isDone(id string) bool {
	return slices.Contains(s.done, id)
}

func (s *State) requireHost(id string) error {
	if _, err := s.member(id); err != nil {
		return err
	}
	if s.hostID != id {
		return fmt.Errorf("%w: %s is not the host", errs.ErrNotHost, id)
	}
	return nil
}

// Join adds p as a member. Joining twice is a no-op. A participant joining an
// empty room becomes its host.
func (s *State) Join(p Participant) (bool, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.validate(); err != nil {
		return false, err
	}
	if s.memberIndex(p.ID) >= 0 {
		return false, nil
	}
	s.members = append(s.members, p)
	if len(s.members) == 1 {
		s.hostID = p.ID
	}
	return true, nil
}

// Leave removes a member with its private items and finalize mark. Ratings it
// cast stay on the public items: they no longer count while the participant is
// away, and count again if it rejoins.
func (s *State) Leave(id string) (bool, error) {
	idx := s.memberIndex(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", errs.ErrNotAMember, id)
	}
	s.members = slices.Delete(s.members, idx, idx+1)
	s.ledger.DropOwner(id)
	s.done = slices.DeleteFunc(s.done, func(d string) bool { return d == id })

	if len(s.members) == 0 {
		s.hostID = ""
		return true, nil
	}
	if s.hostID == id {
		s.hostID = s.members[0].ID
	}
	s.evaluateBarrier()
	return true, nil
}

func (s *State) AddPrivateItem(ownerID string, in ledger.ItemInput) (ledger.PrivateItem, error) {
	if _, err := s.member(ownerID); err != nil {
		return ledger.PrivateItem{}, err
	}
	return s.ledger.AddPrivate(ownerID, in)
}

func (s *State) DeletePrivateItem(ownerID, instanceID string) error {
	if _, err := s.member(ownerID); err != nil {
		return err
	}
	return s.ledger.DeletePrivate(ownerID, instanceID)
}

// PromoteToPublic moves a private item to the public list. A blank
// submittedBy falls back to the owner's display name.
func (s *State) PromoteToPublic(ownerID, instanceID, submittedBy string) (ledger.PublicItem, error) {
	owner, err := s.member(ownerID)
	if err != nil {
		return ledger.PublicItem{}, err
	}
	if strings.TrimSpace(submittedBy) == "" {
		submittedBy = owner.Name
	}
	item, created, err := s.ledger.Promote(ownerID, instanceID, submittedBy)
	if err != nil {
		return ledger.PublicItem{}, err
	}
	if created {
		s.reopenRating()
	}
	return item, nil
}

func (s *State) HostAddPublicItem(participantID string, in ledger.ItemInput) (ledger.PublicItem, error) {
	if err := s.requireHost(participantID); err != nil {
		return ledger.PublicItem{}, err
	}
	host, _ := s.member(participantID)
	item, err := s.ledger.AddHostItem(host.ID, host.Name, in)
	if err != nil {
		return ledger.PublicItem{}, err
	}
	s.reopenRating()
	return item, nil
}

// DeletePublicItem is allowed for the host, and for the participant who
// submitted a promoted item. Host-added items are host-only.
func (s *State) DeletePublicItem(participantID, instanceID string) error {
	if _, err := s.member(participantID); err != nil {
		return err
	}
	item, err := s.ledger.Public(instanceID)
	if err != nil {
		return err
	}
	isHost := s.hostID == participantID
	isSubmitter := item.SubmittedByID == participantID && !item.HostAdded
	if !isHost && !isSubmitter {
		return fmt.Errorf("%w: %s may not delete %s", errs.ErrForbidden, participantID, instanceID)
	}
	if err := s.ledger.DeletePublic(instanceID); err != nil {
		return err
	}
	s.reopenRating()
	return nil
}

func (s *State) guardRating(participantID string) error {
	if _, err := s.member(participantID); err != nil {
		return err
	}
	if s.isDone(participantID) {
		return fmt.Errorf("%w: %s", errs.ErrAlreadyFinalized, participantID)
	}
	return nil
}

func (s *State) RatePublicItem(participantID, instanceID string, e ledger.Emotion) (bool, error) {
	if err := s.guardRating(participantID); err != nil {
		return false, err
	}
	return s.ledger.Rate(instanceID, participantID, e)
}

func (s *State) ClearRating(participantID, instanceID string) (bool, error) {
	if err := s.guardRating(participantID); err != nil {
		return false, err
	}
	return s.ledger.ClearRating(instanceID, participantID)
}

// Finalize marks the participant's ratings as complete and evaluates the
// completion barrier.
func (s *State) Finalize(participantID string) (bool, error) {
	if _, err := s.member(participantID); err != nil {
		return false, err
	}
	if s.isDone(participantID) {
		return false, nil
	}
	s.done = append(s.done, participantID)
	s.evaluateBarrier()
	return true, nil
}

// Restart returns the room to the rating phase. Ratings already cast are kept.
func (s *State) Restart(participantID string) error {
	if err := s.requireHost(participantID); err != nil {
		return err
	}
	s.reopenRating()
	return nil
}

func (s *State) reopenRating() {
	s.done = nil
	s.scoring = nil
	s.topsis = nil
}

// allFinalized reports whether every current member has finalized.
func (s *State) allFinalized() bool {
	if len(s.members) == 0 {
		return false
	}
	for _, m := range s.members {
		if !s.isDone(m.ID) {
			return false
		}
	}
	return true
}

// evaluateBarrier runs the decision engine when every current member has
// finalized. Otherwise an existing decision stays in place until restart or
// until the barrier is reached again.
func (s *State) evaluateBarrier() {
	if !s.allFinalized() {
		return
	}
	weighted, topsis := decision.Compute(s.ledger.PublicItems(), s.memberIDs())
	s.scoring = &weighted
	s.topsis = &topsis
	s.rounds++
	s.computed = true
}
