package room

import (
	"testing"
	"time"

	"github.com/rx3lixir/groupdecide/internal/errs"
	"github.com/rx3lixir/groupdecide/internal/ledger"
	"github.com/stretchr/testify/require"
)

var (
	host  = Participant{ID: "h", Name: "Host"}
	alice = Participant{ID: "a", Name: "Alice"}
	bob   = Participant{ID: "b", Name: "Bob"}
)

func newTestState(t *testing.T, members ...Participant) *State {
	t.Helper()
	s, err := newState("ROOM-TEST01", "Friday night", host, time.Unix(0, 0))
	require.NoError(t, err)
	for _, m := range members {
		_, err := s.Join(m)
		require.NoError(t, err)
	}
	return s
}

// publicItem adds a private item for owner and promotes it.
func publicItem(t *testing.T, s *State, owner, name string) ledger.PublicItem {
	t.Helper()
	priv, err := s.AddPrivateItem(owner, ledger.ItemInput{Name: name})
	require.NoError(t, err)
	pub, err := s.PromoteToPublic(owner, priv.InstanceID, "")
	require.NoError(t, err)
	return pub
}

func TestNewState_Validation(t *testing.T) {
	_, err := newState("ROOM-X", "  ", host, time.Now())
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = newState("ROOM-X", "Trip", Participant{ID: "h"}, time.Now())
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestJoin(t *testing.T) {
	req := require.New(t)
	s := newTestState(t)

	changed, err := s.Join(alice)
	req.NoError(err)
	req.True(changed)

	// Joining twice changes nothing
	changed, err = s.Join(Participant{ID: "a", Name: "Alice again"})
	req.NoError(err)
	req.False(changed)
	req.Len(s.members, 2)
	req.Equal("Alice", s.members[1].Name)
	req.Equal("h", s.hostID)
}

func TestLeave_ReassignsHostInJoinOrder(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice, bob)

	_, err := s.Leave("h")
	req.NoError(err)
	req.Equal("a", s.hostID)
	req.Equal([]Participant{alice, bob}, s.members)

	_, err = s.Leave("b")
	req.NoError(err)
	req.Equal("a", s.hostID)

	_, err = s.Leave("a")
	req.NoError(err)
	req.Empty(s.members)
	req.Empty(s.hostID)

	_, err = s.Leave("a")
	req.ErrorIs(err, errs.ErrNotAMember)
}

func TestLeave_DropsPrivateItemsKeepsRatings(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)

	pub := publicItem(t, s, "h", "Pizza")
	_, err := s.AddPrivateItem("a", ledger.ItemInput{Name: "Secret"})
	req.NoError(err)
	_, err = s.RatePublicItem("a", pub.InstanceID, ledger.NotAtAll)
	req.NoError(err)

	_, err = s.Leave("a")
	req.NoError(err)

	req.Empty(s.ledger.PrivateItems("a"))
	stored, err := s.ledger.Public(pub.InstanceID)
	req.NoError(err)
	req.Equal(ledger.NotAtAll, stored.Ratings["a"])
}

func TestLeave_CompletesBarrier(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)
	publicItem(t, s, "h", "Pizza")

	_, err := s.Finalize("h")
	req.NoError(err)
	req.Equal(PhaseRating, s.Phase())

	// The only member who had not finalized leaves
	_, err = s.Leave("a")
	req.NoError(err)
	req.Equal(PhaseDecided, s.Phase())
	req.Equal(1, s.rounds)
}

func TestPrivateItemOwnership(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)

	priv, err := s.AddPrivateItem("a", ledger.ItemInput{Name: "Park"})
	req.NoError(err)

	err = s.DeletePrivateItem("h", priv.InstanceID)
	req.ErrorIs(err, errs.ErrNotFound)

	_, err = s.PromoteToPublic("h", priv.InstanceID, "")
	req.ErrorIs(err, errs.ErrNotFound)

	_, err = s.AddPrivateItem("stranger", ledger.ItemInput{Name: "Park"})
	req.ErrorIs(err, errs.ErrNotAMember)

	req.NoError(s.DeletePrivateItem("a", priv.InstanceID))
	req.Empty(s.ledger.PrivateItems("a"))
}

func TestPromote_DefaultsSubmitterToDisplayName(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)

	pub := publicItem(t, s, "a", "Bowling")
	req.Equal("Alice", pub.SubmittedBy)
	req.Equal("a", pub.SubmittedByID)
	req.False(pub.HostAdded)

	priv, err := s.AddPrivateItem("a", ledger.ItemInput{Name: "Karaoke"})
	req.NoError(err)
	pub, err = s.PromoteToPublic("a", priv.InstanceID, "Ally")
	req.NoError(err)
	req.Equal("Ally", pub.SubmittedBy)
}

func TestHostAddPublicItem(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)

	_, err := s.HostAddPublicItem("a", ledger.ItemInput{Name: "Zoo"})
	req.ErrorIs(err, errs.ErrNotHost)

	item, err := s.HostAddPublicItem("h", ledger.ItemInput{Name: "Zoo"})
	req.NoError(err)
	req.True(item.HostAdded)
	req.Equal(ledger.HostAddedCategory, item.Category)
	req.Equal("Host", item.SubmittedBy)
}

func TestDeletePublicItem_Permissions(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice, bob)

	byAlice := publicItem(t, s, "a", "Cinema")
	byHost, err := s.HostAddPublicItem("h", ledger.ItemInput{Name: "Museum"})
	req.NoError(err)

	req.ErrorIs(s.DeletePublicItem("b", byAlice.InstanceID), errs.ErrForbidden)
	req.ErrorIs(s.DeletePublicItem("a", byHost.InstanceID), errs.ErrForbidden)
	req.ErrorIs(s.DeletePublicItem("a", "pub_NOPE0000"), errs.ErrNotFound)

	req.NoError(s.DeletePublicItem("a", byAlice.InstanceID))
	req.NoError(s.DeletePublicItem("h", byHost.InstanceID))
	req.Empty(s.ledger.PublicItems())
}

func TestDeletePublicItem_RemovesRatingsAndReopens(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)

	keep := publicItem(t, s, "h", "Keep")
	drop := publicItem(t, s, "h", "Drop")
	for _, id := range []string{keep.InstanceID, drop.InstanceID} {
		_, err := s.RatePublicItem("a", id, ledger.Interested)
		req.NoError(err)
	}
	_, err := s.Finalize("h")
	req.NoError(err)
	_, err = s.Finalize("a")
	req.NoError(err)
	req.Equal(PhaseDecided, s.Phase())

	req.NoError(s.DeletePublicItem("h", drop.InstanceID))

	req.Equal(PhaseRating, s.Phase())
	req.Empty(s.done)
	_, err = s.ledger.Public(drop.InstanceID)
	req.ErrorIs(err, errs.ErrNotFound)
	req.Len(s.ledger.PublicItems(), 1)
}

func TestRate_FinalizedParticipantIsRejected(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)
	pub := publicItem(t, s, "h", "Pizza")

	_, err := s.Finalize("a")
	req.NoError(err)

	_, err = s.RatePublicItem("a", pub.InstanceID, ledger.Okay)
	req.ErrorIs(err, errs.ErrAlreadyFinalized)
	_, err = s.ClearRating("a", pub.InstanceID)
	req.ErrorIs(err, errs.ErrAlreadyFinalized)

	_, err = s.RatePublicItem("h", pub.InstanceID, "MEH")
	req.ErrorIs(err, errs.ErrInvalidEmotionKey)
}

func TestFinalize_BarrierAndIdempotence(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)
	pub := publicItem(t, s, "h", "Pizza")
	_, err := s.RatePublicItem("h", pub.InstanceID, ledger.VeryInterested)
	req.NoError(err)

	changed, err := s.Finalize("h")
	req.NoError(err)
	req.True(changed)
	req.Nil(s.scoring)

	changed, err = s.Finalize("h")
	req.NoError(err)
	req.False(changed)
	req.Equal([]string{"h"}, s.done)

	_, err = s.Finalize("a")
	req.NoError(err)
	req.Equal(PhaseDecided, s.Phase())
	req.NotNil(s.scoring)
	req.NotNil(s.topsis)
	req.True(s.computed)

	_, err = s.Finalize("stranger")
	req.ErrorIs(err, errs.ErrNotAMember)
}

func TestRestart_KeepsRatings(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)
	pub := publicItem(t, s, "h", "Pizza")
	_, err := s.RatePublicItem("a", pub.InstanceID, ledger.Interested)
	req.NoError(err)
	_, err = s.Finalize("h")
	req.NoError(err)
	_, err = s.Finalize("a")
	req.NoError(err)

	req.ErrorIs(s.Restart("a"), errs.ErrNotHost)
	req.Equal(PhaseDecided, s.Phase())

	req.NoError(s.Restart("h"))
	req.Equal(PhaseRating, s.Phase())
	req.Empty(s.done)
	req.Nil(s.scoring)
	req.Nil(s.topsis)

	stored, err := s.ledger.Public(pub.InstanceID)
	req.NoError(err)
	req.Equal(ledger.Interested, stored.Ratings["a"])
}

func TestJoinDuringDecidedKeepsDecision(t *testing.T) {
	req := require.New(t)
	s := newTestState(t)
	publicItem(t, s, "h", "Pizza")
	_, err := s.Finalize("h")
	req.NoError(err)
	req.Equal(PhaseDecided, s.Phase())

	_, err = s.Join(alice)
	req.NoError(err)

	req.Equal(PhaseDecided, s.Phase())
	req.False(s.allFinalized())
}

func TestClone_IsIndependent(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)
	pub := publicItem(t, s, "h", "Pizza")

	c := s.clone()
	_, err := c.Join(bob)
	req.NoError(err)
	_, err = c.RatePublicItem("a", pub.InstanceID, ledger.Okay)
	req.NoError(err)
	_, err = c.Finalize("h")
	req.NoError(err)

	req.Len(s.members, 2)
	req.Empty(s.done)
	stored, err := s.ledger.Public(pub.InstanceID)
	req.NoError(err)
	req.Empty(stored.Ratings)
}

func TestSnapshot_Views(t *testing.T) {
	req := require.New(t)
	s := newTestState(t, alice)
	_, err := s.AddPrivateItem("a", ledger.ItemInput{Name: "Secret spot"})
	req.NoError(err)

	snap := s.Snapshot()
	req.Equal("Host", snap.HostName)
	req.Len(snap.PrivateItems, 2)
	req.Empty(snap.PrivateItems["h"])
	req.NotNil(snap.PrivateItems["h"])

	view := snap.ViewFor("h")
	req.Len(view.PrivateItems, 1)
	req.Contains(view.PrivateItems, "h")
	// The full snapshot is untouched
	req.Len(snap.PrivateItems, 2)

	req.True(snap.IsMember("a"))
	req.False(snap.IsMember("x"))
}
