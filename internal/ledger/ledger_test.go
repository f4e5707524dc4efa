package ledger

import (
	"errors"
	"strings"
	"testing"

	"github.com/rx3lixir/groupdecide/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestParseEmotion(t *testing.T) {
	req := require.New(t)

	e, err := ParseEmotion("VERY_INTERESTED")
	req.NoError(err)
	req.Equal(VeryInterested, e)
	req.Equal(5, e.Score())

	_, err = ParseEmotion("MEH")
	req.True(errors.Is(err, errs.ErrInvalidEmotionKey))
}

func TestScale_OrderedByScore(t *testing.T) {
	req := require.New(t)
	s := Scale()
	req.Len(s, 5)
	want := []int{5, 3, 1, -2, -5}
	for i, e := range s {
		req.Equal(want[i], e.Score)
		req.Equal(e.Score, e.Key.Score())
	}

	// Mutating the copy must not leak back
	s[0].Score = 100
	req.Equal(5, Scale()[0].Score)
}

func TestAddPrivate_DefaultsAndIDs(t *testing.T) {
	req := require.New(t)
	l := New()

	item, err := l.AddPrivate("alice", ItemInput{Name: "  Picnic  "})
	req.NoError(err)
	req.Equal("Picnic", item.Name)
	req.Equal(DefaultCategory, item.Category)
	req.Equal(DefaultType, item.Type)
	req.Equal("alice", item.OwnerID)
	req.True(strings.HasPrefix(item.InstanceID, "priv_"))

	other, err := l.AddPrivate("alice", ItemInput{Name: "Bowling"})
	req.NoError(err)
	req.NotEqual(item.InstanceID, other.InstanceID)
	req.Len(l.PrivateItems("alice"), 2)
	req.Empty(l.PrivateItems("bob"))
}

func TestAddPrivate_RejectsBlankAndDuplicates(t *testing.T) {
	req := require.New(t)
	l := New()

	_, err := l.AddPrivate("alice", ItemInput{Name: "   "})
	req.True(errors.Is(err, errs.ErrInvalidArgument))

	_, err = l.AddPrivate("alice", ItemInput{Name: "Sushi"})
	req.NoError(err)
	_, err = l.AddPrivate("alice", ItemInput{Name: "sushi"})
	req.True(errors.Is(err, errs.ErrConflict))

	// Same name in another owner's list is fine
	_, err = l.AddPrivate("bob", ItemInput{Name: "Sushi"})
	req.NoError(err)

	_, err = l.AddPrivate("alice", ItemInput{Name: "Louvre Museum", CatalogID: "p2"})
	req.NoError(err)
	_, err = l.AddPrivate("alice", ItemInput{Name: "Louvre", CatalogID: "p2"})
	req.True(errors.Is(err, errs.ErrConflict))
}

func TestDeletePrivate(t *testing.T) {
	req := require.New(t)
	l := New()
	item, _ := l.AddPrivate("alice", ItemInput{Name: "Zoo"})

	// Another owner cannot delete it
	req.True(errors.Is(l.DeletePrivate("bob", item.InstanceID), errs.ErrNotFound))

	req.NoError(l.DeletePrivate("alice", item.InstanceID))
	req.Empty(l.PrivateItems("alice"))
	req.True(errors.Is(l.DeletePrivate("alice", item.InstanceID), errs.ErrNotFound))
}

func TestPromote_MovesItem(t *testing.T) {
	req := require.New(t)
	l := New()
	priv, _ := l.AddPrivate("alice", ItemInput{Name: "Pizza", Category: "Italian", Type: "restaurant"})

	pub, created, err := l.Promote("alice", priv.InstanceID, "Alice")
	req.NoError(err)
	req.True(created)
	req.True(strings.HasPrefix(pub.InstanceID, "pub_"))
	req.Equal("Pizza", pub.Name)
	req.Equal("Italian", pub.Category)
	req.Equal("Alice", pub.SubmittedBy)
	req.Equal("alice", pub.SubmittedByID)
	req.False(pub.HostAdded)
	req.Empty(pub.Ratings)

	// The private instance ceases to exist
	req.Empty(l.PrivateItems("alice"))
	_, _, err = l.Promote("alice", priv.InstanceID, "Alice")
	req.True(errors.Is(err, errs.ErrNotFound))
	req.Len(l.PublicItems(), 1)
}

func TestPromote_CatalogItemAlreadyPublic(t *testing.T) {
	req := require.New(t)
	l := New()
	a, _ := l.AddPrivate("alice", ItemInput{Name: "Sushi Samba", CatalogID: "r2"})
	b, _ := l.AddPrivate("bob", ItemInput{Name: "Sushi Samba", CatalogID: "r2"})

	first, created, err := l.Promote("alice", a.InstanceID, "Alice")
	req.NoError(err)
	req.True(created)

	second, created, err := l.Promote("bob", b.InstanceID, "Bob")
	req.NoError(err)
	req.False(created)
	req.Equal(first.InstanceID, second.InstanceID)
	req.Len(l.PublicItems(), 1)
	req.Empty(l.PrivateItems("bob"))
}

func TestAddHostItem(t *testing.T) {
	req := require.New(t)
	l := New()

	item, err := l.AddHostItem("host", "Hana", ItemInput{Name: "Karaoke"})
	req.NoError(err)
	req.True(item.HostAdded)
	req.Equal(HostAddedCategory, item.Category)
	req.True(strings.HasPrefix(item.InstanceID, "pub_host_"))

	_, err = l.AddHostItem("host", "Hana", ItemInput{Name: "KARAOKE"})
	req.True(errors.Is(err, errs.ErrConflict))

	_, err = l.AddHostItem("host", "Hana", ItemInput{})
	req.True(errors.Is(err, errs.ErrInvalidArgument))
}

func TestRate_OverwriteAndClear(t *testing.T) {
	req := require.New(t)
	l := New()
	item, _ := l.AddHostItem("host", "Hana", ItemInput{Name: "Museum"})

	changed, err := l.Rate(item.InstanceID, "alice", Okay)
	req.NoError(err)
	req.True(changed)

	changed, err = l.Rate(item.InstanceID, "alice", Okay)
	req.NoError(err)
	req.False(changed)

	changed, err = l.Rate(item.InstanceID, "alice", VeryInterested)
	req.NoError(err)
	req.True(changed)

	got, err := l.Public(item.InstanceID)
	req.NoError(err)
	req.Equal(map[string]Emotion{"alice": VeryInterested}, got.Ratings)

	_, err = l.Rate(item.InstanceID, "alice", Emotion("MEH"))
	req.True(errors.Is(err, errs.ErrInvalidEmotionKey))
	_, err = l.Rate("pub_missing", "alice", Okay)
	req.True(errors.Is(err, errs.ErrNotFound))

	changed, err = l.ClearRating(item.InstanceID, "alice")
	req.NoError(err)
	req.True(changed)
	changed, err = l.ClearRating(item.InstanceID, "alice")
	req.NoError(err)
	req.False(changed)
}

func TestDeletePublic_CascadesRatings(t *testing.T) {
	req := require.New(t)
	l := New()
	keep, _ := l.AddHostItem("host", "Hana", ItemInput{Name: "Keep"})
	drop, _ := l.AddHostItem("host", "Hana", ItemInput{Name: "Drop"})
	_, _ = l.Rate(drop.InstanceID, "alice", NotAtAll)
	_, _ = l.Rate(keep.InstanceID, "alice", Interested)

	req.NoError(l.DeletePublic(drop.InstanceID))

	items := l.PublicItems()
	req.Len(items, 1)
	req.Equal(keep.InstanceID, items[0].InstanceID)
	_, err := l.Public(drop.InstanceID)
	req.True(errors.Is(err, errs.ErrNotFound))
	req.True(errors.Is(l.DeletePublic(drop.InstanceID), errs.ErrNotFound))
}

func TestClone_IsIndependent(t *testing.T) {
	req := require.New(t)
	l := New()
	priv, _ := l.AddPrivate("alice", ItemInput{Name: "Cinema"})
	pub, _ := l.AddHostItem("host", "Hana", ItemInput{Name: "Park"})
	_, _ = l.Rate(pub.InstanceID, "alice", Okay)

	c := l.Clone()
	_, _ = c.Rate(pub.InstanceID, "alice", NotAtAll)
	req.NoError(c.DeletePrivate("alice", priv.InstanceID))
	_, _ = c.AddHostItem("host", "Hana", ItemInput{Name: "Beach"})

	orig, _ := l.Public(pub.InstanceID)
	req.Equal(Okay, orig.Ratings["alice"])
	req.Len(l.PrivateItems("alice"), 1)
	req.Len(l.PublicItems(), 1)

	// Ids handed out by the original are never reissued by the clone
	next, _ := c.AddPrivate("alice", ItemInput{Name: "Cinema"})
	req.NotEqual(priv.InstanceID, next.InstanceID)
}

func TestDropOwner(t *testing.T) {
	req := require.New(t)
	l := New()
	_, _ = l.AddPrivate("alice", ItemInput{Name: "A"})
	_, _ = l.AddPrivate("bob", ItemInput{Name: "B"})

	l.DropOwner("alice")

	lists := l.PrivateLists()
	req.NotContains(lists, "alice")
	req.Len(lists["bob"], 1)
}
