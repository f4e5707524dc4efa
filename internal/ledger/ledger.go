// Package ledger keeps the item lists and the rating matrix of a single room.
//
// A Ledger has no synchronization of its own. It is owned by exactly one room
// actor and must only be touched from that actor's goroutine.
package ledger

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rx3lixir/groupdecide/internal/errs"
	"github.com/samber/lo"
)

const (
	privatePrefix   = "priv_"
	publicPrefix    = "pub_"
	hostAddedPrefix = "pub_host_"
)

type Ledger struct {
	private map[string][]PrivateItem
	public  []PublicItem
	// every instance id ever handed out, so ids are never reused
	issued map[string]struct{}
}

func New() *Ledger {
	return &Ledger{
		private: make(map[string][]PrivateItem),
		issued:  make(map[string]struct{}),
	}
}

// Clone returns a deep copy that shares no mutable state with l.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		private: make(map[string][]PrivateItem, len(l.private)),
		public:  make([]PublicItem, len(l.public)),
		issued:  maps.Clone(l.issued),
	}
	for owner, items := range l.private {
		c.private[owner] = slices.Clone(items)
	}
	for i, p := range l.public {
		c.public[i] = p.clone()
	}
	return c
}

func (l *Ledger) newID(prefix string) string {
	for {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		id := prefix + strings.ToUpper(raw[:8])
		if _, taken := l.issued[id]; !taken {
			l.issued[id] = struct{}{}
			return id
		}
	}
}

func normalize(in ItemInput, category, typ string) (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("%w: item name is required", errs.ErrInvalidArgument)
	}
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		in.Category = category
	}
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		in.Type = typ
	}
	in.CatalogID = strings.TrimSpace(in.CatalogID)
	return in, nil
}

// AddPrivate appends a new item to the owner's private list.
// An owner may not hold two items with the same catalog id, or, for free-form
// items, the same case-insensitive name.
func (l *Ledger) AddPrivate(ownerID string, in ItemInput) (PrivateItem, error) {
	in, err := normalize(in, DefaultCategory, DefaultType)
	if err != nil {
		return PrivateItem{}, err
	}

	duplicate := lo.ContainsBy(l.private[ownerID], func(existing PrivateItem) bool {
		if in.CatalogID != "" {
			return existing.CatalogID == in.CatalogID
		}
		return existing.CatalogID == "" && strings.EqualFold(existing.Name, in.Name)
	})
	if duplicate {
		return PrivateItem{}, fmt.Errorf("%w: %q is already in your private list", errs.ErrConflict, in.Name)
	}

	item := PrivateItem{
		InstanceID: l.newID(privatePrefix),
		Name:       in.Name,
		Category:   in.Category,
		Type:       in.Type,
		CatalogID:  in.CatalogID,
		OwnerID:    ownerID,
	}
	l.private[ownerID] = append(l.private[ownerID], item)
	return item, nil
}

// TakePrivate removes an item from the owner's private list and returns it.
func (l *Ledger) TakePrivate(ownerID, instanceID string) (PrivateItem, error) {
	items := l.private[ownerID]
	idx := slices.IndexFunc(items, func(p PrivateItem) bool { return p.InstanceID == instanceID })
	if idx < 0 {
		return PrivateItem{}, fmt.Errorf("%w: private item %s", errs.ErrNotFound, instanceID)
	}
	item := items[idx]
	l.private[ownerID] = slices.Delete(slices.Clone(items), idx, idx+1)
	return item, nil
}

func (l *Ledger) DeletePrivate(ownerID, instanceID string) error {
	_, err := l.TakePrivate(ownerID, instanceID)
	return err
}

// DropOwner forgets every private item of ownerID.
func (l *Ledger) DropOwner(ownerID string) {
	delete(l.private, ownerID)
}

func (l *Ledger) PrivateItems(ownerID string) []PrivateItem {
	return slices.Clone(l.private[ownerID])
}

// Promote moves a private item to the public list. If the item comes from the
// catalog and that catalog entry is already public, the private item is
// consumed and created is false.
func (l *Ledger) Promote(ownerID, instanceID, submittedBy string) (item PublicItem, created bool, err error) {
	priv, err := l.TakePrivate(ownerID, instanceID)
	if err != nil {
		return PublicItem{}, false, err
	}

	if priv.CatalogID != "" {
		if existing, ok := lo.Find(l.public, func(p PublicItem) bool {
			return p.CatalogID == priv.CatalogID
		}); ok {
			return existing.clone(), false, nil
		}
	}

	pub := PublicItem{
		InstanceID:    l.newID(publicPrefix),
		Name:          priv.Name,
		Category:      priv.Category,
		Type:          priv.Type,
		CatalogID:     priv.CatalogID,
		SubmittedBy:   submittedBy,
		SubmittedByID: ownerID,
		Ratings:       map[string]Emotion{},
	}
	l.public = append(l.public, pub)
	return pub.clone(), true, nil
}

// AddHostItem appends a host-added public item. Host-added names are unique,
// case-insensitively.
func (l *Ledger) AddHostItem(hostID, hostName string, in ItemInput) (PublicItem, error) {
	in, err := normalize(in, HostAddedCategory, DefaultType)
	if err != nil {
		return PublicItem{}, err
	}
	if lo.ContainsBy(l.public, func(p PublicItem) bool {
		return p.HostAdded && strings.EqualFold(p.Name, in.Name)
	}) {
		return PublicItem{}, fmt.Errorf("%w: host-added item %q", errs.ErrConflict, in.Name)
	}

	pub := PublicItem{
		InstanceID:    l.newID(hostAddedPrefix),
		Name:          in.Name,
		Category:      HostAddedCategory,
		Type:          in.Type,
		CatalogID:     in.CatalogID,
		SubmittedBy:   hostName,
		SubmittedByID: hostID,
		HostAdded:     true,
		Ratings:       map[string]Emotion{},
	}
	l.public = append(l.public, pub)
	return pub.clone(), nil
}

func (l *Ledger) publicIndex(instanceID string) (int, error) {
	idx := slices.IndexFunc(l.public, func(p PublicItem) bool { return p.InstanceID == instanceID })
	if idx < 0 {
		return -1, fmt.Errorf("%w: public item %s", errs.ErrNotFound, instanceID)
	}
	return idx, nil
}

// Public looks up a public item by instance id.
func (l *Ledger) Public(instanceID string) (PublicItem, error) {
	idx, err := l.publicIndex(instanceID)
	if err != nil {
		return PublicItem{}, err
	}
	return l.public[idx].clone(), nil
}

// DeletePublic removes a public item together with all of its ratings.
func (l *Ledger) DeletePublic(instanceID string) error {
	idx, err := l.publicIndex(instanceID)
	if err != nil {
		return err
	}
	l.public = slices.Delete(slices.Clone(l.public), idx, idx+1)
	return nil
}

// Rate records participantID's rating, overwriting any previous one.
// changed is false when the participant already held the same rating.
func (l *Ledger) Rate(instanceID, participantID string, e Emotion) (changed bool, err error) {
	if !e.Valid() {
		return false, fmt.Errorf("%w: %q", errs.ErrInvalidEmotionKey, e)
	}
	idx, err := l.publicIndex(instanceID)
	if err != nil {
		return false, err
	}
	item := &l.public[idx]
	if item.Ratings[participantID] == e {
		return false, nil
	}
	if item.Ratings == nil {
		item.Ratings = map[string]Emotion{}
	}
	item.Ratings[participantID] = e
	return true, nil
}

// ClearRating removes participantID's rating from the item, if any.
func (l *Ledger) ClearRating(instanceID, participantID string) (changed bool, err error) {
	idx, err := l.publicIndex(instanceID)
	if err != nil {
		return false, err
	}
	item := &l.public[idx]
	if _, ok := item.Ratings[participantID]; !ok {
		return false, nil
	}
	delete(item.Ratings, participantID)
	return true, nil
}

// PublicItems returns a deep copy of the public list in insertion order.
func (l *Ledger) PublicItems() []PublicItem {
	return lo.Map(l.public, func(p PublicItem, _ int) PublicItem { return p.clone() })
}

// PrivateLists returns a deep copy of every owner's private list.
func (l *Ledger) PrivateLists() map[string][]PrivateItem {
	out := make(map[string][]PrivateItem, len(l.private))
	for owner, items := range l.private {
		out[owner] = slices.Clone(items)
	}
	return out
}
