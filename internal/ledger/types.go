package ledger

import "maps"

const (
	DefaultCategory   = "Custom Idea"
	DefaultType       = "User Input"
	HostAddedCategory = "Host Added"
)

// ItemInput is the caller-supplied description of a candidate option.
type ItemInput struct {
	Name      string
	Category  string
	Type      string
	CatalogID string
}

// PrivateItem is visible only to its owner until promoted.
type PrivateItem struct {
	InstanceID string `json:"unique_instance_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Type       string `json:"type"`
	CatalogID  string `json:"item_original_id,omitempty"`
	OwnerID    string `json:"owner_id"`
}

// PublicItem is visible to and ratable by every member of the room.
type PublicItem struct {
	InstanceID    string             `json:"unique_instance_id"`
	Name          string             `json:"name"`
	Category      string             `json:"category"`
	Type          string             `json:"type"`
	CatalogID     string             `json:"item_original_id,omitempty"`
	SubmittedBy   string             `json:"submitted_by"`
	SubmittedByID string             `json:"submitted_by_id"`
	HostAdded     bool               `json:"host_added"`
	Ratings       map[string]Emotion `json:"ratings"`
}

func (p PublicItem) clone() PublicItem {
	p.Ratings = maps.Clone(p.Ratings)
	if p.Ratings == nil {
		p.Ratings = map[string]Emotion{}
	}
	return p
}
