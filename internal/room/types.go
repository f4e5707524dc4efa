package room

type CreateRoomRequest struct {
	RoomName string `json:"room_name" validate:"required,max=80"`
	UserName string `json:"user_name" validate:"required,max=40"`
}

type JoinRoomRequest struct {
	UserName string `json:"user_name" validate:"required,max=40"`
}

// AddItemRequest adds a free-form idea, or a catalog suggestion when
// item_original_id is set.
type AddItemRequest struct {
	Name      string `json:"name" validate:"required_without=CatalogID,max=120"`
	Category  string `json:"category" validate:"max=60"`
	Type      string `json:"type" validate:"max=60"`
	CatalogID string `json:"item_original_id" validate:"max=40"`
}

type PromoteItemRequest struct {
	SubmittedBy string `json:"submitted_by_name" validate:"max=40"`
}

type HostAddItemRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Type string `json:"type" validate:"max=60"`
}

type RateItemRequest struct {
	EmotionKey string `json:"emotion_key" validate:"required"`
}

type RoomResponse struct {
	Room Snapshot `json:"room"`
}

type LeaveRoomResponse struct {
	Message string `json:"message"`
}
