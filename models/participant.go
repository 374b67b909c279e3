package models

// Participant is one registered player of a tournament. AvatarRef is an
// opaque pointer into the platform's media storage and is display-only here.
type Participant struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarRef   *string `json:"avatar_ref,omitempty"`
}
