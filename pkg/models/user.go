package models

import "strings"

// ChatUser identifies a message sender. IDs compare case-insensitively,
// enforced by lowercasing at construction.
type ChatUser struct {
	ID            string `json:"id"`
	IsLocalUser   bool   `json:"is_local_user,omitempty"`
	Nickname      string `json:"nickname,omitempty"`
	BadgeImageURL string `json:"badge_image_url,omitempty"`
}

// NewChatUser builds a ChatUser with a case-normalized ID.
func NewChatUser(id, nickname string, isLocal bool) ChatUser {
	return ChatUser{
		ID:          strings.ToLower(id),
		Nickname:    nickname,
		IsLocalUser: isLocal,
	}
}
