package entity

// UserDocument is the public projection of a user kept in the search index.
type UserDocument struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}
