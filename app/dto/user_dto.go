package dto

// UserItem is one console operator in assignment pickers
type UserItem struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Department *string `json:"department,omitempty"`
}

// ListUsersResponse returns active console operators
type ListUsersResponse struct {
	Message string     `json:"message"`
	Items   []UserItem `json:"items"`
}
