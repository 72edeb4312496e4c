package models

import "time"

// User — профиль текущего пользователя (GET /users/me).
// Confirmed/Blocked управляются бэкендом.
type User struct {
	ID          int64      `json:"id"`
	DocumentID  string     `json:"documentId"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Provider    string     `json:"provider,omitempty"`
	Confirmed   bool       `json:"confirmed"`
	Blocked     bool       `json:"blocked"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Locale      *string    `json:"locale,omitempty"`
}

// UserSummary — встроенная сводка автора статьи/комментария.
type UserSummary struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId,omitempty"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
}

// Credentials — форма входа. Identifier — email или username.
type Credentials struct {
	Identifier string `json:"identifier" validate:"required,email|username"`
	Password   string `json:"password"   validate:"min=6"`
}

// Registration — форма регистрации.
type Registration struct {
	Email    string `json:"email"    validate:"required,email"`
	Username string `json:"username" validate:"min=3,max=20"`
	Password string `json:"password" validate:"min=6"`
}

// AuthResponse — ответ POST /auth/local и /auth/local/register.
type AuthResponse struct {
	JWT  string `json:"jwt"`
	User *User  `json:"user,omitempty"`
}
