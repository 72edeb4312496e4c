package models

import "time"

// Comment — комментарий к статье.
// Связь со статьёй: запись — по числовому ID статьи, чтение —
// фильтром по documentId статьи.
type Comment struct {
	ID         int64        `json:"id"`
	DocumentID string       `json:"documentId"`
	Content    string       `json:"content"`
	User       *UserSummary `json:"user,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// CommentPayload — тело создания комментария.
type CommentPayload struct {
	Content string `json:"content"`
	Article int64  `json:"article"`
}

// CommentUpdate — тело изменения комментария (статья не меняется).
type CommentUpdate struct {
	Content string `json:"content" validate:"notblank"`
}
