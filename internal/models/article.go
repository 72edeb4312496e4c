// Package models содержит сущности headless-CMS в том виде, в каком их отдаёт REST API.
package models

import "time"

// Article — статья.
// Важно:
//   - DocumentID — стабильный ключ для detail/update/delete;
//   - ID (числовой) используется только как внешний ключ при создании комментария;
//   - Category/User — денормализованные сводки, приходят при populate=*;
//   - Comments — в порядке, который вернул сервер.
type Article struct {
	ID            int64            `json:"id"`
	DocumentID    string           `json:"documentId"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	CoverImageURL string           `json:"cover_image_url,omitempty"`
	Category      *CategorySummary `json:"category,omitempty"`
	User          *UserSummary     `json:"user,omitempty"`
	Comments      []Comment        `json:"comments,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	PublishedAt   *time.Time       `json:"publishedAt,omitempty"`
	Locale        *string          `json:"locale,omitempty"`
}

// ArticlePayload — тело create/update; на проводе оборачивается в {"data": ...}.
// Category — числовой ID категории.
type ArticlePayload struct {
	Title         string `json:"title"                     validate:"notblank,min=2,max=100"`
	Description   string `json:"description"               validate:"notblank,min=10,max=3200"`
	CoverImageURL string `json:"cover_image_url,omitempty" validate:"omitempty,http_url"`
	Category      int64  `json:"category"                  validate:"gte=1"`
}
