package models

import "time"

// Category — категория статей. У статьи ноль или одна категория.
type Category struct {
	ID          int64      `json:"id"`
	DocumentID  string     `json:"documentId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Locale      *string    `json:"locale,omitempty"`
}

// CategorySummary — встроенная в статью сводка категории.
type CategorySummary struct {
	ID          int64  `json:"id"`
	DocumentID  string `json:"documentId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CategoryPayload struct {
	Name        string `json:"name"                  validate:"notblank,min=2,max=40"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}
