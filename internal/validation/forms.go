package validation

import (
	"github.com/pribylovaa/articles-cms/internal/models"
)

// Тексты сообщений совпадают с формами UI.
const (
	MsgCredentialsIncorrect = "Identifier or password is incorrect"
)

var articleMessages = messages{
	"title.notblank":           "Title is required",
	"title.min":                "Title must be at least 2 characters long",
	"title.max":                "Title must not exceed 100 characters",
	"description.notblank":     "Description is required",
	"description.min":          "Description must be at least 10 characters long",
	"description.max":          "Description must not exceed 3200 characters",
	"cover_image_url.http_url": "Cover image must be a valid URL",
	"category.gte":             "Category is required",
}

var categoryMessages = messages{
	"name.notblank":   "Name is required",
	"name.min":        "Name must be at least 2 characters long",
	"name.max":        "Name must not exceed 40 characters",
	"description.max": "Description must not exceed 1000 characters",
}

var signUpMessages = messages{
	"email.required": "Email is required",
	"email.email":    "Invalid email address",
	"username.min":   "Username must be at least 3 characters",
	"username.max":   "Username must be at most 20 characters",
	"password.min":   "Password must be at least 6 characters",
}

var commentMessages = messages{
	"content.notblank": "Comment must not be empty",
}

// Article — title 2..100, description 10..3200, cover_image_url — пусто или http(s) URL,
// category >= 1.
func Article(p models.ArticlePayload) error { return check(p, articleMessages) }

// Category — name 2..40, description <= 1000.
func Category(p models.CategoryPayload) error { return check(p, categoryMessages) }

// SignIn — identifier: email или [a-zA-Z0-9_]+; password >= 6.
// Нарушение любого правила даёт одно и то же сообщение на оба поля:
// форма не подсказывает, что именно неверно.
func SignIn(c models.Credentials) error {
	if check(c, nil) == nil {
		return nil
	}

	return FieldErrors{
		"identifier": MsgCredentialsIncorrect,
		"password":   MsgCredentialsIncorrect,
	}
}

// SignUp — email обязателен и корректен, username 3..20, password >= 6.
func SignUp(r models.Registration) error { return check(r, signUpMessages) }

// Comment — содержимое после TrimSpace не пустое.
func Comment(content string) error {
	return check(models.CommentUpdate{Content: content}, commentMessages)
}
