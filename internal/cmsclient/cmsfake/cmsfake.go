// cmsfake — in-memory фейк REST API headless-CMS для тестов сторов и BFF.
//
// Понимает те же эндпойнты и query-параметры, что и настоящий сервер:
// пагинацию, populate, filters[title][$contains], filters[article][documentId][$eq],
// sort=createdAt:desc, конверт {"data": ...} у записей и bearer-токены.
package cmsfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/articles-cms/internal/models"
)

// Учётная запись, которую принимает /auth/local.
const (
	Username = "john_doe"
	Email    = "john@example.com"
	Password = "secret1"
	JWT      = "jwt-john"
)

// Hook перехватывает запрос до обработки; true — ответ уже записан.
type Hook func(w http.ResponseWriter, r *http.Request) bool

// Server — фейковый CMS поверх httptest.Server.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	hits       map[string]int
	articles   []models.Article
	categories []models.Category
	comments   map[string][]models.Comment // documentId статьи -> комментарии
	nextID     int64
	clock      time.Time
	hook       Hook
}

// New запускает сервер; остановка — Close.
func New() *Server {
	s := &Server{
		hits:     make(map[string]int),
		comments: make(map[string][]models.Comment),
		nextID:   100,
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Get("/articles", s.listArticles)
		r.Get("/articles/{id}", s.getArticle)
		r.With(s.auth).Post("/articles", s.createArticle)
		r.With(s.auth).Put("/articles/{id}", s.updateArticle)
		r.With(s.auth).Delete("/articles/{id}", s.deleteArticle)

		r.Get("/categories", s.listCategories)
		r.Get("/categories/{id}", s.getCategory)
		r.With(s.auth).Post("/categories", s.createCategory)
		r.With(s.auth).Put("/categories/{id}", s.updateCategory)
		r.With(s.auth).Delete("/categories/{id}", s.deleteCategory)

		r.Get("/comments", s.listComments)
		r.With(s.auth).Post("/comments", s.createComment)
		r.With(s.auth).Put("/comments/{id}", s.updateComment)
		r.With(s.auth).Delete("/comments/{id}", s.deleteComment)

		r.Post("/auth/local", s.signIn)
		r.Post("/auth/local/register", s.signUp)
		r.With(s.auth).Get("/users/me", s.me)
	})

	s.Server = httptest.NewServer(r)

	return s
}

// BaseURL — адрес API (с префиксом /api).
func (s *Server) BaseURL() string { return s.URL + "/api" }

// SetHook — перехват запросов (инъекция ошибок, задержек). nil снимает перехват.
func (s *Server) SetHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hook = h
}

// Hits — сколько раз вызывался "METHOD /path" (путь без /api и query).
func (s *Server) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[key]
}

// SeedArticle добавляет статью и возвращает её с присвоенными id.
func (s *Server) SeedArticle(title, description string) models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := models.Article{
		ID:          s.id(),
		Title:       title,
		Description: description,
		CreatedAt:   s.tick(),
	}
	a.DocumentID = fmt.Sprintf("art-%d", a.ID)
	a.UpdatedAt = a.CreatedAt
	s.articles = append(s.articles, a)

	return a
}

func (s *Server) SeedCategory(name string) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Category{ID: s.id(), Name: name, CreatedAt: s.tick()}
	c.DocumentID = fmt.Sprintf("cat-%d", c.ID)
	c.UpdatedAt = c.CreatedAt
	s.categories = append(s.categories, c)

	return c
}

func (s *Server) SeedComment(articleDocumentID, content string) models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addComment(articleDocumentID, content)
}

// Comments — текущие комментарии статьи в порядке создания.
func (s *Server) Comments(articleDocumentID string) []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.Comment(nil), s.comments[articleDocumentID]...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.hits[r.Method+" "+path]++
		hook := s.hook
		s.mu.Unlock()

		if hook != nil && hook(w, r) {
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+JWT {
			WriteError(w, http.StatusUnauthorized, "Missing or invalid credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("filters[title][$contains]")

	s.mu.Lock()
	var matched []models.Article
	for _, a := range s.articles {
		if term == "" || strings.Contains(a.Title, term) {
			matched = append(matched, a)
		}
	}
	s.mu.Unlock()

	writeList(w, q, matched)
}

func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.articleIndex(chi.URLParam(r, "id")); i >= 0 {
		writeItem(w, s.articles[i])
		return
	}
	WriteError(w, http.StatusNotFound, "Not Found")
}

type articleBody struct {
	Data models.ArticlePayload `json:"data"`
}

func (s *Server) createArticle(w http.ResponseWriter, r *http.Request) {
	var body articleBody
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := models.Article{ID: s.id(), CreatedAt: s.tick()}
	a.DocumentID = fmt.Sprintf("art-%d", a.ID)
	s.applyArticle(&a, body.Data)
	s.articles = append(s.articles, a)

	w.WriteHeader(http.StatusCreated)
	writeItem(w, a)
}

func (s *Server) updateArticle(w http.ResponseWriter, r *http.Request) {
	var body articleBody
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.articleIndex(chi.URLParam(r, "id"))
	if i < 0 {
		WriteError(w, http.StatusNotFound, "Not Found")
		return
	}

	s.applyArticle(&s.articles[i], body.Data)
	writeItem(w, s.articles[i])
}

func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.articleIndex(chi.URLParam(r, "id"))
	if i < 0 {
		WriteError(w, http.StatusNotFound, "Not Found")
		return
	}

	s.articles = append(s.articles[:i], s.articles[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := append([]models.Category(nil), s.categories...)
	s.mu.Unlock()

	writeList(w, r.URL.Query(), items)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.categoryIndex(chi.URLParam(r, "id")); i >= 0 {
		writeItem(w, s.categories[i])
		return
	}
	WriteError(w, http.StatusNotFound, "Not Found")
}

type categoryBody struct {
	Data models.CategoryPayload `json:"data"`
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == body.Data.Name {
			WriteError(w, http.StatusBadRequest, "This attribute must be unique")
			return
		}
	}

	c := models.Category{ID: s.id(), Name: body.Data.Name, Description: body.Data.Description, CreatedAt: s.tick()}
	c.DocumentID = fmt.Sprintf("cat-%d", c.ID)
	c.UpdatedAt = c.CreatedAt
	s.categories = append(s.categories, c)

	w.WriteHeader(http.StatusCreated)
	writeItem(w, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.categoryIndex(chi.URLParam(r, "id"))
	if i < 0 {
		WriteError(w, http.StatusNotFound, "Not Found")
		return
	}

	s.categories[i].Name = body.Data.Name
	s.categories[i].Description = body.Data.Description
	s.categories[i].UpdatedAt = s.tick()
	writeItem(w, s.categories[i])
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.categoryIndex(chi.URLParam(r, "id"))
	if i < 0 {
		WriteError(w, http.StatusNotFound, "Not Found")
		return
	}

	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	items := append([]models.Comment(nil), s.comments[q.Get("filters[article][documentId][$eq]")]...)
	s.mu.Unlock()

	if q.Get("sort") == "createdAt:desc" {
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	}

	writeList(w, q, items)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data models.CommentPayload `json:"data"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.articles {
		if a.ID == body.Data.Article {
			c := s.addComment(a.DocumentID, body.Data.Content)
			w.WriteHeader(http.StatusCreated)
			writeItem(w, c)
			return
		}
	}

	WriteError(w, http.StatusBadRequest, "Article not found")
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data models.CommentUpdate `json:"data"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for art, list := range s.comments {
		for i := range list {
			if list[i].DocumentID == id {
				s.comments[art][i].Content = body.Data.Content
				s.comments[art][i].UpdatedAt = s.tick()
				writeItem(w, s.comments[art][i])
				return
			}
		}
	}

	WriteError(w, http.StatusNotFound, "Not Found")
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for art, list := range s.comments {
		for i := range list {
			if list[i].DocumentID == id {
				s.comments[art] = append(list[:i], list[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
	}

	WriteError(w, http.StatusNotFound, "Not Found")
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var c models.Credentials
	if !decode(w, r, &c) {
		return
	}

	if (c.Identifier != Username && c.Identifier != Email) || c.Password != Password {
		WriteError(w, http.StatusBadRequest, "Invalid identifier or password")
		return
	}

	writeJSON(w, models.AuthResponse{JWT: JWT, User: user()})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if !decode(w, r, &reg) {
		return
	}

	if reg.Username == Username || reg.Email == Email {
		WriteError(w, http.StatusBadRequest, "Email or Username are already taken")
		return
	}

	writeJSON(w, models.AuthResponse{JWT: "jwt-" + reg.Username, User: &models.User{Username: reg.Username, Email: reg.Email}})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, user())
}

// WriteError — тело ошибки в формате CMS.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"status":  status,
			"name":    http.StatusText(status),
			"message": msg,
		},
	})
}

func user() *models.User {
	return &models.User{ID: 1, DocumentID: "usr-1", Username: Username, Email: Email, Confirmed: true}
}

func (s *Server) addComment(articleDocumentID, content string) models.Comment {
	c := models.Comment{ID: s.id(), Content: content, CreatedAt: s.tick()}
	c.DocumentID = fmt.Sprintf("cmt-%d", c.ID)
	c.UpdatedAt = c.CreatedAt
	s.comments[articleDocumentID] = append(s.comments[articleDocumentID], c)

	return c
}

func (s *Server) applyArticle(a *models.Article, p models.ArticlePayload) {
	a.Title = p.Title
	a.Description = p.Description
	a.CoverImageURL = p.CoverImageURL
	a.UpdatedAt = s.tick()
	a.Category = nil

	for _, c := range s.categories {
		if c.ID == p.Category {
			a.Category = &models.CategorySummary{ID: c.ID, DocumentID: c.DocumentID, Name: c.Name}
		}
	}
	if a.Category == nil && p.Category > 0 {
		a.Category = &models.CategorySummary{ID: p.Category}
	}
}

func (s *Server) articleIndex(id string) int {
	for i, a := range s.articles {
		if a.DocumentID == id {
			return i
		}
	}
	return -1
}

func (s *Server) categoryIndex(id string) int {
	for i, c := range s.categories {
		if c.DocumentID == id {
			return i
		}
	}
	return -1
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

// tick — монотонное время создания, чтобы сортировка по createdAt была детерминированной.
func (s *Server) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func writeList[T any](w http.ResponseWriter, q map[string][]string, items []T) {
	page := atoiDefault(first(q, "pagination[page]"), 1)
	size := atoiDefault(first(q, "pagination[pageSize]"), 25)

	total := len(items)
	pageCount := (total + size - 1) / size
	if pageCount == 0 {
		pageCount = 1
	}

	from := min((page-1)*size, total)
	to := min(from+size, total)

	data := append([]T{}, items[from:to]...)

	writeJSON(w, map[string]any{
		"data": data,
		"meta": map[string]any{
			"pagination": models.Pagination{Page: page, PageSize: size, PageCount: pageCount, Total: total},
		},
	})
}

func writeItem(w http.ResponseWriter, v any) {
	writeJSON(w, map[string]any{"data": v, "meta": map[string]any{}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func first(q map[string][]string, k string) string {
	if v := q[k]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
