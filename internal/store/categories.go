package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/pribylovaa/articles-cms/internal/cmsclient"
	"github.com/pribylovaa/articles-cms/internal/models"
	"github.com/pribylovaa/articles-cms/internal/notify"
	"github.com/pribylovaa/articles-cms/internal/pkg/log"
	"github.com/pribylovaa/articles-cms/internal/validation"
)

const (
	OpFetchCategories = "fetch_categories"
	OpFetchCategory   = "fetch_category"
	OpCreateCategory  = "create_category"
	OpEditCategory    = "edit_category"
	OpDeleteCategory  = "delete_category"
)

const (
	keyCategoryList   = "categories"
	keyCategoryDetail = "category"
)

// CategoriesState — снапшот Category-стора.
type CategoriesState struct {
	Categories []models.Category `json:"categories"`
	Pagination models.Pagination `json:"pagination"`
	Selected   *models.Category  `json:"selected"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
	Ops        map[string]Status `json:"ops"`
}

// Categories — стор категорий. Detail всегда идёт в сеть.
type Categories struct {
	client   Doer
	tokens   Tokens
	notifier notify.Notifier
	track    *Tracker

	mu         sync.RWMutex
	categories []models.Category
	pagination models.Pagination
	// cursor — последний успешно загруженный курсор; до первой загрузки 1/10.
	page, pageSize int
	selected       *models.Category
}

func NewCategories(client Doer, tokens Tokens, notifier notify.Notifier) *Categories {
	if notifier == nil {
		notifier = notify.Discard{}
	}

	categories, pagination := emptyList[models.Category](DefaultPageSize)

	return &Categories{
		client:     client,
		tokens:     tokens,
		notifier:   notifier,
		track:      NewTracker(),
		categories: categories,
		pagination: pagination,
		page:       DefaultPage,
		pageSize:   DefaultPageSize,
	}
}

func (s *Categories) Snapshot() CategoriesState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := CategoriesState{
		Categories: append([]models.Category{}, s.categories...),
		Pagination: s.pagination,
		Loading:    s.track.Loading(),
		Error:      s.track.Error(),
		Ops:        s.track.Ops(),
	}
	if s.selected != nil {
		sel := *s.selected
		st.Selected = &sel
	}

	return st
}

// FetchCategories — как FetchArticles, без поиска и токена.
func (s *Categories) FetchCategories(ctx context.Context, page, pageSize int) error {
	const op = "store/Categories.FetchCategories"

	page, pageSize = normalizeCursor(page, pageSize)

	token := s.track.Issue(keyCategoryList)
	s.track.Begin(OpFetchCategories)

	var list cmsclient.List[models.Category]
	err := s.client.Do(ctx, cmsclient.Request{
		Method: http.MethodGet,
		Path:   "/categories",
		Query:  cmsclient.NewQuery().Page(page, pageSize),
	}, &list)

	s.mu.Lock()
	if !s.track.Current(keyCategoryList, token) {
		s.mu.Unlock()
		s.track.Drop(OpFetchCategories)
		return fmt.Errorf("%s: %w", op, ErrSuperseded)
	}

	if err != nil {
		s.categories, s.pagination = emptyList[models.Category](pageSize)
		s.mu.Unlock()

		return s.fail(ctx, op, OpFetchCategories, "fetch categories", err)
	}

	s.categories = list.Data
	s.pagination = list.Pagination
	s.page, s.pageSize = normalizeCursor(list.Pagination.Page, list.Pagination.PageSize)
	s.mu.Unlock()

	s.track.End(OpFetchCategories, "")
	log.Op(ctx, op).Debug("categories_fetched", "page", list.Pagination.Page, "count", len(list.Data))

	return nil
}

// FetchDetailCategory — GET /categories/{documentId}; результат пишется
// в selected и возвращается вызывающему. Ошибка сбрасывает selected.
func (s *Categories) FetchDetailCategory(ctx context.Context, documentID string) (models.Category, error) {
	const op = "store/Categories.FetchDetailCategory"

	token := s.track.Issue(keyCategoryDetail)
	s.track.Begin(OpFetchCategory)

	var item cmsclient.Item[models.Category]
	err := s.client.Do(ctx, cmsclient.Request{
		Method: http.MethodGet,
		Path:   "/categories/" + url.PathEscape(documentID),
		Token:  s.tokens.Token(ctx),
	}, &item)

	s.mu.Lock()
	if !s.track.Current(keyCategoryDetail, token) {
		s.mu.Unlock()
		s.track.Drop(OpFetchCategory)
		return models.Category{}, fmt.Errorf("%s: %w", op, ErrSuperseded)
	}

	if err != nil {
		s.selected = nil
		s.mu.Unlock()

		return models.Category{}, s.fail(ctx, op, OpFetchCategory, "fetch category", err)
	}

	c := item.Data
	s.selected = &c
	s.mu.Unlock()

	s.track.End(OpFetchCategory, "")

	return c, nil
}

func (s *Categories) CreateCategory(ctx context.Context, p models.CategoryPayload) error {
	const op = "store/Categories.CreateCategory"

	if err := validation.Category(p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, OpCreateCategory, "create category", "Category created successfully", "",
		cmsclient.Request{Method: http.MethodPost, Path: "/categories", Body: p, Envelope: true})
}

func (s *Categories) EditCategory(ctx context.Context, documentID string, p models.CategoryPayload) error {
	const op = "store/Categories.EditCategory"

	if err := validation.Category(p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, OpEditCategory, "update category", "Category updated successfully", documentID,
		cmsclient.Request{Method: http.MethodPut, Path: "/categories/" + url.PathEscape(documentID), Body: p, Envelope: true})
}

func (s *Categories) DeleteCategory(ctx context.Context, documentID string) error {
	const op = "store/Categories.DeleteCategory"

	return s.write(ctx, op, OpDeleteCategory, "delete category", "Category deleted successfully", documentID,
		cmsclient.Request{Method: http.MethodDelete, Path: "/categories/" + url.PathEscape(documentID)})
}

// write — мутация с последующим refetch по последнему курсору.
func (s *Categories) write(ctx context.Context, op, opName, action, success, target string, req cmsclient.Request) error {
	s.track.Begin(opName)

	req.Token = s.tokens.Token(ctx)
	if req.Token == "" {
		return s.fail(ctx, op, opName, action, ErrUnauthorized)
	}

	if err := s.client.Do(ctx, req, nil); err != nil {
		return s.fail(ctx, op, opName, action, err)
	}

	s.mu.Lock()
	if target != "" && s.selected != nil && s.selected.DocumentID == target {
		s.selected = nil
	}
	page, pageSize := s.page, s.pageSize
	s.mu.Unlock()

	s.track.End(opName, "")
	s.notifier.Success(ctx, success)

	if err := s.FetchCategories(ctx, page, pageSize); err != nil && !errors.Is(err, ErrSuperseded) {
		log.Op(ctx, op).Warn("category_refetch_failed", "err", err)
	}

	return nil
}

func (s *Categories) fail(ctx context.Context, op, opName, action string, err error) error {
	msg := describe(action, err)
	s.track.End(opName, msg)
	s.notifier.Error(ctx, msg)
	log.Op(ctx, op).Warn("category_op_failed", "err", err)

	return fmt.Errorf("%s: %w", op, err)
}
