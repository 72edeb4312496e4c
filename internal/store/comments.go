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
	OpFetchComments = "fetch_comments"
	OpAddComment    = "add_comment"
	OpUpdateComment = "update_comment"
	OpDeleteComment = "delete_comment"
)

const keyThread = "thread"

// Phase — состояние панели треда.
type Phase string

const (
	PhaseClosed  Phase = "closed"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseErrored Phase = "errored"
)

// CommentsState — снапшот Comment-стора.
type CommentsState struct {
	// OpenArticleID — documentId статьи с открытой панелью; "" — панель закрыта.
	OpenArticleID string `json:"open_article_id"`
	// CurrentArticleID — тред, который перечитывается после update/delete.
	CurrentArticleID string            `json:"current_article_id"`
	Phase            Phase             `json:"phase"`
	Comments         []models.Comment  `json:"comments"`
	Loading          bool              `json:"loading"`
	Error            string            `json:"error,omitempty"`
	Ops              map[string]Status `json:"ops"`
}

// Comments — стор комментариев. Открыта не больше одной панели треда:
// открытие новой закрывает предыдущую.
type Comments struct {
	client   Doer
	tokens   Tokens
	notifier notify.Notifier
	track    *Tracker

	mu       sync.RWMutex
	open     string
	current  string
	phase    Phase
	comments []models.Comment
}

func NewComments(client Doer, tokens Tokens, notifier notify.Notifier) *Comments {
	if notifier == nil {
		notifier = notify.Discard{}
	}

	return &Comments{
		client:   client,
		tokens:   tokens,
		notifier: notifier,
		track:    NewTracker(),
		phase:    PhaseClosed,
		comments: []models.Comment{},
	}
}

func (s *Comments) Snapshot() CommentsState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return CommentsState{
		OpenArticleID:    s.open,
		CurrentArticleID: s.current,
		Phase:            s.phase,
		Comments:         append([]models.Comment{}, s.comments...),
		Loading:          s.track.Loading(),
		Error:            s.track.Error(),
		Ops:              s.track.Ops(),
	}
}

// OpenThread открывает панель треда статьи, закрывая предыдущую, и грузит комментарии.
func (s *Comments) OpenThread(ctx context.Context, articleDocumentID string) error {
	s.mu.Lock()
	if s.open != articleDocumentID {
		// Прежний тред больше не цель refetch, даже если загрузка нового упадёт.
		s.comments = []models.Comment{}
		s.current = articleDocumentID
	}
	s.mu.Unlock()

	return s.FetchComments(ctx, articleDocumentID)
}

// CloseThread закрывает панель; ответ запроса в полёте будет отброшен.
func (s *Comments) CloseThread() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.track.Issue(keyThread)
	s.open = ""
	s.current = ""
	s.phase = PhaseClosed
	s.comments = []models.Comment{}
}

// FetchComments грузит тред статьи (новые сверху) и делает его активным.
// Ошибка: список пустой, фаза errored.
func (s *Comments) FetchComments(ctx context.Context, articleDocumentID string) error {
	const op = "store/Comments.FetchComments"

	s.track.Begin(OpFetchComments)

	s.mu.Lock()
	token := s.track.Issue(keyThread)
	s.open = articleDocumentID
	s.phase = PhaseLoading
	s.mu.Unlock()

	var list cmsclient.List[models.Comment]
	err := s.client.Do(ctx, cmsclient.Request{
		Method: http.MethodGet,
		Path:   "/comments",
		Query: cmsclient.NewQuery().
			ArticleDocumentID(articleDocumentID).
			Sort("createdAt:desc").
			Populate("*"),
		Token: s.tokens.Token(ctx),
	}, &list)

	s.mu.Lock()
	if !s.track.Current(keyThread, token) {
		s.mu.Unlock()
		s.track.Drop(OpFetchComments)
		return fmt.Errorf("%s: %w", op, ErrSuperseded)
	}

	if err != nil {
		s.comments = []models.Comment{}
		s.phase = PhaseErrored
		s.mu.Unlock()

		return s.fail(ctx, op, OpFetchComments, describe("fetch comments", err), err)
	}

	s.comments = list.Data
	s.current = articleDocumentID
	s.phase = PhaseLoaded
	s.mu.Unlock()

	s.track.End(OpFetchComments, "")
	log.Op(ctx, op).Debug("comments_fetched", "article_document_id", articleDocumentID, "count", len(list.Data))

	return nil
}

// AddComment — POST /comments со ссылкой на числовой ID статьи,
// затем перечитывается тред articleDocumentID.
func (s *Comments) AddComment(ctx context.Context, content string, articleID int64, articleDocumentID string) error {
	const op = "store/Comments.AddComment"

	if err := validation.Comment(content); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, OpAddComment, "Failed to add comment", "Comment added successfully!",
		cmsclient.Request{
			Method:   http.MethodPost,
			Path:     "/comments",
			Body:     models.CommentPayload{Content: content, Article: articleID},
			Envelope: true,
		},
		func() string { return articleDocumentID })
}

// UpdateComment — PUT /comments/{documentId}; перечитывается активный тред,
// а не тред, которому принадлежит комментарий.
func (s *Comments) UpdateComment(ctx context.Context, commentID, content string) error {
	const op = "store/Comments.UpdateComment"

	if err := validation.Comment(content); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, OpUpdateComment, "Failed to update comment", "Comment updated successfully!",
		cmsclient.Request{
			Method:   http.MethodPut,
			Path:     "/comments/" + url.PathEscape(commentID),
			Body:     models.CommentUpdate{Content: content},
			Envelope: true,
		},
		s.currentThread)
}

// DeleteComment — DELETE /comments/{documentId}; перечитывается активный тред.
func (s *Comments) DeleteComment(ctx context.Context, commentID string) error {
	const op = "store/Comments.DeleteComment"

	return s.write(ctx, op, OpDeleteComment, "Failed to delete comment", "Comment deleted successfully!",
		cmsclient.Request{Method: http.MethodDelete, Path: "/comments/" + url.PathEscape(commentID)},
		s.currentThread)
}

// write — мутация; refetchOf вызывается после успеха и возвращает тред для
// перечитывания ("" — активного треда нет, refetch пропускается).
func (s *Comments) write(ctx context.Context, op, opName, fallback, success string, req cmsclient.Request, refetchOf func() string) error {
	s.track.Begin(opName)

	req.Token = s.tokens.Token(ctx)
	if req.Token == "" {
		return s.fail(ctx, op, opName, fallback+": you must be signed in", ErrUnauthorized)
	}

	if err := s.client.Do(ctx, req, nil); err != nil {
		return s.fail(ctx, op, opName, describeServer(fallback, err), err)
	}

	s.track.End(opName, "")
	s.notifier.Success(ctx, success)

	thread := refetchOf()
	if thread == "" {
		return nil
	}

	if err := s.FetchComments(ctx, thread); err != nil && !errors.Is(err, ErrSuperseded) {
		log.Op(ctx, op).Warn("comments_refetch_failed", "err", err)
	}

	return nil
}

func (s *Comments) currentThread() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

func (s *Comments) fail(ctx context.Context, op, opName, msg string, err error) error {
	s.track.End(opName, msg)
	s.notifier.Error(ctx, msg)
	log.Op(ctx, op).Warn("comment_op_failed", "err", err)

	return fmt.Errorf("%s: %w", op, err)
}
