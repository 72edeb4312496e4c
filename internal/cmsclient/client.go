// cmsclient — типизированная обёртка над REST API headless-CMS.
//
// Собирает запросы (base URL, query, bearer-токен, конверт {"data": ...}),
// классифицирует ошибки (транспорт / не-2xx / битый конверт) и проводит
// каждый запрос через цепочку transport: metadata -> rate limit -> logging -> metrics.
package cmsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pribylovaa/articles-cms/internal/cmsclient/transport"
)

// maxErrorBody — сколько байт тела не-2xx ответа читаем ради сообщения.
const maxErrorBody = 64 << 10

// Request — один вызов CMS.
type Request struct {
	Method string
	Path   string
	Query  Query
	// Token — сырой bearer-токен; пустой — анонимный запрос.
	Token string
	Body  any
	// Envelope — обернуть Body в {"data": Body} (write-запросы к коллекциям).
	// Эндпойнты /auth/* принимают тело без конверта.
	Envelope bool
}

// Client — HTTP-клиент CMS. Безопасен для конкурентного использования.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
	limiter    *rate.Limiter
	metrics    *transport.Metrics
}

// Option настраивает клиент.
type Option func(*options)

// WithHTTPClient — базовый *http.Client (например, из httptest.Server).
// Его Transport оборачивается цепочкой, сам клиент не модифицируется.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout — дедлайн на один запрос, если у контекста его ещё нет.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRateLimit — не больше rps запросов в секунду с запасом burst; rps <= 0 — без лимита.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithMetrics(m *transport.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New создаёт клиент. baseURL должен быть абсолютным (например, https://cms.example.com/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	const op = "cmsclient/New"

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute", op, baseURL)
	}

	o := options{
		httpClient: &http.Client{},
		timeout:    15 * time.Second,
	}
	for _, fn := range opts {
		fn(&o)
	}

	hc := *o.httpClient
	hc.Transport = transport.Chain(hc.Transport,
		transport.WithMetadata(o.userAgent),
		transport.RateLimit(o.limiter),
		transport.Logging(o.logger),
		o.metrics.Middleware(),
	)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &hc,
		timeout: o.timeout,
	}, nil
}

// Do выполняет запрос и декодирует 2xx-ответ в out (nil — тело не читается).
//
// Ошибки:
//   - ErrTransport — запрос не выполнен (в цепочке сохраняется исходная ошибка,
//     в т.ч. context.DeadlineExceeded/Canceled);
//   - *StatusError — не-2xx ответ;
//   - ErrMalformedResponse — 2xx, но тело не декодируется в ожидаемый конверт.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	const op = "cmsclient/Do"

	ctx, cancel := transport.WithDeadline(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		payload := req.Body
		if req.Envelope {
			payload = envelope{Data: req.Body}
		}

		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: marshal body: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.url(req), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s: %w", op, &StatusError{
			Status:  resp.StatusCode,
			Message: parseErrorMessage(b),
		})
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return fmt.Errorf("%s: %w", op, err)
		}

		// Обрыв соединения во время чтения тела — транспорт, а не формат.
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrTransport, ctx.Err())
		}

		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}

	return nil
}

func (c *Client) url(req Request) string {
	u := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if q := req.Query.Encode(); q != "" {
		u += "?" + q
	}
	return u
}
