package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"setquiz/internal/domain"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: status %d", e.Code)
	}
	return fmt.Sprintf("remote: status %d: %s", e.Code, e.Message)
}

// Unwrap maps well-known statuses onto domain errors.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrQuestionNotFound
	}
	return nil
}

// Client talks to the question bank over JSON/HTTP. It serves as the
// question source, verifier, hint and explanation services of a quiz.
type Client struct {
	base    *url.URL
	token   string
	timeout time.Duration
	HTTP    *http.Client
}

type Option func(*Client)

// WithToken sets the bearer token sent with privileged requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTP = hc }
}

// WithTimeout bounds every request. The client passed to WithHTTPClient is
// left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse services url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("services url %q must be absolute", baseURL)
	}
	c := &Client{base: u, timeout: 15 * time.Second, HTTP: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	if c.HTTP.Timeout != c.timeout {
		hc := *c.HTTP
		hc.Timeout = c.timeout
		c.HTTP = &hc
	}
	return c, nil
}

type questionsResponse struct {
	Questions []domain.Question `json:"questions"`
}

func (c *Client) FetchQuestions(ctx context.Context, difficulty, count int) ([]domain.Question, error) {
	q := url.Values{}
	q.Set("difficulty", strconv.Itoa(difficulty))
	q.Set("limit", strconv.Itoa(count))
	var out questionsResponse
	if err := c.do(ctx, http.MethodGet, "/questions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) FetchQuestion(ctx context.Context, id int) (domain.Question, error) {
	var out domain.Question
	if err := c.do(ctx, http.MethodGet, "/questions/"+strconv.Itoa(id), nil, &out); err != nil {
		return domain.Question{}, err
	}
	return out, nil
}

func (c *Client) Verify(ctx context.Context, questionID int, answer string) (bool, error) {
	in := struct {
		QuestionID int    `json:"questionId"`
		Answer     string `json:"answer"`
	}{questionID, answer}
	var out struct {
		Correct bool `json:"correct"`
	}
	if err := c.do(ctx, http.MethodPost, "/verify", in, &out); err != nil {
		return false, err
	}
	return out.Correct, nil
}

func (c *Client) Hint(ctx context.Context, questionID int, text string) (string, error) {
	in := struct {
		QuestionID int    `json:"questionId"`
		Text       string `json:"text"`
	}{questionID, text}
	var out struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, http.MethodPost, "/hint", in, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *Client) Explain(ctx context.Context, questionID int) (string, error) {
	in := struct {
		QuestionID int `json:"questionId"`
	}{questionID}
	var out struct {
		Explanation string `json:"explanation"`
	}
	if err := c.do(ctx, http.MethodPost, "/explanation", in, &out); err != nil {
		return "", err
	}
	return out.Explanation, nil
}

// PostQuestions submits a batch for storage. It needs an administrator token;
// without one it fails before touching the network.
func (c *Client) PostQuestions(ctx context.Context, batch []domain.NewQuestion) ([]domain.Question, error) {
	if c.token == "" {
		return nil, domain.ErrUnauthorized
	}
	in := struct {
		Questions []domain.NewQuestion `json:"questions"`
	}{batch}
	var out questionsResponse
	if err := c.do(ctx, http.MethodPost, "/questions/batch", in, &out, c.bearer); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) bearer(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, decorate ...func(*http.Request)) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, d := range decorate {
		d(req)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusErr(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func statusErr(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
