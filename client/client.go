// Package client is a typed Go client for the SmartCal API.
//
// Authentication state lives in a Session value owned by the caller. Login
// and Signup return one, Logout clears it, and every authenticated call
// takes it explicitly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
)

// ErrNoSession is returned by authenticated calls made without a token.
var ErrNoSession = errors.New("client: not logged in")

// Client is a SmartCal API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for baseURL, e.g. "http://localhost:3001/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session is an authenticated identity. The zero value is logged out.
type Session struct {
	Token string
	User  *models.User
}

func (s *Session) LoggedIn() bool { return s != nil && s.Token != "" }

func (s *Session) clear() {
	s.Token = ""
	s.User = nil
}

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an API error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// do performs an authenticated request. A nil or logged out session fails
// with ErrNoSession before anything is sent.
func (c *Client) do(ctx context.Context, s *Session, method, path string, body, out any) error {
	if !s.LoggedIn() {
		return ErrNoSession
	}
	return c.send(ctx, s.Token, method, path, body, out)
}

// send performs a request and decodes a 2xx body into out (when non-nil).
// An empty token sends no Authorization header.
func (c *Client) send(ctx context.Context, token, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// ---------- Auth ----------

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (c *Client) Signup(ctx context.Context, in models.SignupInput) (*Session, error) {
	var out sessionResponse
	if err := c.send(ctx, "", http.MethodPost, "/auth/signup", in, &out); err != nil {
		return nil, err
	}
	return &Session{Token: out.Token, User: out.User}, nil
}

// Login accepts a username or an e-mail address.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	body := map[string]string{"username": identifier, "password": password}
	var out sessionResponse
	if err := c.send(ctx, "", http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &Session{Token: out.Token, User: out.User}, nil
}

// Logout revokes the token server side and clears the session. The
// session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context, s *Session) error {
	if !s.LoggedIn() {
		return ErrNoSession
	}
	err := c.do(ctx, s, http.MethodPost, "/auth/logout", nil, nil)
	s.clear()
	if IsStatus(err, http.StatusUnauthorized) {
		return nil
	}
	return err
}

// Verify refreshes s.User from the server.
func (c *Client) Verify(ctx context.Context, s *Session) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, s, http.MethodGet, "/auth/verify", nil, &out); err != nil {
		return nil, err
	}
	s.User = out.User
	return out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, s *Session, in models.ProfileInput) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, s, http.MethodPut, "/auth/profile", in, &out); err != nil {
		return nil, err
	}
	s.User = out.User
	return out.User, nil
}

// ---------- Meals ----------

type logsResponse struct {
	Logs []models.MealLog `json:"logs"`
}

type logResponse struct {
	Log *models.MealLog `json:"log"`
}

func (c *Client) ListMeals(ctx context.Context, s *Session) ([]models.MealLog, error) {
	var out logsResponse
	if err := c.do(ctx, s, http.MethodGet, "/meals", nil, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// ListMealsByDate takes inclusive YYYY-MM-DD bounds; empty means open.
func (c *Client) ListMealsByDate(ctx context.Context, s *Session, start, end string) ([]models.MealLog, error) {
	var out logsResponse
	if err := c.do(ctx, s, http.MethodGet, "/meals/by-date"+query("startDate", start, "endDate", end), nil, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

func (c *Client) GetMeal(ctx context.Context, s *Session, id string) (*models.MealLog, error) {
	var out logResponse
	if err := c.do(ctx, s, http.MethodGet, "/meals/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Log, nil
}

func (c *Client) CreateMeal(ctx context.Context, s *Session, in models.MealInput) (*models.MealLog, error) {
	var out logResponse
	if err := c.do(ctx, s, http.MethodPost, "/meals", in, &out); err != nil {
		return nil, err
	}
	return out.Log, nil
}

func (c *Client) UpdateMeal(ctx context.Context, s *Session, id string, p models.MealPatch) (*models.MealLog, error) {
	var out logResponse
	if err := c.do(ctx, s, http.MethodPut, "/meals/"+url.PathEscape(id), p, &out); err != nil {
		return nil, err
	}
	return out.Log, nil
}

func (c *Client) DeleteMeal(ctx context.Context, s *Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/meals/"+url.PathEscape(id), nil, nil)
}

// ---------- Stats ----------

func (c *Client) DailyStats(ctx context.Context, s *Session, start, end string) ([]models.DailyStat, error) {
	var out struct {
		Stats []models.DailyStat `json:"stats"`
	}
	if err := c.do(ctx, s, http.MethodGet, "/stats/daily"+query("startDate", start, "endDate", end), nil, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

func (c *Client) WeeklyStats(ctx context.Context, s *Session, startWeek, endWeek string) ([]models.WeeklyStat, error) {
	var out struct {
		Stats []models.WeeklyStat `json:"stats"`
	}
	if err := c.do(ctx, s, http.MethodGet, "/stats/weekly"+query("startWeek", startWeek, "endWeek", endWeek), nil, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

// RefreshStats asks the server to recompute the caller's rollups.
func (c *Client) RefreshStats(ctx context.Context, s *Session) error {
	return c.do(ctx, s, http.MethodPost, "/stats/update", nil, nil)
}

// ---------- AI ----------

func (c *Client) ParseText(ctx context.Context, s *Session, text string) (*models.TextEstimate, error) {
	var out models.TextEstimate
	if err := c.do(ctx, s, http.MethodPost, "/ai/parse-text", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Insights(ctx context.Context, s *Session) (*models.Insight, error) {
	var out models.Insight
	if err := c.do(ctx, s, http.MethodGet, "/ai/insights", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// query builds "?k=v&..." from pairs, skipping empty values.
func query(pairs ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			v.Set(pairs[i], pairs[i+1])
		}
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
