// Package client is a Go client for the StockTrack API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redmonkez12/stocktrack-api/internal/audit"
	"github.com/redmonkez12/stocktrack-api/internal/auth"
	"github.com/redmonkez12/stocktrack-api/internal/product"
	"github.com/redmonkez12/stocktrack-api/internal/user"
)

// ErrUnauthorized is returned for every 401; the session has already been
// invalidated when a caller sees it.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New builds a client for baseURL (for example http://localhost:3001).
// A nil session gets a fresh one.
func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) Register(ctx context.Context, email, password string) (*user.User, error) {
	var out user.User
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", auth.CredentialsRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login stores the returned token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	var out auth.LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", auth.CredentialsRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	c.session.Set(out.Token)
	return &out, nil
}

// Logout forgets the token locally; tokens are not revoked server side.
func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) ResetPassword(ctx context.Context, email, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", auth.CredentialsRequest{Email: email, Password: password}, nil)
}

func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	var out product.Product
	if err := c.doJSON(ctx, http.MethodGet, productPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, in product.Input) (*product.Product, error) {
	var out product.Product
	if err := c.doJSON(ctx, http.MethodPost, "/api/products", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, in product.Input) (*product.Product, error) {
	var out product.Product
	if err := c.doJSON(ctx, http.MethodPut, productPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, productPath(id), nil, nil)
}

// UploadProductImage sends content as the product's image and returns its URL.
func (c *Client) UploadProductImage(ctx context.Context, id int64, filename, contentType string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out product.UploadResponse
	if err := c.do(ctx, http.MethodPost, productPath(id)+"/image", &buf, mw.FormDataContentType(), &out); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}

func (c *Client) ListLogs(ctx context.Context, take, skip int) ([]audit.Entry, error) {
	q := url.Values{}
	if take > 0 {
		q.Set("take", strconv.Itoa(take))
	}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}

	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []audit.Entry
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Invalidate()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return body.Error
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}

func productPath(id int64) string {
	return "/api/products/" + strconv.FormatInt(id, 10)
}
