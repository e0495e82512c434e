package product

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/stocktrack-api/internal/audit"
	"github.com/redmonkez12/stocktrack-api/internal/auth"
	"github.com/redmonkez12/stocktrack-api/internal/database/dbtest"
)

type fakeObjects struct {
	keys []string
	body []byte
	err  error
}

func (f *fakeObjects) PutObject(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.body, _ = io.ReadAll(body)
	return "http://objects.test/bucket/" + key, nil
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureRecorder) Record(_ context.Context, entry audit.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

type fixture struct {
	router   http.Handler
	repo     *Repository
	objects  *fakeObjects
	recorder *captureRecorder
}

const actorID int64 = 7

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := NewRepository(dbtest.New(t))
	objects := &fakeObjects{}
	recorder := &captureRecorder{}
	h := NewHandler(repo, objects, recorder, 1024)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), actorID)))
		})
	})
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Get)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	r.Post("/products/{id}/image", h.UploadImage)

	return &fixture{router: r, repo: repo, objects: objects, recorder: recorder}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) upload(path, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, _ := mw.CreatePart(header)
	_, _ = part.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateAndAudit(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/products", `{"name":"Widget","sku":"W-1","price":9.5,"stock":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Widget", p.Name)

	require.Len(t, f.recorder.entries, 1)
	e := f.recorder.entries[0]
	assert.Equal(t, audit.ActionProductCreate, e.Action)
	assert.Equal(t, actorID, *e.UserID)
	assert.Equal(t, "product", *e.Entity)
	assert.Equal(t, p.ID, *e.EntityID)
	assert.Equal(t, map[string]any{"name": "Widget", "sku": "W-1", "price": 9.5, "stock": 3}, e.Payload)
}

func TestHandler_CreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name, body, want string
	}{
		{"missing name", `{"sku":"W-1","price":1}`, "name is required"},
		{"blank sku", `{"name":"W","sku":"  ","price":1}`, "sku is required"},
		{"zero price", `{"name":"W","sku":"W-1","price":0}`, "price must be greater than 0"},
		{"negative stock", `{"name":"W","sku":"W-1","price":1,"stock":-1}`, "stock must be at least 0"},
		{"bad json", `{`, "invalid request body"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/products", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
	assert.Empty(t, f.recorder.entries, "rejected writes are not audited")
}

func TestHandler_DuplicateSKU(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/products", `{"name":"A","sku":"S","price":1}`).Code)
	rec := f.do(http.MethodPost, "/products", `{"name":"B","sku":"S","price":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, f.recorder.entries, 1)
}

func TestHandler_GetUpdateDelete(t *testing.T) {
	f := newFixture(t)
	created, err := f.repo.Create(context.Background(), Input{Name: "A", SKU: "S", Price: 1})
	require.NoError(t, err)
	path := "/products/" + itoa(created.ID)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/products/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/products/999", "").Code)

	rec := f.do(http.MethodPut, path, `{"name":"B","sku":"S2","price":2,"stock":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sku":"S2"`)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPut, "/products/999", `{"name":"B","sku":"S3","price":2}`).Code)

	rec = f.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, path, "").Code)

	rec = f.do(http.MethodGet, "/products", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	var actions []string
	for _, e := range f.recorder.entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{audit.ActionProductUpdate, audit.ActionProductDelete}, actions)
}

func TestHandler_UploadImage(t *testing.T) {
	f := newFixture(t)
	created, err := f.repo.Create(context.Background(), Input{Name: "A", SKU: "S", Price: 1})
	require.NoError(t, err)
	path := "/products/" + itoa(created.ID) + "/image"

	rec := f.upload(path, "photo.png", "image/png", []byte("fake png"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.Len(t, f.objects.keys, 1)
	assert.Equal(t, "http://objects.test/bucket/"+f.objects.keys[0], resp.ImageURL)
	assert.True(t, strings.HasPrefix(f.objects.keys[0], "products/"+itoa(created.ID)+"/"))
	assert.True(t, strings.HasSuffix(f.objects.keys[0], ".png"))
	assert.Equal(t, "fake png", string(f.objects.body))

	stored, err := f.repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ImageURL, *stored.ImageURL)

	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, audit.ActionProductUpload, f.recorder.entries[0].Action)
}

func TestHandler_UploadImageRejections(t *testing.T) {
	f := newFixture(t)
	created, err := f.repo.Create(context.Background(), Input{Name: "A", SKU: "S", Price: 1})
	require.NoError(t, err)
	path := "/products/" + itoa(created.ID) + "/image"

	assert.Equal(t, http.StatusBadRequest, f.upload("/products/x/image", "a.png", "image/png", []byte("x")).Code)
	assert.Equal(t, http.StatusNotFound, f.upload("/products/999/image", "a.png", "image/png", []byte("x")).Code)

	rec := f.upload(path, "a.txt", "text/plain", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only image files are allowed")

	rec = f.upload(path, "big.png", "image/png", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file too large")

	rec = f.do(http.MethodPost, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file is required")

	f.objects.err = errors.New("minio down")
	rec = f.upload(path, "a.png", "image/png", []byte("x"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"upload failed","code":"UPLOAD_FAILED"}`, rec.Body.String())

	assert.Empty(t, f.recorder.entries)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
