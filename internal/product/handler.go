package product

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/redmonkez12/stocktrack-api/internal/audit"
	"github.com/redmonkez12/stocktrack-api/internal/auth"
	"github.com/redmonkez12/stocktrack-api/internal/httputil"
	"github.com/redmonkez12/stocktrack-api/internal/logging"
	"github.com/redmonkez12/stocktrack-api/internal/storage"
)

// multipartOverhead is what the form encoding may add on top of the file itself.
const multipartOverhead = 1 << 20

// Store is the persistence the handlers need.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, in Input) (*Product, error)
	Update(ctx context.Context, id int64, in Input) (*Product, error)
	SetImageURL(ctx context.Context, id int64, url string) (*Product, error)
	Delete(ctx context.Context, id int64) (*Product, error)
}

// AuditRecorder accepts audit entries without reporting failures back.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Handler contains HTTP handlers for the product catalog
type Handler struct {
	products       Store
	objects        storage.ObjectStore
	recorder       AuditRecorder
	validate       *validator.Validate
	maxUploadBytes int64
	now            func() time.Time
}

func NewHandler(products Store, objects storage.ObjectStore, recorder AuditRecorder, maxUploadBytes int64) *Handler {
	return &Handler{
		products:       products,
		objects:        objects,
		recorder:       recorder,
		validate:       newValidator(),
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// UploadResponse is returned after an image upload
type UploadResponse struct {
	OK       bool   `json:"ok"`
	ImageURL string `json:"imageUrl"`
}

// List returns all products
// @Summary      List products
// @Tags         products
// @Produce      json
// @Success      200 {array} Product
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /products [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to list products", "error", err.Error())
		httputil.RespondError(w, httputil.MsgInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, products, http.StatusOK)
}

// Get returns a single product
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path int true "Product ID"
// @Success      200 {object} Product
// @Failure      400 {object} httputil.ErrorResponse "Invalid id"
// @Failure      404 {object} httputil.ErrorResponse "Product not found"
// @Router       /products/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, "get product", err)
		return
	}

	httputil.RespondJSON(w, p, http.StatusOK)
}

// Create adds a product
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Input true "Product"
// @Success      201 {object} Product
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      409 {object} httputil.ErrorResponse "Duplicate SKU"
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /products [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	p, err := h.products.Create(r.Context(), in)
	if err != nil {
		h.respondStoreError(w, r, "create product", err)
		return
	}

	h.record(r, audit.ActionProductCreate, p.ID, in.Fields())

	logging.GetLoggerFromContext(r.Context()).Info("product created", "product_id", p.ID)
	httputil.RespondJSON(w, p, http.StatusCreated)
}

// Update replaces a product's fields
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Product ID"
// @Param        request body Input true "Product"
// @Success      200 {object} Product
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "Product not found"
// @Failure      409 {object} httputil.ErrorResponse "Duplicate SKU"
// @Router       /products/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	p, err := h.products.Update(r.Context(), id, in)
	if err != nil {
		h.respondStoreError(w, r, "update product", err)
		return
	}

	h.record(r, audit.ActionProductUpdate, p.ID, in.Fields())

	logging.GetLoggerFromContext(r.Context()).Info("product updated", "product_id", p.ID)
	httputil.RespondJSON(w, p, http.StatusOK)
}

// Delete removes a product
// @Summary      Delete a product
// @Tags         products
// @Security     BearerAuth
// @Param        id path int true "Product ID"
// @Success      204
// @Failure      400 {object} httputil.ErrorResponse "Invalid id"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "Product not found"
// @Router       /products/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.products.Delete(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, "delete product", err)
		return
	}

	h.record(r, audit.ActionProductDelete, p.ID, map[string]any{"name": p.Name, "sku": p.SKU})

	logging.GetLoggerFromContext(r.Context()).Info("product deleted", "product_id", p.ID)
	httputil.RespondNoContent(w)
}

// UploadImage stores an image for a product and links it
// @Summary      Upload a product image
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Product ID"
// @Param        file formData file true "Image file"
// @Success      200 {object} UploadResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid id, missing file, not an image or too large"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "Product not found"
// @Failure      500 {object} httputil.ErrorResponse "Upload failed"
// @Router       /products/{id}/image [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := productID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondErrorWithCode(w, "file too large", httputil.CodeFileTooLarge, http.StatusBadRequest)
			return
		}
		httputil.RespondErrorWithCode(w, "file is required", httputil.CodeFileRequired, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		httputil.RespondErrorWithCode(w, "file too large", httputil.CodeFileTooLarge, http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		httputil.RespondErrorWithCode(w, "Only image files are allowed", httputil.CodeUnsupportedFileType, http.StatusBadRequest)
		return
	}

	if _, err := h.products.GetByID(r.Context(), id); err != nil {
		h.respondStoreError(w, r, "get product", err)
		return
	}

	key := storage.ProductImageKey(id, header.Filename, h.now())
	url, err := h.objects.PutObject(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		logger.Error("image upload failed", "product_id", id, "key", key, "error", err.Error())
		httputil.RespondErrorWithCode(w, "upload failed", httputil.CodeUploadFailed, http.StatusInternalServerError)
		return
	}

	p, err := h.products.SetImageURL(r.Context(), id, url)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to link uploaded image", "product_id", id, "error", err.Error())
		httputil.RespondErrorWithCode(w, "upload failed", httputil.CodeUploadFailed, http.StatusInternalServerError)
		return
	}

	h.record(r, audit.ActionProductUpload, p.ID, map[string]any{"imageUrl": url, "key": key})

	logger.Info("product image uploaded", "product_id", p.ID, "key", key)
	httputil.RespondJSON(w, UploadResponse{OK: true, ImageURL: url}, http.StatusOK)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logging.GetLoggerFromContext(r.Context()).Warn("invalid product request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, httputil.MsgInvalidRequestBody, httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return in, false
	}

	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)

	if err := h.validate.Struct(in); err != nil {
		httputil.RespondErrorWithCode(w, validationMessage(err), httputil.CodeValidationFailed, http.StatusBadRequest)
		return in, false
	}

	return in, true
}

func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrDuplicateSKU):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeDuplicateSKU, http.StatusConflict)
	default:
		logging.GetLoggerFromContext(r.Context()).Error("failed to "+op, "error", err.Error())
		httputil.RespondError(w, httputil.MsgInternalError, http.StatusInternalServerError)
	}
}

// record runs after the write succeeded; its outcome never reaches the response.
func (h *Handler) record(r *http.Request, action string, id int64, payload map[string]any) {
	h.recorder.Record(r.Context(), audit.NewEntry(auth.ActorFromContext(r.Context()), action, audit.EntityProduct, id, payload))
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondError(w, httputil.MsgInvalidID, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
