package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/product_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/product_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/product_catalog/internal/domain"
	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
	"github.com/Pesokrava/product_catalog/internal/pkg/validator"
	"github.com/Pesokrava/product_catalog/internal/usecase/product"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *product.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *product.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// CreateProductRequest represents the request body for creating a product.
// Reviews and supplier are checked by the catalog rules, not here.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"notblank"`
	Description string           `json:"description,omitempty"`
	Price       *float64         `json:"price" validate:"required,gt=0"`
	Category    string           `json:"category,omitempty"`
	Stock       *int             `json:"stock" validate:"required,gte=0"`
	Brand       string           `json:"brand,omitempty"`
	Reviews     []*domain.Review `json:"reviews,omitempty"`
	Supplier    *domain.Supplier `json:"supplier,omitempty"`
}

// UpdateProductRequest represents the request body for updating a product.
// Only these fields are copied onto the stored product.
type UpdateProductRequest struct {
	Name        string   `json:"name" validate:"notblank"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price" validate:"required,gt=0"`
	Category    string   `json:"category,omitempty"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
}

func (req *CreateProductRequest) toDomain() *domain.Product {
	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Stock:       *req.Stock,
		Brand:       req.Brand,
		Reviews:     req.Reviews,
		Supplier:    req.Supplier,
	}
}

func (req *UpdateProductRequest) toDomain() *domain.Product {
	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Stock:       *req.Stock,
	}
}

// GetAll handles GET /api/v1/products
// @Summary List all products
// @Description Get every product in the catalog
// @Tags Products
// @Produce json
// @Success 200 {object} map[string]interface{} "List of products"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [get]
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetAll(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, products)
}

// GetByID handles GET /api/v1/products/{id}
// @Summary Get a product by ID
// @Description Get a product with its reviews, supplier and rating summary
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{} "Product details"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, p)
}

// Create handles POST /api/v1/products
// @Summary Create a new product
// @Description Create a product. Review ids, timestamps and rating summary are assigned by the server.
// @Tags Products
// @Accept json
// @Produce json
// @Param product body CreateProductRequest true "Product details"
// @Success 201 {object} map[string]interface{} "Product created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 409 {object} map[string]string "Product name already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Get().Struct(&req); err != nil {
		response.ValidationError(w, "Validation failed", validator.Messages(err))
		return
	}

	created, err := h.service.Create(r.Context(), req.toDomain())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, created)
}

// Update handles PUT /api/v1/products/{id}
// @Summary Update a product
// @Description Overwrite name, description, price, category and stock of a product
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body UpdateProductRequest true "Updated product details"
// @Success 200 {object} map[string]interface{} "Product updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 409 {object} map[string]string "Product name already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Get().Struct(&req); err != nil {
		response.ValidationError(w, "Validation failed", validator.Messages(err))
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.toDomain())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, updated)
}

// Delete handles DELETE /api/v1/products/{id}
// @Summary Delete a product
// @Description Delete a product. Deleting an unknown id also succeeds.
// @Tags Products
// @Param id path string true "Product ID"
// @Success 204 "Product deleted successfully"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetStringParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// Search handles GET /api/v1/products/search
// @Summary Search products by name
// @Description Case-sensitive substring match on the product name
// @Tags Products
// @Produce json
// @Param name query string true "Name fragment"
// @Success 200 {object} map[string]interface{} "Matching products"
// @Failure 400 {object} map[string]string "Missing name"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/search [get]
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	name, ok := r.URL.Query()["name"]
	if !ok || len(name) == 0 {
		response.Error(w, http.StatusBadRequest, "Missing query parameter: name")
		return
	}

	products, err := h.service.Search(r.Context(), name[0])
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, products)
}

// ByCategory handles GET /api/v1/products/category/{category}
// @Summary List products in a category
// @Tags Products
// @Produce json
// @Param category path string true "Category"
// @Success 200 {object} map[string]interface{} "Products in the category"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/category/{category} [get]
func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := request.GetStringParam(r, "category")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category")
		return
	}

	products, err := h.service.ByCategory(r.Context(), category)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, products)
}

// ByPriceRange handles GET /api/v1/products/price-range
// @Summary List products within a price range
// @Description Inclusive on both bounds
// @Tags Products
// @Produce json
// @Param minPrice query number true "Lower bound"
// @Param maxPrice query number true "Upper bound"
// @Success 200 {object} map[string]interface{} "Products in range"
// @Failure 400 {object} map[string]string "Invalid range"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/price-range [get]
func (h *ProductHandler) ByPriceRange(w http.ResponseWriter, r *http.Request) {
	minPrice, err := request.GetFloatQuery(r, "minPrice")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	maxPrice, err := request.GetFloatQuery(r, "maxPrice")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if minPrice > maxPrice {
		response.Error(w, http.StatusBadRequest, "minPrice must not exceed maxPrice")
		return
	}

	products, err := h.service.ByPriceRange(r.Context(), minPrice, maxPrice)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, products)
}

// ByCategoryAndMaxPrice handles GET /api/v1/products/category/{category}/max-price/{maxPrice}
// @Summary List products in a category below a price
// @Description Strictly below maxPrice
// @Tags Products
// @Produce json
// @Param category path string true "Category"
// @Param maxPrice path number true "Exclusive upper bound"
// @Success 200 {object} map[string]interface{} "Matching products"
// @Failure 400 {object} map[string]string "Invalid price"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/category/{category}/max-price/{maxPrice} [get]
func (h *ProductHandler) ByCategoryAndMaxPrice(w http.ResponseWriter, r *http.Request) {
	category, err := request.GetStringParam(r, "category")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category")
		return
	}

	maxPrice, err := request.GetFloatParam(r, "maxPrice")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.service.ByCategoryAndMaxPrice(r.Context(), category, maxPrice)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, products)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ProductHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrDuplicateName):
		response.Error(w, http.StatusConflict, err.Error())
	case domain.IsValidationError(err):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Internal error in product handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
