package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restaurant-backend/internal/domains/catalog/model"
	"restaurant-backend/internal/domains/catalog/service"
	"restaurant-backend/internal/shared/response"
	"restaurant-backend/pkg/logger"
)

// CatalogHandler xử lý API public và admin của catalog
type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(service service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// -------------------------------------------------------------------
// PUBLIC
// -------------------------------------------------------------------

// ListProducts - @Router /v1/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, products)
}

// GetProduct - @Router /v1/products/:id [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Product ID không hợp lệ")
		return
	}

	p, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// ListCombos - @Router /v1/combos [get]
func (h *CatalogHandler) ListCombos(c *gin.Context) {
	combos, err := h.service.ListCombos(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, combos)
}

// GetCombo - @Router /v1/combos/:id [get]
func (h *CatalogHandler) GetCombo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Combo ID không hợp lệ")
		return
	}

	combo, err := h.service.GetCombo(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, combo)
}

// ListProductTypes - @Router /v1/product-types [get]
func (h *CatalogHandler) ListProductTypes(c *gin.Context) {
	types, err := h.service.ListProductTypes(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, types)
}

// ListExtras - @Router /v1/extras [get]
func (h *CatalogHandler) ListExtras(c *gin.Context) {
	extras, err := h.service.ListExtras(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, extras)
}

// -------------------------------------------------------------------
// ADMIN
// -------------------------------------------------------------------

// CreateProduct - @Router /v1/admin/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	p, err := h.service.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// UpdateProduct - @Router /v1/admin/products/:id [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Product ID không hợp lệ")
		return
	}

	var req model.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	p, err := h.service.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// DeleteProduct - @Router /v1/admin/products/:id [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Product ID không hợp lệ")
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// CreateCombo - @Router /v1/admin/combos [post]
func (h *CatalogHandler) CreateCombo(c *gin.Context) {
	var req model.CreateComboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	combo, err := h.service.CreateCombo(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, combo)
}

// DeleteCombo - @Router /v1/admin/combos/:id [delete]
func (h *CatalogHandler) DeleteCombo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Combo ID không hợp lệ")
		return
	}

	if err := h.service.DeleteCombo(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *CatalogHandler) handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, appErr.Details)
		return
	}

	logger.Error("unhandled catalog error", err)
	response.InternalServerError(c, "Đã có lỗi xảy ra, vui lòng thử lại sau")
}
