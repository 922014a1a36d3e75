package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restaurant-backend/internal/domains/inventory/model"
	"restaurant-backend/internal/domains/inventory/service"
	"restaurant-backend/internal/shared/response"
	"restaurant-backend/pkg/logger"
)

// InventoryHandler xử lý admin API của kho nguyên liệu
type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(service service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// ListMaterials lấy toàn bộ nguyên liệu
// @Router /v1/admin/materials [get]
func (h *InventoryHandler) ListMaterials(c *gin.Context) {
	materials, err := h.service.ListMaterials(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, materials)
}

// ListLowStock lấy nguyên liệu dưới ngưỡng cảnh báo
// @Router /v1/admin/materials/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	materials, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, materials)
}

// GetMaterial lấy chi tiết một nguyên liệu
// @Router /v1/admin/materials/:id [get]
func (h *InventoryHandler) GetMaterial(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Material ID không hợp lệ")
		return
	}

	m, err := h.service.GetMaterial(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, m)
}

// CreateMaterial thêm nguyên liệu mới
// @Router /v1/admin/materials [post]
func (h *InventoryHandler) CreateMaterial(c *gin.Context) {
	var req model.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	m, err := h.service.CreateMaterial(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, m)
}

// UpdateMaterial cập nhật thông tin nguyên liệu
// @Router /v1/admin/materials/:id [put]
func (h *InventoryHandler) UpdateMaterial(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Material ID không hợp lệ")
		return
	}

	var req model.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	m, err := h.service.UpdateMaterial(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, m)
}

// DeleteMaterial soft delete nguyên liệu
// @Router /v1/admin/materials/:id [delete]
func (h *InventoryHandler) DeleteMaterial(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Material ID không hợp lệ")
		return
	}

	if err := h.service.DeleteMaterial(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AdjustStock nhập/xuất kho
// @Router /v1/admin/materials/:id/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Material ID không hợp lệ")
		return
	}

	var req model.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	m, err := h.service.AdjustStock(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, m)
}

func (h *InventoryHandler) handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, appErr.Details)
		return
	}

	logger.Error("unhandled inventory error", err)
	response.ErrorResponse(c, http.StatusInternalServerError,
		"SYS_INTERNAL_ERROR", "Đã có lỗi xảy ra, vui lòng thử lại sau")
}
