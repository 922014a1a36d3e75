package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restaurant-backend/internal/domains/voucher/model"
	"restaurant-backend/internal/domains/voucher/service"
	"restaurant-backend/internal/shared/middleware"
	"restaurant-backend/internal/shared/response"
	"restaurant-backend/pkg/logger"
)

// VoucherHandler xử lý cả public và admin API của voucher domain
type VoucherHandler struct {
	service service.VoucherService
}

// NewVoucherHandler tạo handler instance
func NewVoucherHandler(service service.VoucherService) *VoucherHandler {
	return &VoucherHandler{service: service}
}

// -------------------------------------------------------------------
// PUBLIC (user-facing)
// -------------------------------------------------------------------

// ListPublished lấy danh sách voucher công khai
// @Router /v1/vouchers [get]
func (h *VoucherHandler) ListPublished(c *gin.Context) {
	vouchers, err := h.service.ListPublished(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, vouchers)
}

// GetApplicableVouchers lấy voucher áp dụng được với cart hiện tại
// @Router /v1/checkout/vouchers [get]
func (h *VoucherHandler) GetApplicableVouchers(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	options, err := h.service.GetApplicableVouchers(c.Request.Context(), userID, time.Now())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, options)
}

// ApplyVouchers apply các voucher đã chọn vào đơn pending
// @Router /v1/checkout/apply-vouchers [post]
func (h *VoucherHandler) ApplyVouchers(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.ApplyVouchersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	result, err := h.service.ApplyVouchersToOrder(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// SaveVoucher bookmark một voucher cho user
// @Router /v1/vouchers/:id/save [post]
func (h *VoucherHandler) SaveVoucher(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	voucherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Voucher ID không hợp lệ")
		return
	}

	if err := h.service.SaveVoucher(c.Request.Context(), userID, voucherID); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// ListSavedVouchers lấy voucher user đã lưu
// @Router /v1/vouchers/saved [get]
func (h *VoucherHandler) ListSavedVouchers(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	vouchers, err := h.service.ListSavedVouchers(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, vouchers)
}

// -------------------------------------------------------------------
// ADMIN
// -------------------------------------------------------------------

// CreateVoucher tạo voucher mới (admin)
// @Router /v1/admin/vouchers [post]
func (h *VoucherHandler) CreateVoucher(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	v, err := h.service.CreateVoucher(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, v)
}

// UpdateVoucher cập nhật voucher (admin)
// @Router /v1/admin/vouchers/:id [put]
func (h *VoucherHandler) UpdateVoucher(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Voucher ID không hợp lệ")
		return
	}

	var req model.UpdateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	v, err := h.service.UpdateVoucher(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, v)
}

// DeleteVoucher soft delete voucher (admin)
// @Router /v1/admin/vouchers/:id [delete]
func (h *VoucherHandler) DeleteVoucher(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Voucher ID không hợp lệ")
		return
	}

	if err := h.service.DeleteVoucher(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GetVoucher lấy chi tiết voucher (admin)
// @Router /v1/admin/vouchers/:id [get]
func (h *VoucherHandler) GetVoucher(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Voucher ID không hợp lệ")
		return
	}

	v, err := h.service.GetVoucher(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, v)
}

// ListVouchers lấy danh sách voucher cho admin (filter + pagination)
// @Router /v1/admin/vouchers [get]
func (h *VoucherHandler) ListVouchers(c *gin.Context) {
	filter := &model.ListVouchersFilter{
		Page:  parseIntQuery(c, "page", 1),
		Limit: parseIntQuery(c, "limit", 20),
	}

	if v := c.Query("is_publish"); v != "" {
		b := v == "true"
		filter.IsPublish = &b
	}
	if v := c.Query("type"); v != "" {
		t := model.VoucherType(v)
		filter.Type = &t
	}

	vouchers, total, err := h.service.ListVouchers(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, vouchers, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func (h *VoucherHandler) handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, appErr.Details)
		return
	}

	logger.Error("unhandled voucher error", err)
	response.ErrorResponse(c, http.StatusInternalServerError,
		string(model.ErrCodeInternalError), "Đã có lỗi xảy ra, vui lòng thử lại sau")
}

func getUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	if value := c.Query(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
