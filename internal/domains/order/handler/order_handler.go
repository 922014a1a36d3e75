package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restaurant-backend/internal/domains/order/model"
	"restaurant-backend/internal/domains/order/service"
	"restaurant-backend/internal/shared/middleware"
	"restaurant-backend/internal/shared/response"
	"restaurant-backend/pkg/logger"
)

// OrderHandler xử lý API đơn hàng
type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// CreateOrder đặt đơn từ giỏ hàng hiện tại
// @Router /v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	order, err := h.service.CreateFromCart(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, order)
}

// GetOrder - @Router /v1/orders/:id [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Order ID không hợp lệ")
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// ListOrders - @Router /v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 20)

	orders, total, err := h.service.ListOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// -------------------------------------------------------------------
// ADMIN/STAFF transitions
// -------------------------------------------------------------------

// MarkPaid - @Router /v1/admin/orders/:id/pay [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	h.transition(c, h.service.MarkPaid)
}

// Complete - @Router /v1/admin/orders/:id/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Cancel - @Router /v1/admin/orders/:id/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*model.Order, error)) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Order ID không hợp lệ")
		return
	}

	order, err := fn(c.Request.Context(), orderID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, appErr.Details)
		return
	}

	logger.Error("unhandled order error", err)
	response.InternalServerError(c, "Đã có lỗi xảy ra, vui lòng thử lại sau")
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
