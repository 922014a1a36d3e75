package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restaurant-backend/internal/domains/cart/model"
	"restaurant-backend/internal/domains/cart/service"
	"restaurant-backend/internal/shared/middleware"
	"restaurant-backend/internal/shared/response"
	"restaurant-backend/pkg/logger"
)

// CartHandler xử lý API giỏ hàng (luôn yêu cầu đăng nhập)
type CartHandler struct {
	service service.CartService
}

func NewCartHandler(service service.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// GetCart - @Router /v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	cart, err := h.service.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"cart":     cart,
		"subtotal": cart.Subtotal(),
	})
}

// AddItem - @Router /v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	cart, err := h.service.AddItem(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, cart)
}

// UpdateItem - @Router /v1/cart/items [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	cart, err := h.service.UpdateItem(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, cart)
}

// ClearCart - @Router /v1/cart [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	if err := h.service.ClearCart(c.Request.Context(), userID); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cleared": true})
}

func (h *CartHandler) handleError(c *gin.Context, err error) {
	logger.Error("cart operation failed", err)
	response.BadRequest(c, err.Error())
}

func getUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
