package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restaurant-backend/internal/domains/reward/model"
	"restaurant-backend/internal/domains/reward/service"
	"restaurant-backend/internal/shared/middleware"
	"restaurant-backend/internal/shared/response"
	"restaurant-backend/pkg/logger"
)

// RewardHandler xử lý public và admin API của reward domain
type RewardHandler struct {
	service service.RewardService
}

func NewRewardHandler(service service.RewardService) *RewardHandler {
	return &RewardHandler{service: service}
}

// -------------------------------------------------------------------
// PUBLIC (user-facing)
// -------------------------------------------------------------------

// ListRewards lấy catalog reward đang publish
// @Router /v1/rewards [get]
func (h *RewardHandler) ListRewards(c *gin.Context) {
	rewards, err := h.service.ListPublished(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rewards)
}

// Redeem đổi điểm lấy reward
// @Router /v1/rewards/:id/redeem [post]
func (h *RewardHandler) Redeem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	rewardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Reward ID không hợp lệ")
		return
	}

	result, err := h.service.Redeem(c.Request.Context(), userID, rewardID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListMyRedemptions lấy lịch sử đổi thưởng của user
// @Router /v1/rewards/redemptions [get]
func (h *RewardHandler) ListMyRedemptions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	redemptions, err := h.service.ListMyRedemptions(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, redemptions)
}

// -------------------------------------------------------------------
// STAFF / ADMIN
// -------------------------------------------------------------------

// ConsumeRedemption tiêu redemption code (staff scan tại quầy)
// @Router /v1/admin/redemptions/consume [post]
func (h *RewardHandler) ConsumeRedemption(c *gin.Context) {
	var req model.ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Consume(c.Request.Context(), req.Code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// CreateReward tạo reward mới (admin)
// @Router /v1/admin/rewards [post]
func (h *RewardHandler) CreateReward(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	reward, err := h.service.CreateReward(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, reward)
}

// UpdateReward cập nhật reward (admin)
// @Router /v1/admin/rewards/:id [put]
func (h *RewardHandler) UpdateReward(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Reward ID không hợp lệ")
		return
	}

	var req model.UpdateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	reward, err := h.service.UpdateReward(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, reward)
}

// DeleteReward soft delete reward (admin)
// @Router /v1/admin/rewards/:id [delete]
func (h *RewardHandler) DeleteReward(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Reward ID không hợp lệ")
		return
	}

	if err := h.service.DeleteReward(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func (h *RewardHandler) handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, appErr.Details)
		return
	}

	logger.Error("unhandled reward error", err)
	response.ErrorResponse(c, http.StatusInternalServerError,
		"SYS_INTERNAL_ERROR", "Đã có lỗi xảy ra, vui lòng thử lại sau")
}

func getUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
