package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restaurant-backend/internal/config"
	"restaurant-backend/internal/domains/loyalty/model"
	userrepo "restaurant-backend/internal/domains/user/repository"
	"restaurant-backend/internal/shared/middleware"
	"restaurant-backend/internal/shared/response"
	"restaurant-backend/pkg/logger"
)

// LoyaltyHandler expose tiến trình xếp hạng của user
type LoyaltyHandler struct {
	users userrepo.UserRepository
	cfg   config.LoyaltyConfig
}

func NewLoyaltyHandler(users userrepo.UserRepository, cfg config.LoyaltyConfig) *LoyaltyHandler {
	return &LoyaltyHandler{users: users, cfg: cfg}
}

// RankProgress trả về rank hiện tại, exp và ngưỡng rank kế tiếp
// @Router /v1/loyalty/progress [get]
func (h *LoyaltyHandler) RankProgress(c *gin.Context) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}
	userID, ok := v.(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		logger.Error("failed to load user for rank progress", err)
		response.ErrorResponse(c, http.StatusInternalServerError,
			"SYS_INTERNAL_ERROR", "Đã có lỗi xảy ra, vui lòng thử lại sau")
		return
	}

	progress := gin.H{
		"rank":        user.Rank.String(),
		"exp":         user.Exp,
		"point":       user.Point,
		"total_point": user.TotalPoint,
	}

	// Ngưỡng kế tiếp theo exp; rank giữ bởi user có thể cao hơn rank theo
	// exp (rank không bao giờ hạ), khi đó next threshold tính từ rank giữ
	next := int(user.Rank) // index vào thresholds cho rank kế tiếp
	if next < len(h.cfg.RankThresholds) {
		threshold := h.cfg.RankThresholds[next]
		progress["next_rank"] = model.Rank(next + 1).String()
		progress["next_rank_exp"] = threshold
		remaining := threshold - user.Exp
		if remaining < 0 {
			remaining = 0
		}
		progress["exp_to_next_rank"] = remaining
	}

	response.Success(c, http.StatusOK, progress)
}
