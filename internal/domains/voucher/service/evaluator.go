package service

import (
	"fmt"
	"time"

	"restaurant-backend/internal/domains/voucher/model"
)

// EvaluationInput gom toàn bộ state cần cho một lần đánh giá eligibility.
// HasGrant đã được prefetch bởi service (un-consumed VoucherUser row).
type EvaluationInput struct {
	Shopper    model.Shopper
	Voucher    *model.Voucher
	Membership model.ScopeMembership
	HasGrant   bool
	Snapshot   model.CartSnapshot
	Now        time.Time
}

// Evaluate chạy eligibility checks theo thứ tự cố định, short-circuit ở
// check fail đầu tiên (check rẻ / hay fail nhất đứng trước):
//
//  1. Temporal: voucher phải đang active (Expired / NotYetStarted)
//  2. Quantity: Used < Quantity trừ khi unlimited (Exhausted)
//  3. Ownership: voucher user-targeted phải thuộc về user hoặc có grant (NotOwned)
//  4. New-user: IsForNewUsersOnly yêu cầu chưa có đơn hoàn tất (NewUsersOnly)
//  5. Rank: Rank >= MinimumRank theo ordinal (RankTooLow)
//  6. Scope subtotal: cộng các line thuộc scope
//  7. Minimum spend: eligibleSubtotal >= MinimumRequirements (MinSpend)
//
// Evaluator này PHẢI chạy lại tại thời điểm đặt đơn dù đã chạy ở preview —
// cart và giá có thể đã đổi, không tin kết quả cũ từ client.
func Evaluate(in EvaluationInput) model.EligibilityResult {
	v := in.Voucher

	// Step 1: temporal validity
	if in.Now.Before(v.StartTime) {
		return deny(&model.Denial{
			Code:    model.ErrCodeVoucherNotStarted,
			Message: "Mã giảm giá chưa bắt đầu",
			Details: map[string]interface{}{"start_time": v.StartTime},
		})
	}
	if !v.IsActiveAt(in.Now) {
		return deny(&model.Denial{
			Code:    model.ErrCodeVoucherExpired,
			Message: "Mã giảm giá đã hết hạn",
			Details: map[string]interface{}{"end_time": v.EndTime},
		})
	}

	// Step 2: usage quantity
	if v.IsExhausted() {
		return deny(&model.Denial{
			Code:    model.ErrCodeVoucherExhausted,
			Message: "Mã giảm giá đã hết lượt sử dụng",
			Details: map[string]interface{}{
				"used":     v.Used,
				"quantity": v.Quantity,
			},
		})
	}

	// Step 3: ownership cho voucher user-targeted
	if v.Type == model.VoucherTypeUserTargeted {
		owned := v.UserID != nil && *v.UserID == in.Shopper.ID
		if !owned && !in.HasGrant {
			return deny(&model.Denial{
				Code:    model.ErrCodeVoucherNotOwned,
				Message: "Mã giảm giá không thuộc về bạn",
			})
		}
	}

	// Step 4: new-customer restriction
	if v.IsForNewUsersOnly && !in.Shopper.IsNewCustomer() {
		return deny(&model.Denial{
			Code:    model.ErrCodeVoucherNewUsersOnly,
			Message: "Mã giảm giá chỉ dành cho khách hàng mới",
			Details: map[string]interface{}{
				"completed_orders": in.Shopper.CompletedOrders,
			},
		})
	}

	// Step 5: rank gate (so sánh ordinal)
	if v.MinimumRank != nil && !in.Shopper.Rank.AtLeast(*v.MinimumRank) {
		return deny(&model.Denial{
			Code:    model.ErrCodeVoucherRankTooLow,
			Message: fmt.Sprintf("Yêu cầu hạng %s trở lên", v.MinimumRank.String()),
			Details: map[string]interface{}{
				"minimum_rank": v.MinimumRank.String(),
				"current_rank": in.Shopper.Rank.String(),
			},
		})
	}

	// Step 6: eligible subtotal theo scope
	eligibleSubtotal := EligibleSubtotal(v, in.Membership, in.Snapshot)

	// Step 7: minimum spend trên phần eligible
	if eligibleSubtotal.LessThan(v.MinimumRequirements) {
		return model.EligibilityResult{
			Eligible:         false,
			EligibleSubtotal: eligibleSubtotal,
			Reason: &model.Denial{
				Code:    model.ErrCodeVoucherMinSpend,
				Message: fmt.Sprintf("Đơn hàng chưa đạt giá trị tối thiểu %s", v.MinimumRequirements.String()),
				Details: map[string]interface{}{
					"minimum_requirements": v.MinimumRequirements,
					"eligible_subtotal":    eligibleSubtotal,
					"needed_amount":        v.MinimumRequirements.Sub(eligibleSubtotal),
				},
			},
		}
	}

	return model.EligibilityResult{
		Eligible:         true,
		EligibleSubtotal: eligibleSubtotal,
	}
}

func deny(d *model.Denial) model.EligibilityResult {
	return model.EligibilityResult{Eligible: false, Reason: d}
}
