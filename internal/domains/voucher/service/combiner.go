package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/voucher/model"
)

// Candidate là một voucher đã qua eligibility, kèm eligible subtotal của nó
type Candidate struct {
	Voucher          *model.Voucher
	EligibleSubtotal decimal.Decimal
}

// Applied là một voucher được chấp nhận kèm discount đã chốt
type Applied struct {
	Voucher        *model.Voucher
	DiscountAmount decimal.Decimal
}

// CombinationResult là output của combination resolver
type CombinationResult struct {
	Accepted []Applied
	Rejected []RejectedCandidate
}

// RejectedCandidate ghi lại voucher bị loại và lý do
type RejectedCandidate struct {
	Voucher *model.Voucher
	Reason  *model.Denial
}

// ResolveCombination quyết định tập voucher được stack cùng nhau trên một đơn.
//
// Rules:
//   - Candidates được duyệt theo thứ tự ổn định (voucher id tăng dần) để
//     kết quả accept/reject reproducible.
//   - Voucher non-combinable (has_combined_usage_limit = false): tối đa MỘT
//     voucher non-combinable mỗi đơn. Một non-combinable đi cùng các
//     combinable hợp lệ thì được, hai non-combinable thì không.
//   - Voucher combinable khai báo max_combined_usage_count: cap tổng số
//     voucher stack trên đơn (tính cả chính nó). Thêm một candidate mà vượt
//     cap của chính nó hoặc của bất kỳ combinable đã accept nào → loại
//     candidate đó và duyệt tiếp.
//
// Discount của mỗi voucher được tính trên eligible subtotal CỦA RIÊNG NÓ —
// các voucher trùng scope không chia nhau subtotal (additive stacking, đây
// là business rule có chủ đích; xem Design Notes). Vì vậy tổng discount có
// thể vượt order total và phải clamp ở cuối: scale tỷ lệ để
// sum(discount) <= orderTotal, không bao giờ ra bill âm.
func ResolveCombination(candidates []Candidate, orderTotal decimal.Decimal, calc *DiscountCalculator) CombinationResult {
	// Stable order: ascending voucher id
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Voucher.ID.String() < sorted[j].Voucher.ID.String()
	})

	var result CombinationResult
	var accepted []Candidate
	hasNonCombinable := false

	for _, cand := range sorted {
		v := cand.Voucher

		if !v.HasCombinedUsageLimit {
			// Rule: chỉ một voucher non-combinable mỗi đơn
			if hasNonCombinable {
				result.Rejected = append(result.Rejected, RejectedCandidate{
					Voucher: v,
					Reason: &model.Denial{
						Code:    model.ErrCodeCombinationLimit,
						Message: "Chỉ được dùng một voucher không cộng dồn mỗi đơn",
					},
				})
				continue
			}
			if violatesAcceptedCaps(accepted, len(accepted)+1) {
				result.Rejected = append(result.Rejected, RejectedCandidate{
					Voucher: v,
					Reason:  combinationCapDenial(),
				})
				continue
			}

			hasNonCombinable = true
			accepted = append(accepted, cand)
			continue
		}

		// Combinable: check cap của chính nó và của các voucher đã accept
		newCount := len(accepted) + 1
		if v.MaxCombinedUsageCount != nil && newCount > *v.MaxCombinedUsageCount {
			result.Rejected = append(result.Rejected, RejectedCandidate{
				Voucher: v,
				Reason:  combinationCapDenial(),
			})
			continue
		}
		if violatesAcceptedCaps(accepted, newCount) {
			result.Rejected = append(result.Rejected, RejectedCandidate{
				Voucher: v,
				Reason:  combinationCapDenial(),
			})
			continue
		}

		accepted = append(accepted, cand)
	}

	// Tính discount từng voucher trên eligible subtotal riêng của nó
	applied := make([]Applied, len(accepted))
	sum := decimal.Zero
	for i, cand := range accepted {
		amount := calc.Calculate(cand.Voucher, cand.EligibleSubtotal)
		applied[i] = Applied{Voucher: cand.Voucher, DiscountAmount: amount}
		sum = sum.Add(amount)
	}

	// Final clamp: sum(discount) không được vượt order total
	if sum.GreaterThan(orderTotal) && sum.IsPositive() {
		applied = scaleDown(applied, sum, orderTotal)
	}

	result.Accepted = applied
	return result
}

// violatesAcceptedCaps: newCount có vượt cap của một combinable đã accept không
func violatesAcceptedCaps(accepted []Candidate, newCount int) bool {
	for _, a := range accepted {
		if !a.Voucher.HasCombinedUsageLimit {
			continue
		}
		if a.Voucher.MaxCombinedUsageCount != nil && newCount > *a.Voucher.MaxCombinedUsageCount {
			return true
		}
	}
	return false
}

func combinationCapDenial() *model.Denial {
	return &model.Denial{
		Code:    model.ErrCodeCombinationLimit,
		Message: "Vượt giới hạn số voucher dùng chung một đơn",
	}
}

// scaleDown scale các discount theo tỷ lệ orderTotal/sum rồi round lại.
// Sai số round dồn vào discount lớn nhất để tổng sau clamp đúng bằng
// orderTotal và không discount nào âm.
func scaleDown(applied []Applied, sum, orderTotal decimal.Decimal) []Applied {
	ratio := orderTotal.Div(sum)

	scaledSum := decimal.Zero
	largest := 0
	for i := range applied {
		applied[i].DiscountAmount = applied[i].DiscountAmount.Mul(ratio).Round(2)
		scaledSum = scaledSum.Add(applied[i].DiscountAmount)
		if applied[i].DiscountAmount.GreaterThan(applied[largest].DiscountAmount) {
			largest = i
		}
	}

	// Residual sau khi round từng phần tử
	residual := orderTotal.Sub(scaledSum)
	if !residual.IsZero() {
		adjusted := applied[largest].DiscountAmount.Add(residual)
		if adjusted.IsNegative() {
			adjusted = decimal.Zero
		}
		applied[largest].DiscountAmount = adjusted
	}

	return applied
}
