package service

import (
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/voucher/model"
)

// LineEligible quyết định một cart line có thuộc scope của voucher không.
//
// Rules:
//   - Line được đánh giá theo scope đúng kind của nó (product line theo
//     product scope, combo line theo combo scope).
//   - Scope "all": mọi line cùng kind đều eligible.
//   - Scope "specific": eligible khi item id nằm trong membership set;
//     set rỗng thì không line nào eligible.
//
// Pure function, O(1) membership test trên set đã pre-build.
func LineEligible(v *model.Voucher, membership model.ScopeMembership, line model.CartLine) bool {
	switch line.Kind {
	case model.LineKindProduct:
		if v.ProductScope == model.ScopeAll {
			return true
		}
		_, ok := membership.Products[line.ItemID]
		return ok

	case model.LineKindCombo:
		if v.ComboScope == model.ScopeAll {
			return true
		}
		_, ok := membership.Combos[line.ItemID]
		return ok
	}

	return false
}

// EligibleSubtotal cộng line total của mọi line thuộc scope của voucher
func EligibleSubtotal(v *model.Voucher, membership model.ScopeMembership, snapshot model.CartSnapshot) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range snapshot.Lines {
		if LineEligible(v, membership, line) {
			subtotal = subtotal.Add(line.LineTotal())
		}
	}
	return subtotal
}
