package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"procurement/models"
)

var errEndBeforeStart = errors.New("endDate must not be before startDate")

// Money is stored as NUMERIC(14,2).
const moneyPlaces = 2

var maxMoney = decimal.RequireFromString("999999999999.99")

func roundBudget(b decimal.NullDecimal) decimal.NullDecimal {
	if b.Valid {
		b.Decimal = b.Decimal.Round(moneyPlaces)
	}
	return b
}

// checkCompleteness rejects a submission that leaves any RFP item unpriced.
func checkCompleteness(rfp *models.RFP, inputs []models.ProposalItemInput) error {
	submitted := make(map[int64]struct{}, len(inputs))
	for _, in := range inputs {
		submitted[in.RFPItemID] = struct{}{}
	}
	var missing []int64
	for _, item := range rfp.Items {
		if _, ok := submitted[item.ID]; !ok {
			missing = append(missing, item.ID)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: proposal must include all RFP items, missing: %s", ErrInvalidInput, joinIDs(missing))
	}
	return nil
}

// priceItems resolves each submitted line against the RFP's items and
// computes totalPrice = unitPrice x quantity and their sum. Any unknown,
// repeated or non-positive line rejects the whole submission.
func priceItems(rfp *models.RFP, inputs []models.ProposalItemInput) ([]models.ProposalItem, decimal.Decimal, error) {
	index := rfp.ItemIndex()
	seen := make(map[int64]struct{}, len(inputs))
	items := make([]models.ProposalItem, 0, len(inputs))
	total := decimal.Zero

	for _, in := range inputs {
		rfpItem, ok := index[in.RFPItemID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: RFP item %d does not belong to RFP %d", ErrInvalidInput, in.RFPItemID, rfp.ID)
		}
		if _, dup := seen[in.RFPItemID]; dup {
			return nil, decimal.Zero, fmt.Errorf("%w: RFP item %d is priced more than once", ErrInvalidInput, in.RFPItemID)
		}
		seen[in.RFPItemID] = struct{}{}

		unit := in.UnitPrice.Round(moneyPlaces)
		if !unit.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("%w: unit price for RFP item %d must be positive", ErrInvalidInput, in.RFPItemID)
		}
		line := unit.Mul(decimal.NewFromInt(int64(rfpItem.Quantity)))
		total = total.Add(line)
		if total.GreaterThan(maxMoney) {
			return nil, decimal.Zero, fmt.Errorf("%w: proposal total exceeds %s", ErrInvalidInput, maxMoney.StringFixed(moneyPlaces))
		}

		items = append(items, models.ProposalItem{
			RFPItemID:  rfpItem.ID,
			UnitPrice:  unit,
			TotalPrice: line,
			Notes:      in.Notes,
		})
	}
	return items, total, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
