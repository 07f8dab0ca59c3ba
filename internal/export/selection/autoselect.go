package selection

import (
	"fmt"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/lots"
)

// AutoSelectResult reports what an automatic allocation did
type AutoSelectResult struct {
	Lines     []domain.SelectionLine `json:"lines"`
	Allocated int                    `json:"allocated"`
	Shortfall int                    `json:"shortfall"`
}

// AutoSelect allocates quantity of a product first-expiry-first-out, taking
// earlier expiry days first and zones in id order within a day. Stock already
// claimed by other lines is respected. Lots already on a new line are topped
// up instead of duplicated. Whatever cannot be covered is the shortfall.
func (s *Set) AutoSelect(idx *lots.Index, productID string, quantity int) (AutoSelectResult, error) {
	if productID == "" || quantity <= 0 {
		return AutoSelectResult{}, fmt.Errorf("%w: auto select needs a product and a positive quantity", domain.ErrIncompleteLine)
	}

	var res AutoSelectResult
	need := quantity

	for _, lot := range idx.Lots(productID) {
		if need == 0 {
			break
		}
		key := lot.Key()
		if heldBySaved(s.lines, key, "") {
			continue
		}
		left := AvailableQuantity(idx, s.lines, key, "")
		if left <= 0 {
			continue
		}
		take := min(left, need)

		if i := s.newLineOn(key); i >= 0 {
			s.lines[i].Quantity += take
			res.Lines = append(res.Lines, s.lines[i])
		} else {
			res.Lines = append(res.Lines, s.Append(domain.SelectionLine{
				ProductID: key.ProductID,
				ZoneID:    key.ZoneID,
				ExpiredAt: key.Expiry,
				Quantity:  take,
			}))
		}

		res.Allocated += take
		need -= take
	}

	res.Shortfall = need
	return res, nil
}

func (s *Set) newLineOn(key domain.LotKey) int {
	for i, l := range s.lines {
		if l.IsNew && l.References() && l.Key() == key {
			return i
		}
	}
	return -1
}
