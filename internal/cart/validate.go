package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/products"
)

// Classify maps one product lookup onto its verdict. Pure so the
// classification table can be tested without a database. found=false means
// the product row does not exist.
func Classify(ref ItemRef, p products.Product, found bool) Verdict {
	name := ref.Name
	if found && p.Name != "" {
		name = p.Name
	}

	switch {
	case !found:
		return Verdict{
			ProductID: ref.ProductID,
			Status:    VerdictNotFound,
			Message:   fmt.Sprintf("Sản phẩm \"%s\" không còn tồn tại", name),
		}
	case !p.IsActive:
		return Verdict{
			ProductID: ref.ProductID,
			Status:    VerdictInactive,
			Message:   fmt.Sprintf("Sản phẩm \"%s\" đã ngừng kinh doanh", name),
		}
	case p.Stock == 0:
		return Verdict{
			ProductID: ref.ProductID,
			Status:    VerdictOutOfStock,
			Message:   fmt.Sprintf("Sản phẩm \"%s\" đã hết hàng", name),
		}
	case p.Stock < ref.Quantity:
		return Verdict{
			ProductID: ref.ProductID,
			Status:    VerdictInsufficientStock,
			Message:   fmt.Sprintf("Sản phẩm \"%s\" chỉ còn %d sản phẩm", name, p.Stock),
			Stock:     p.Stock,
		}
	default:
		return Verdict{ProductID: ref.ProductID, Status: VerdictValid}
	}
}

// ValidateItems checks every item against live inventory. Advisory only:
// stock can change between this call and checkout, so checkout re-runs it.
func (c *Conf) ValidateItems(ctx context.Context, p *products.Conf, refs []ItemRef) ([]Verdict, error) {
	verdicts := make([]Verdict, 0, len(refs))
	for _, ref := range refs {
		prod, err := p.GetProductByID(ctx, ref.ProductID)
		if err != nil {
			if errors.Is(err, products.ErrNotFound) {
				verdicts = append(verdicts, Classify(ref, products.Product{}, false))
				continue
			}
			return nil, fmt.Errorf("failed to look up product %s: %w", ref.ProductID, err)
		}
		verdicts = append(verdicts, Classify(ref, prod, true))
	}
	return verdicts, nil
}
