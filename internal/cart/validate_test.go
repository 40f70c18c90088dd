package cart

import (
	"testing"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/products"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	ref := ItemRef{ProductID: "p-1", Quantity: 5, Name: "Ba chỉ heo"}

	tests := []struct {
		name    string
		product products.Product
		found   bool
		status  string
		stock   int
	}{
		{
			name:   "missing product",
			found:  false,
			status: VerdictNotFound,
		},
		{
			name:    "inactive product",
			product: products.Product{Name: "Ba chỉ heo", IsActive: false, Stock: 10},
			found:   true,
			status:  VerdictInactive,
		},
		{
			name:    "zero stock",
			product: products.Product{Name: "Ba chỉ heo", IsActive: true, Stock: 0},
			found:   true,
			status:  VerdictOutOfStock,
		},
		{
			name:    "partial stock",
			product: products.Product{Name: "Ba chỉ heo", IsActive: true, Stock: 3},
			found:   true,
			status:  VerdictInsufficientStock,
			stock:   3,
		},
		{
			name:    "enough stock",
			product: products.Product{Name: "Ba chỉ heo", IsActive: true, Stock: 5},
			found:   true,
			status:  VerdictValid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Classify(ref, tc.product, tc.found)
			assert.Equal(t, "p-1", v.ProductID)
			assert.Equal(t, tc.status, v.Status)
			assert.Equal(t, tc.stock, v.Stock)
			if tc.status != VerdictValid {
				assert.NotEmpty(t, v.Message)
			}
		})
	}
}

func TestClassifyMessageCarriesRemainingStock(t *testing.T) {
	ref := ItemRef{ProductID: "p-1", Quantity: 5}
	v := Classify(ref, products.Product{Name: "Sườn non", IsActive: true, Stock: 3}, true)
	assert.Equal(t, `Sản phẩm "Sườn non" chỉ còn 3 sản phẩm`, v.Message)
	assert.Equal(t, 3, v.Stock)
}

func TestClassifyInactiveBeatsStock(t *testing.T) {
	// An inactive product reports inactive even when its stock is also zero.
	ref := ItemRef{ProductID: "p-1", Quantity: 1}
	v := Classify(ref, products.Product{Name: "Giò lụa", IsActive: false, Stock: 0}, true)
	assert.Equal(t, VerdictInactive, v.Status)
}

func TestClassifyFallsBackToClientName(t *testing.T) {
	ref := ItemRef{ProductID: "p-gone", Quantity: 1, Name: "Chả quế"}
	v := Classify(ref, products.Product{}, false)
	assert.Contains(t, v.Message, "Chả quế")
}

func TestAllValid(t *testing.T) {
	assert.True(t, AllValid(nil))
	assert.True(t, AllValid([]Verdict{{Status: VerdictValid}, {Status: VerdictValid}}))
	assert.False(t, AllValid([]Verdict{{Status: VerdictValid}, {Status: VerdictOutOfStock}}))
}
