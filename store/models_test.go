package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductSalePrice(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    int
	}{
		{
			name:    "no sale",
			product: Product{Price: 10000},
			want:    10000,
		},
		{
			name:    "sale flag without rate",
			product: Product{Price: 10000, IsSale: true},
			want:    10000,
		},
		{
			name:    "20 percent off",
			product: Product{Price: 10000, IsSale: true, SaleRate: 20},
			want:    8000,
		},
		{
			name:    "rounds down",
			product: Product{Price: 9999, IsSale: true, SaleRate: 33},
			want:    6700,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.SalePrice())
		})
	}
}

func TestProductSalePrice_NilReceiver(t *testing.T) {
	var p *Product
	assert.Equal(t, 0, p.SalePrice())
}
