package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadProducts(t *testing.T) {
	path := writeFile(t, `[
		{"id": "1", "name": "Waffle", "category": "Waffle", "regularPrice": "6.50", "wholesalePrice": "5.00"},
		{"id": "2", "name": "Cake", "category": "Cake", "regularPrice": 4.5, "salePrice": "4.00"}
	]`)

	products, err := loadProducts(path)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "6.5", products[0].RegularPrice.String())
	assert.False(t, products[0].SalePrice.Valid)
	assert.Equal(t, "5.00", products[0].WholesalePrice)

	assert.True(t, products[1].SalePrice.Valid)
	assert.Equal(t, "4", products[1].SalePrice.Decimal.String())
	assert.Empty(t, products[1].WholesalePrice)
}

func TestLoadProducts_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed", content: `[{`, wantErr: "parse products JSON"},
		{name: "missing id", content: `[{"name": "x", "regularPrice": "1"}]`, wantErr: "without id"},
		{name: "negative price", content: `[{"id": "1", "regularPrice": "-1"}]`, wantErr: "negative regular price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadProducts(writeFile(t, tt.content))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := loadProducts(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read products file")
}

func TestSeedProductsFile(t *testing.T) {
	products, err := loadProducts(filepath.Join("..", "..", "db", "seed", "products.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, products)
}
