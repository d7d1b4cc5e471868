// internal/domain/product/entity_test.go
package product

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validates(t *testing.T) {
	p, err := New(" 1 ", " Calabresa ", decimal.RequireFromString("45.90"), "calabresa.png", "")
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)
	assert.Equal(t, "Calabresa", p.Name)

	_, err = New("", "x", decimal.Zero, "", "")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = New("2", "x", decimal.RequireFromString("-1"), "", "")
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestUnmarshalJSON_NumericAndStringIDs(t *testing.T) {
	var list []Product
	body := `[
		{"id": 7, "name": "Marguerita", "price": 39.9, "image": "m.png", "ingredients": "tomate"},
		{"id": "abc", "name": "Portuguesa", "price": "52.50", "image": "p.png"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 2)

	assert.Equal(t, "7", list[0].ID)
	assert.True(t, list[0].Price.Equal(decimal.RequireFromString("39.9")))
	assert.Equal(t, "abc", list[1].ID)
	assert.Equal(t, "52.5", list[1].Price.String())
}

func TestUnmarshalJSON_BadID(t *testing.T) {
	var p Product
	err := json.Unmarshal([]byte(`{"id": true}`), &p)
	assert.ErrorIs(t, err, ErrInvalidID)
}
