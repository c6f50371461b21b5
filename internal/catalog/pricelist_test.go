package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePriceList = `
shop: Gadget Store
categories:
  - id: 224
    name: Smartphones
  - id: 15
    name: Accessories
goods:
  - id: 4216292
    category: 224
    model: apple/iphone/xs-max
    name: Apple iPhone XS Max 512GB
    price: 110000
    price_rrc: 116990
    quantity: 14
    parameters:
      "Screen (in)": 6.5
      "Color": gold
  - id: 4672670
    category: 15
    model: cable
    name: USB-C cable
    price: 9.99
    quantity: 100
`

func TestParsePriceList(t *testing.T) {
	list, err := ParsePriceList([]byte(samplePriceList))
	require.NoError(t, err)

	assert.Equal(t, "Gadget Store", list.Shop)
	require.Len(t, list.Categories, 2)
	assert.Equal(t, scalar("224"), list.Categories[0].ID)
	require.Len(t, list.Goods, 2)

	phone := list.Goods[0]
	assert.Equal(t, scalar("4216292"), phone.ID)
	assert.Equal(t, "110000", phone.Price.String())
	assert.Equal(t, "116990", phone.rrc().String())
	assert.Equal(t, 14, phone.Quantity)
	assert.Equal(t, []string{"Color", "Screen (in)"}, phone.parameterNames())
	assert.Equal(t, scalar("6.5"), phone.Parameters["Screen (in)"])

	cable := list.Goods[1]
	assert.Equal(t, "9.99", cable.Price.String())
	assert.Equal(t, "9.99", cable.rrc().String(), "missing price_rrc falls back to price")
}

func TestParsePriceListRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"missing shop":     "goods: []",
		"not yaml":         "shop: [unterminated",
		"bad price":        "shop: s\ngoods:\n  - name: a\n    price: cheap\n",
		"missing price":    "shop: s\ngoods:\n  - name: a\n",
		"negative price":   "shop: s\ngoods:\n  - name: a\n    price: -1\n",
		"negative stock":   "shop: s\ngoods:\n  - name: a\n    price: 1\n    quantity: -2\n",
		"unknown category": "shop: s\ngoods:\n  - name: a\n    price: 1\n    category: 9\n",
		"duplicate good":   "shop: s\ngoods:\n  - name: a\n    price: 1\n  - name: a\n    price: 2\n",
		"nameless":         "shop: s\ngoods:\n  - price: 1\n",
		"bad category":     "shop: s\ncategories:\n  - id: 1\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePriceList([]byte(input))
			assert.Error(t, err)
		})
	}
}
