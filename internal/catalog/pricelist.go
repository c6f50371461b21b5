package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PriceList is a shop's YAML price list:
//
//	shop: Gadget Store
//	categories:
//	  - id: 224
//	    name: Smartphones
//	goods:
//	  - id: 4216292
//	    category: 224
//	    model: apple/iphone/xs-max
//	    name: Apple iPhone XS Max 512GB
//	    price: 110000
//	    price_rrc: 116990
//	    quantity: 14
//	    parameters:
//	      "Screen (in)": 6.5
type PriceList struct {
	Shop       string          `yaml:"shop"`
	Categories []PriceCategory `yaml:"categories"`
	Goods      []PriceGood     `yaml:"goods"`
}

// PriceCategory maps the file's category id to a category name.
type PriceCategory struct {
	ID   scalar `yaml:"id"`
	Name string `yaml:"name"`
}

// PriceGood is one listing line of the price list.
type PriceGood struct {
	ID         scalar            `yaml:"id"`
	Category   scalar            `yaml:"category"`
	Model      string            `yaml:"model"`
	Name       string            `yaml:"name"`
	Price      money             `yaml:"price"`
	PriceRRC   money             `yaml:"price_rrc"`
	Quantity   int               `yaml:"quantity"`
	Parameters map[string]scalar `yaml:"parameters"`
}

// scalar keeps any YAML scalar as its literal text, so numeric ids and
// parameter values survive unchanged.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

type money struct {
	decimal.Decimal
	set bool
}

func (m *money) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a price", node.Line)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q", node.Line, node.Value)
	}
	m.Decimal = value
	m.set = true
	return nil
}

// ParsePriceList decodes and validates a YAML price list.
func ParsePriceList(data []byte) (*PriceList, error) {
	var list PriceList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode price list: %w", err)
	}
	list.Shop = strings.TrimSpace(list.Shop)
	if list.Shop == "" {
		return nil, fmt.Errorf("shop name is required")
	}

	known := make(map[scalar]bool, len(list.Categories))
	for i, cat := range list.Categories {
		if cat.ID == "" || strings.TrimSpace(cat.Name) == "" {
			return nil, fmt.Errorf("categories[%d]: id and name are required", i)
		}
		known[cat.ID] = true
	}
	seen := make(map[string]bool, len(list.Goods))
	for i, good := range list.Goods {
		switch {
		case strings.TrimSpace(good.Name) == "":
			return nil, fmt.Errorf("goods[%d]: name is required", i)
		case !good.Price.set:
			return nil, fmt.Errorf("goods[%d]: price is required", i)
		case good.Price.IsNegative() || good.PriceRRC.IsNegative():
			return nil, fmt.Errorf("goods[%d]: prices must not be negative", i)
		case good.Quantity < 0:
			return nil, fmt.Errorf("goods[%d]: quantity must not be negative", i)
		case good.Category != "" && !known[good.Category]:
			return nil, fmt.Errorf("goods[%d]: unknown category %s", i, good.Category)
		}
		key := strings.TrimSpace(good.Name) + "\x00" + string(good.Category)
		if seen[key] {
			return nil, fmt.Errorf("goods[%d]: %q is listed twice", i, good.Name)
		}
		seen[key] = true
	}
	return &list, nil
}

// parameterNames returns the good's parameter names in a stable order.
func (g PriceGood) parameterNames() []string {
	names := make([]string, 0, len(g.Parameters))
	for name := range g.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g PriceGood) rrc() decimal.Decimal {
	if g.PriceRRC.set {
		return g.PriceRRC.Decimal
	}
	return g.Price.Decimal
}
