package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeProducts renders a cart as a JSON array for persistence.
// A nil cart encodes as "[]".
func EncodeProducts(products []*Product) ([]byte, error) {
	if products == nil {
		products = []*Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("encode products: %w", err)
	}
	return data, nil
}

// DecodeProducts parses a persisted cart. Numbers decode as json.Number so a
// numeric Sku keeps its exact text.
func DecodeProducts(data []byte) ([]*Product, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var products []*Product
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}
