package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

var (
	productFields  = []string{"id", "title", "price", "image"}
	lineItemFields = []string{"id", "title", "price", "image", "amount"}
)

// EncodeCart serializes the cart as the JSON list of its line items.
func EncodeCart(c Cart) ([]byte, error) {
	items := c.Items
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return data, nil
}

// DecodeCart parses a persisted slot value. An empty value or JSON null is an
// empty cart. A list with a duplicated ID or an amount below one is rejected.
func DecodeCart(data []byte) (Cart, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Cart{Items: []LineItem{}}, nil
	}

	var items []LineItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return Cart{}, fmt.Errorf("unmarshal cart: %w", err)
	}
	if items == nil {
		items = []LineItem{}
	}
	c := Cart{Items: items}
	if err := c.Validate(); err != nil {
		return Cart{}, fmt.Errorf("invalid cart: %w", err)
	}
	return c, nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return marshalWithAttrs(plain(p), p.Attrs)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	attrs, err := unknownAttrs(data, productFields)
	if err != nil {
		return err
	}
	v.Attrs = attrs
	*p = Product(v)
	return nil
}

func (i LineItem) MarshalJSON() ([]byte, error) {
	type plain LineItem
	return marshalWithAttrs(plain(i), i.Attrs)
}

func (i *LineItem) UnmarshalJSON(data []byte) error {
	type plain LineItem
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	attrs, err := unknownAttrs(data, lineItemFields)
	if err != nil {
		return err
	}
	v.Attrs = attrs
	*i = LineItem(v)
	return nil
}

// unknownAttrs returns the members of the JSON object that are not in known.
// encoding/json matches field names case-insensitively, so this does too.
func unknownAttrs(data []byte, known []string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k := range fields {
		for _, name := range known {
			if strings.EqualFold(k, name) {
				delete(fields, k)
				break
			}
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

func marshalWithAttrs(v any, attrs map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(attrs) == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range attrs {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}
