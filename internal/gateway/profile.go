package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	customerRequired = []string{"companyName", "baseAddress", "detailAddress", "officePhone",
		"businessNumber", "customerName", "phoneNumber", "email"}
	supplierRequired = []string{"supplierUserName", "supplierUserEmail", "supplierUserPhoneNumber",
		"companyName", "businessNumber", "baseAddress", "detailAddress", "officePhone"}
)

// DecodeProfile decodes a business profile object.
//
// The variant is chosen by key presence: customerName selects a customer,
// otherwise supplierUserName selects a supplier, otherwise the object is an
// employee. Customer and supplier objects must carry every field as a string.
func DecodeProfile(raw []byte) (*Profile, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("profile is not valid JSON")
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return nil, fmt.Errorf("profile is not a JSON object")
	}

	switch {
	case obj.Get("customerName").Exists():
		if err := requireStrings(obj, customerRequired); err != nil {
			return nil, fmt.Errorf("customer profile: %w", err)
		}
		var p CustomerProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("customer profile: %w", err)
		}
		return &Profile{Kind: ProfileCustomer, Customer: &p}, nil

	case obj.Get("supplierUserName").Exists():
		if err := requireStrings(obj, supplierRequired); err != nil {
			return nil, fmt.Errorf("supplier profile: %w", err)
		}
		var p SupplierProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("supplier profile: %w", err)
		}
		return &Profile{Kind: ProfileSupplier, Supplier: &p}, nil

	default:
		var p EmployeeProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("employee profile: %w", err)
		}
		return &Profile{Kind: ProfileEmployee, Employee: &p}, nil
	}
}

func requireStrings(obj gjson.Result, keys []string) error {
	for _, key := range keys {
		v := obj.Get(key)
		if !v.Exists() {
			return fmt.Errorf("missing field %q", key)
		}
		if v.Type != gjson.String {
			return fmt.Errorf("field %q is not a string", key)
		}
	}
	return nil
}
