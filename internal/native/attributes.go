package native

import (
	"fmt"
	"strconv"
)

// Attribute categories.
const (
	CategorySubject     = "urn:oasis:names:tc:xacml:1.0:subject-category:access-subject"
	CategoryResource    = "urn:oasis:names:tc:xacml:3.0:attribute-category:resource"
	CategoryAction      = "urn:oasis:names:tc:xacml:3.0:attribute-category:action"
	CategoryEnvironment = "urn:oasis:names:tc:xacml:3.0:attribute-category:environment"
)

// Data types.
const (
	DataTypeString  = "http://www.w3.org/2001/XMLSchema#string"
	DataTypeInteger = "http://www.w3.org/2001/XMLSchema#integer"
	DataTypeBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// Well-known attribute ids.
const (
	AttributeSubjectID  = "urn:oasis:names:tc:xacml:1.0:subject:subject-id"
	AttributeActionID   = "urn:oasis:names:tc:xacml:1.0:action:action-id"
	AttributeResourceID = "urn:oasis:names:tc:xacml:1.0:resource:resource-id"
)

// AttributeValue is a typed literal. Values are carried as strings.
type AttributeValue struct {
	DataType string `json:"dataType,omitempty"`
	Value    string `json:"value"`
}

func StringValue(s string) AttributeValue {
	return AttributeValue{DataType: DataTypeString, Value: s}
}

func IntegerValue(n int64) AttributeValue {
	return AttributeValue{DataType: DataTypeInteger, Value: strconv.FormatInt(n, 10)}
}

func BooleanValue(b bool) AttributeValue {
	return AttributeValue{DataType: DataTypeBoolean, Value: strconv.FormatBool(b)}
}

// Int parses the value as an integer.
func (v AttributeValue) Int() (int64, error) {
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute value %q is not an integer", v.Value)
	}
	return n, nil
}

// Bool parses the value as a boolean.
func (v AttributeValue) Bool() (bool, error) {
	b, err := strconv.ParseBool(v.Value)
	if err != nil {
		return false, fmt.Errorf("attribute value %q is not a boolean", v.Value)
	}
	return b, nil
}

// Attribute is a named bag of values inside a category.
type Attribute struct {
	ID              string           `json:"attributeId"`
	Issuer          string           `json:"issuer,omitempty"`
	Values          []AttributeValue `json:"values"`
	IncludeInResult bool             `json:"includeInResult,omitempty"`
}

// Category groups attributes, e.g. the resource or the subject.
type Category struct {
	ID         string      `json:"category"`
	Attributes []Attribute `json:"attributes"`
}

// Designator references request attributes by category and id. A non-empty
// issuer restricts the lookup to attributes with that issuer and is also used
// to select attribute providers.
type Designator struct {
	Category      string `json:"category"`
	AttributeID   string `json:"attributeId"`
	DataType      string `json:"dataType,omitempty"`
	Issuer        string `json:"issuer,omitempty"`
	MustBePresent bool   `json:"mustBePresent,omitempty"`
}

// Request is a native decision request.
type Request struct {
	Categories         []Category `json:"categories"`
	ReturnPolicyIDList bool       `json:"returnPolicyIdList,omitempty"`
}

// Add appends values for an attribute, creating the category as needed.
func (r *Request) Add(category, attributeID string, values ...AttributeValue) {
	r.AddAttribute(category, Attribute{ID: attributeID, Values: values})
}

// AddAttribute appends an attribute to the first category with the given id.
func (r *Request) AddAttribute(category string, attr Attribute) {
	for i := range r.Categories {
		if r.Categories[i].ID == category {
			r.Categories[i].Attributes = append(r.Categories[i].Attributes, attr)
			return
		}
	}
	r.Categories = append(r.Categories, Category{ID: category, Attributes: []Attribute{attr}})
}

// Values returns all values of matching attributes. An empty issuer matches
// any attribute issuer.
func (r *Request) Values(d Designator) []AttributeValue {
	var out []AttributeValue
	for _, c := range r.Categories {
		if c.ID != d.Category {
			continue
		}
		for _, a := range c.Attributes {
			if a.ID != d.AttributeID {
				continue
			}
			if d.Issuer != "" && a.Issuer != d.Issuer {
				continue
			}
			for _, v := range a.Values {
				if d.DataType == "" || v.DataType == "" || v.DataType == d.DataType {
					out = append(out, v)
				}
			}
		}
	}
	return out
}
