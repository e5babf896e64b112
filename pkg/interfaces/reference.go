package interfaces

// FunctionDescriptor is the reference record for a single function. It is
// produced by the extractor and consumed read-only by the display
// components; nil pointers mean the field was absent in the source.
type FunctionDescriptor struct {
	Name      string    `json:"name"`
	Signature string    `json:"signature"`
	Summary   *string   `json:"summary"`
	Desc      *string   `json:"desc"`
	Args      []Arg     `json:"args"`
	Returns   *string   `json:"returns"`
	Examples  []Example `json:"examples"`
}

// Arg describes one parameter of a FunctionDescriptor.
type Arg struct {
	Name string  `json:"name"`
	Type *string `json:"type"`
	Desc *string `json:"desc"`
}

// Example is a usage sample attached to a FunctionDescriptor.
type Example struct {
	Desc *string `json:"desc"`
	Code string  `json:"code"`
}

// StringPtr returns a pointer to value, or nil when value is empty.
func StringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
