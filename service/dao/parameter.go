package dao

// Parameter represents a List filter
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter; multiple values are kept as a slice
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// Lookup returns the string values of the named parameter
func Lookup(name string, parameters []*Parameter) ([]string, bool) {
	for _, p := range parameters {
		if p == nil || p.Name != name {
			continue
		}
		switch v := p.Value.(type) {
		case string:
			return []string{v}, true
		case []string:
			return v, true
		}
	}
	return nil, false
}
