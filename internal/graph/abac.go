package graph

import "strings"

// ABAC attribute namespaces understood by the backend evaluator.
const (
	NamespaceUser     = "user"
	NamespaceResource = "resource"
)

// ABACOperators are the predicate operators an attribute condition accepts.
var ABACOperators = []string{"eq", "ne", "gt", "gte", "lt", "lte", "in"}

// ABACCondition is one attribute predicate on an approval stage. Conditions
// within a stage are ANDed by the backend; list order matters for display
// only. Value may be a literal or a {{reference}} resolved server-side.
type ABACCondition struct {
	Attribute string `json:"attribute"`
	Operator  string `json:"operator"`
	Value     string `json:"value"`
}

// IsReference reports whether the condition value is a server-resolved
// placeholder such as {{resource.department_id}}.
func (c ABACCondition) IsReference() bool {
	v := strings.TrimSpace(c.Value)
	return strings.HasPrefix(v, "{{") && strings.HasSuffix(v, "}}")
}

// Namespace returns the leading attribute namespace ("user", "resource"),
// or "" when the attribute is not namespaced.
func (c ABACCondition) Namespace() string {
	name, _, found := strings.Cut(c.Attribute, ".")
	if !found {
		return ""
	}
	return name
}

// ValidABACOperator reports whether op is one of the supported predicate
// operators.
func ValidABACOperator(op string) bool {
	for _, known := range ABACOperators {
		if op == known {
			return true
		}
	}
	return false
}
