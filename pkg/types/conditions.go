package types

// GroupOperator combines the results of a ConditionGroup's direct
// conditions and child groups.
type GroupOperator string

const (
	GroupAnd GroupOperator = "and"
	GroupOr  GroupOperator = "or"
)

// ConditionField names an item attribute a condition evaluates against.
type ConditionField string

const (
	FieldName        ConditionField = "name"
	FieldExtension   ConditionField = "extension"
	FieldPath        ConditionField = "path"
	FieldSize        ConditionField = "size"
	FieldCreatedAt   ConditionField = "createdAt"
	FieldModifiedAt  ConditionField = "modifiedAt"
	FieldIsDirectory ConditionField = "isDirectory"
)

// ConditionOperator is the comparison applied between the item's field
// value and the condition's value.
type ConditionOperator string

const (
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "notContains"
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "notEquals"
	OpStartsWith  ConditionOperator = "startsWith"
	OpEndsWith    ConditionOperator = "endsWith"
	OpRegex       ConditionOperator = "regex"
	OpGlob        ConditionOperator = "glob"
	OpIn          ConditionOperator = "in"
	OpNotIn       ConditionOperator = "notIn"
	OpGreaterThan ConditionOperator = "greaterThan"
	OpLessThan    ConditionOperator = "lessThan"
	OpBefore      ConditionOperator = "before"
	OpAfter       ConditionOperator = "after"
)

// Condition is a single field/operator/value comparison. Value is kept
// as a string in serialized form; numeric and date fields parse it at
// evaluation time.
type Condition struct {
	Field    ConditionField    `yaml:"field" toml:"field" json:"field"`
	Operator ConditionOperator `yaml:"operator" toml:"operator" json:"operator"`
	Value    string            `yaml:"value" toml:"value" json:"value"`
}

// ConditionGroup is a node in the condition tree. An empty group (no
// conditions and no child groups) matches everything.
type ConditionGroup struct {
	Operator   GroupOperator    `yaml:"operator" toml:"operator" json:"operator"`
	Conditions []Condition      `yaml:"conditions,omitempty" toml:"conditions,omitempty" json:"conditions,omitempty"`
	Groups     []ConditionGroup `yaml:"groups,omitempty" toml:"groups,omitempty" json:"groups,omitempty"`
}

// IsEmpty reports whether the group carries no conditions at any level.
func (g ConditionGroup) IsEmpty() bool {
	if len(g.Conditions) > 0 {
		return false
	}
	for _, child := range g.Groups {
		if !child.IsEmpty() {
			return false
		}
	}
	return true
}
