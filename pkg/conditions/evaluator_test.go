package conditions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fsweep/fsweep/pkg/types"
)

func testItem() *types.FileItem {
	return &types.FileItem{
		ID:         "item-1",
		Path:       "/home/user/Downloads/Report Final.PDF",
		Name:       "Report Final.PDF",
		Extension:  ".PDF",
		Size:       2 * 1024 * 1024,
		CreatedAt:  time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		ModifiedAt: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		Root:       "/home/user/Downloads",
		RelPath:    "Report Final.PDF",
	}
}

func TestEvaluate_StringOperators(t *testing.T) {
	tests := []struct {
		name     string
		cond     types.Condition
		expected bool
	}{
		{
			name:     "contains is case insensitive",
			cond:     types.Condition{Field: types.FieldName, Operator: types.OpContains, Value: "report"},
			expected: true,
		},
		{
			name:     "notContains",
			cond:     types.Condition{Field: types.FieldName, Operator: types.OpNotContains, Value: "invoice"},
			expected: true,
		},
		{
			name:     "equals ignores case",
			cond:     types.Condition{Field: types.FieldName, Operator: types.OpEquals, Value: "report final.pdf"},
			expected: true,
		},
		{
			name:     "extension matches without leading dot",
			cond:     types.Condition{Field: types.FieldExtension, Operator: types.OpEquals, Value: "pdf"},
			expected: true,
		},
		{
			name:     "startsWith",
			cond:     types.Condition{Field: types.FieldName, Operator: types.OpStartsWith, Value: "REPORT"},
			expected: true,
		},
		{
			name:     "endsWith misses",
			cond:     types.Condition{Field: types.FieldName, Operator: types.OpEndsWith, Value: ".docx"},
			expected: false,
		},
		{
			name:     "regex is case insensitive",
			cond:     types.Condition{Field: types.FieldName, Operator: types.OpRegex, Value: `^report\s+final`},
			expected: true,
		},
		{
			name:     "invalid regex fails the condition",
			cond:     types.Condition{Field: types.FieldName, Operator: types.OpRegex, Value: `([unclosed`},
			expected: false,
		},
		{
			name:     "glob",
			cond:     types.Condition{Field: types.FieldName, Operator: types.OpGlob, Value: "report*.pdf"},
			expected: true,
		},
		{
			name:     "in list",
			cond:     types.Condition{Field: types.FieldExtension, Operator: types.OpIn, Value: "pdf, docx, txt"},
			expected: true,
		},
		{
			name:     "notIn list",
			cond:     types.Condition{Field: types.FieldExtension, Operator: types.OpNotIn, Value: "jpg,png"},
			expected: true,
		},
	}

	e := NewEvaluator()
	item := testItem()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := types.ConditionGroup{Conditions: []types.Condition{tt.cond}}
			assert.Equal(t, tt.expected, e.Evaluate(item, group))
		})
	}
}

func TestEvaluate_NumberAndDate(t *testing.T) {
	tests := []struct {
		name     string
		cond     types.Condition
		expected bool
	}{
		{
			name:     "size greater than",
			cond:     types.Condition{Field: types.FieldSize, Operator: types.OpGreaterThan, Value: "1048576"},
			expected: true,
		},
		{
			name:     "size less than misses",
			cond:     types.Condition{Field: types.FieldSize, Operator: types.OpLessThan, Value: "1048576"},
			expected: false,
		},
		{
			name:     "unparseable number fails",
			cond:     types.Condition{Field: types.FieldSize, Operator: types.OpGreaterThan, Value: "lots"},
			expected: false,
		},
		{
			name:     "modified after date-only value",
			cond:     types.Condition{Field: types.FieldModifiedAt, Operator: types.OpAfter, Value: "2024-05-01"},
			expected: true,
		},
		{
			name:     "created before RFC3339 value",
			cond:     types.Condition{Field: types.FieldCreatedAt, Operator: types.OpBefore, Value: "2024-04-01T00:00:00Z"},
			expected: true,
		},
		{
			name:     "unparseable date fails",
			cond:     types.Condition{Field: types.FieldCreatedAt, Operator: types.OpBefore, Value: "yesterday"},
			expected: false,
		},
	}

	e := NewEvaluator()
	item := testItem()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := types.ConditionGroup{Conditions: []types.Condition{tt.cond}}
			assert.Equal(t, tt.expected, e.Evaluate(item, group))
		})
	}
}

func TestEvaluate_EmptyGroupMatchesEverything(t *testing.T) {
	e := NewEvaluator()
	assert.True(t, e.Evaluate(testItem(), types.ConditionGroup{}))
	assert.True(t, e.Evaluate(testItem(), types.ConditionGroup{Operator: types.GroupAnd}))
	assert.True(t, e.Evaluate(testItem(), types.ConditionGroup{Operator: types.GroupOr}))
}

func TestEvaluate_NestedGroups(t *testing.T) {
	item := testItem()
	e := NewEvaluator()

	// (extension == pdf AND (name contains report OR name contains invoice))
	group := types.ConditionGroup{
		Operator: types.GroupAnd,
		Conditions: []types.Condition{
			{Field: types.FieldExtension, Operator: types.OpEquals, Value: "pdf"},
		},
		Groups: []types.ConditionGroup{
			{
				Operator: types.GroupOr,
				Conditions: []types.Condition{
					{Field: types.FieldName, Operator: types.OpContains, Value: "report"},
					{Field: types.FieldName, Operator: types.OpContains, Value: "invoice"},
				},
			},
		},
	}
	assert.True(t, e.Evaluate(item, group))

	group.Conditions[0].Value = "docx"
	assert.False(t, e.Evaluate(item, group))
}

func TestEvaluate_DepthGuard(t *testing.T) {
	e := NewEvaluatorWithDepth(3)

	// Nest a matching condition below the guard depth; the whole
	// branch must fail closed.
	leaf := types.ConditionGroup{
		Conditions: []types.Condition{
			{Field: types.FieldExtension, Operator: types.OpEquals, Value: "pdf"},
		},
	}
	group := leaf
	for i := 0; i < 5; i++ {
		group = types.ConditionGroup{Groups: []types.ConditionGroup{group}}
	}
	assert.False(t, e.Evaluate(testItem(), group))
}

func TestEvaluate_UnknownFieldAndOperator(t *testing.T) {
	e := NewEvaluator()
	item := testItem()

	assert.False(t, e.Evaluate(item, types.ConditionGroup{
		Conditions: []types.Condition{{Field: "owner", Operator: types.OpEquals, Value: "root"}},
	}))
	assert.False(t, e.Evaluate(item, types.ConditionGroup{
		Conditions: []types.Condition{{Field: types.FieldName, Operator: "sounds-like", Value: "report"}},
	}))
}
