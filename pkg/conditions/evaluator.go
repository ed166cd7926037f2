package conditions

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/types"
)

// DefaultMaxDepth guards against pathological condition-tree nesting.
// Evaluation below this depth short-circuits to false.
const DefaultMaxDepth = 64

// dateLayouts are accepted for date condition values, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Evaluator matches items against condition trees.
type Evaluator struct {
	maxDepth int
	logger   zerolog.Logger
}

// NewEvaluator creates an evaluator with the default depth guard.
func NewEvaluator() *Evaluator {
	return NewEvaluatorWithDepth(DefaultMaxDepth)
}

// NewEvaluatorWithDepth creates an evaluator with a custom depth guard.
func NewEvaluatorWithDepth(maxDepth int) *Evaluator {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Evaluator{
		maxDepth: maxDepth,
		logger:   logging.GetLogger("conditions.evaluator"),
	}
}

// Evaluate reports whether item matches the condition group.
func (e *Evaluator) Evaluate(item *types.FileItem, group types.ConditionGroup) bool {
	return e.evaluateGroup(item, group, 0)
}

func (e *Evaluator) evaluateGroup(item *types.FileItem, group types.ConditionGroup, depth int) bool {
	if depth > e.maxDepth {
		e.logger.Warn().
			Int("depth", depth).
			Msg("condition tree exceeds depth guard, failing group")
		return false
	}

	// An empty group applies no filtering.
	if len(group.Conditions) == 0 && len(group.Groups) == 0 {
		return true
	}

	if group.Operator == types.GroupOr {
		for _, cond := range group.Conditions {
			if e.evaluateCondition(item, cond) {
				return true
			}
		}
		for _, child := range group.Groups {
			if e.evaluateGroup(item, child, depth+1) {
				return true
			}
		}
		return false
	}

	// AND is the default for unknown operators.
	for _, cond := range group.Conditions {
		if !e.evaluateCondition(item, cond) {
			return false
		}
	}
	for _, child := range group.Groups {
		if !e.evaluateGroup(item, child, depth+1) {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluateCondition(item *types.FileItem, cond types.Condition) bool {
	switch cond.Field {
	case types.FieldName:
		return e.evaluateString(item.Name, cond)
	case types.FieldExtension:
		return e.evaluateString(strings.TrimPrefix(item.Extension, "."), cond)
	case types.FieldPath:
		return e.evaluateString(item.Path, cond)
	case types.FieldSize:
		return e.evaluateNumber(item.Size, cond)
	case types.FieldCreatedAt:
		return e.evaluateDate(item.CreatedAt, cond)
	case types.FieldModifiedAt:
		return e.evaluateDate(item.ModifiedAt, cond)
	case types.FieldIsDirectory:
		return e.evaluateBool(item.IsDirectory, cond)
	default:
		e.logger.Debug().
			Str("field", string(cond.Field)).
			Msg("unknown condition field")
		return false
	}
}

func (e *Evaluator) evaluateString(value string, cond types.Condition) bool {
	lv := strings.ToLower(value)
	lc := strings.ToLower(cond.Value)

	switch cond.Operator {
	case types.OpContains:
		return strings.Contains(lv, lc)
	case types.OpNotContains:
		return !strings.Contains(lv, lc)
	case types.OpEquals:
		return lv == lc
	case types.OpNotEquals:
		return lv != lc
	case types.OpStartsWith:
		return strings.HasPrefix(lv, lc)
	case types.OpEndsWith:
		return strings.HasSuffix(lv, lc)
	case types.OpRegex:
		re, err := regexp.Compile("(?i)" + cond.Value)
		if err != nil {
			e.logger.Debug().
				Err(err).
				Str("pattern", cond.Value).
				Msg("invalid regex in condition")
			return false
		}
		return re.MatchString(value)
	case types.OpGlob:
		ok, err := doublestar.Match(lc, lv)
		if err != nil {
			e.logger.Debug().
				Err(err).
				Str("pattern", cond.Value).
				Msg("invalid glob in condition")
			return false
		}
		return ok
	case types.OpIn:
		return containsFold(splitList(cond.Value), value)
	case types.OpNotIn:
		return !containsFold(splitList(cond.Value), value)
	default:
		return false
	}
}

func (e *Evaluator) evaluateNumber(value int64, cond types.Condition) bool {
	target, err := strconv.ParseInt(strings.TrimSpace(cond.Value), 10, 64)
	if err != nil {
		return false
	}
	switch cond.Operator {
	case types.OpEquals:
		return value == target
	case types.OpNotEquals:
		return value != target
	case types.OpGreaterThan:
		return value > target
	case types.OpLessThan:
		return value < target
	default:
		return false
	}
}

func (e *Evaluator) evaluateDate(value time.Time, cond types.Condition) bool {
	target, ok := parseDate(cond.Value)
	if !ok {
		return false
	}
	switch cond.Operator {
	case types.OpBefore, types.OpLessThan:
		return value.Before(target)
	case types.OpAfter, types.OpGreaterThan:
		return value.After(target)
	case types.OpEquals:
		return value.Truncate(24 * time.Hour).Equal(target.Truncate(24 * time.Hour))
	default:
		return false
	}
}

func (e *Evaluator) evaluateBool(value bool, cond types.Condition) bool {
	target := strings.EqualFold(strings.TrimSpace(cond.Value), "true")
	switch cond.Operator {
	case types.OpEquals:
		return value == target
	case types.OpNotEquals:
		return value != target
	default:
		return false
	}
}

func parseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsFold(list []string, value string) bool {
	for _, entry := range list {
		if strings.EqualFold(entry, value) {
			return true
		}
	}
	return false
}
