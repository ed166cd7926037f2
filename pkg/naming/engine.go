package naming

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/classify"
	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/types"
)

const (
	defaultCounterStart   = 1
	defaultCounterPadding = 3

	dateLayout      = "2006-01-02"
	timeLayout      = "15-04-05"
	timestampLayout = "20060102-150405"
)

// Engine resolves naming patterns into file names.
type Engine struct {
	logger zerolog.Logger

	// Fallbacks for counter patterns that leave start or padding unset.
	counterStart   int
	counterPadding int

	// now is swappable so date-derived names are deterministic in
	// tests.
	now func() time.Time
}

// NewEngine creates a naming engine.
func NewEngine() *Engine {
	return &Engine{
		logger:         logging.GetLogger("naming.engine"),
		counterStart:   defaultCounterStart,
		counterPadding: defaultCounterPadding,
		now:            time.Now,
	}
}

// NewEngineWithDefaults creates a naming engine with configured counter
// fallbacks. Non-positive values keep the built-in defaults.
func NewEngineWithDefaults(counterStart, counterPadding int) *Engine {
	e := NewEngine()
	if counterStart > 0 {
		e.counterStart = counterStart
	}
	if counterPadding > 0 {
		e.counterPadding = counterPadding
	}
	return e
}

// Resolve computes the item's new name, extension included. index is
// the item's 0-based position within the current batch run.
func (e *Engine) Resolve(pattern types.NamingPattern, item *types.FileItem, index int) string {
	stem := e.resolveStem(pattern, item, index)
	if stem == "" {
		stem = item.Stem()
	}

	// Custom templates may place {ext} themselves; everything else
	// keeps the item's original extension.
	if pattern.Mode == types.NameCustom && strings.Contains(pattern.Value, "{ext}") {
		return stem
	}
	return stem + item.Extension
}

func (e *Engine) resolveStem(pattern types.NamingPattern, item *types.FileItem, index int) string {
	name := sanitize(item.Stem(), pattern.RemoveSpaces, pattern.RemoveSpecialChars)

	switch pattern.Mode {
	case types.NameOriginal, "":
		return name
	case types.NameDate:
		return e.now().Format(dateLayout)
	case types.NameTimestamp:
		return e.now().Format(timestampLayout)
	case types.NameFileCreated:
		return item.CreatedAt.Format(dateLayout)
	case types.NameFileModified:
		return item.ModifiedAt.Format(dateLayout)
	case types.NameCounter:
		return e.counter(pattern.CounterStart, pattern.CounterPadding, index)
	case types.NamePrefix:
		return pattern.Value + name
	case types.NameSuffix:
		return name + pattern.Value
	case types.NameReplace:
		if pattern.From == "" {
			return name
		}
		return strings.ReplaceAll(name, pattern.From, pattern.To)
	case types.NameCase:
		return applyCase(name, pattern.Case)
	case types.NameCustom:
		return e.substitute(pattern.Value, name, item, pattern, index)
	case types.NameAdvanced:
		return e.applyRules(pattern.Rules, name, item, index)
	default:
		e.logger.Debug().
			Str("mode", string(pattern.Mode)).
			Msg("unknown naming mode, keeping original name")
		return name
	}
}

// substitute expands the placeholder table into template. name is the
// already-sanitized {name} component.
func (e *Engine) substitute(template, name string, item *types.FileItem, pattern types.NamingPattern, index int) string {
	now := e.now()
	replacer := strings.NewReplacer(
		"{name}", name,
		"{ext}", strings.TrimPrefix(item.Extension, "."),
		"{date}", now.Format(dateLayout),
		"{time}", now.Format(timeLayout),
		"{counter}", e.counter(pattern.CounterStart, pattern.CounterPadding, index),
		"{type}", classify.TypeCategory(item.Extension),
		"{year}", now.Format("2006"),
		"{month}", now.Format("01"),
		"{day}", now.Format("02"),
		"{hour}", now.Format("15"),
		"{minute}", now.Format("04"),
		"{second}", now.Format("05"),
	)
	return replacer.Replace(template)
}

// applyRules folds the ordered, enabled rule chain left to right over
// the name produced by the previous rule.
func (e *Engine) applyRules(rules []types.NamingRule, name string, item *types.FileItem, index int) string {
	ordered := make([]types.NamingRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, rule := range ordered {
		if !rule.Enabled {
			continue
		}
		switch rule.Type {
		case types.RulePrefix:
			name = rule.Value + name
		case types.RuleSuffix:
			name = name + rule.Value
		case types.RuleReplace:
			if rule.From != "" {
				name = strings.ReplaceAll(name, rule.From, rule.To)
			}
		case types.RuleCase:
			name = applyCase(name, rule.Case)
		case types.RuleCounter:
			name = name + e.counter(rule.CounterStart, rule.CounterPadding, index)
		case types.RuleDate:
			layout := rule.Value
			if layout == "" {
				layout = dateLayout
			}
			name = name + e.now().Format(layout)
		case types.RuleCustom:
			pattern := types.NamingPattern{
				CounterStart:   rule.CounterStart,
				CounterPadding: rule.CounterPadding,
			}
			name = e.substitute(rule.Value, name, item, pattern, index)
		}
	}
	return name
}

// counter renders zeroPad(start+index, padding) with engine defaults
// for unset values.
func (e *Engine) counter(start, padding, index int) string {
	if start <= 0 {
		start = e.counterStart
	}
	if padding <= 0 {
		padding = e.counterPadding
	}
	return fmt.Sprintf("%0*d", padding, start+index)
}

func applyCase(name string, kind types.CaseKind) string {
	switch kind {
	case types.CaseLower:
		return strings.ToLower(name)
	case types.CaseUpper:
		return strings.ToUpper(name)
	case types.CaseTitle:
		return titleCase(name)
	default:
		return name
	}
}

func titleCase(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) && upperNext:
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
			upperNext = true
		}
	}
	return b.String()
}

// sanitize applies the {name}-component cleanups. It never touches the
// fully resolved string.
func sanitize(name string, removeSpaces, removeSpecialChars bool) string {
	if removeSpaces {
		name = strings.ReplaceAll(name, " ", "")
	}
	if removeSpecialChars {
		var b strings.Builder
		for _, r := range name {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' || r == '.' {
				b.WriteRune(r)
			}
		}
		name = b.String()
	}
	return name
}
