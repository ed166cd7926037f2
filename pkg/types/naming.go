package types

// NamingMode selects the strategy used to compute an item's new name.
type NamingMode string

const (
	NameOriginal     NamingMode = "original"
	NameDate         NamingMode = "date"
	NameTimestamp    NamingMode = "timestamp"
	NameFileCreated  NamingMode = "fileCreated"
	NameFileModified NamingMode = "fileModified"
	NameCounter      NamingMode = "counter"
	NamePrefix       NamingMode = "prefix"
	NameSuffix       NamingMode = "suffix"
	NameReplace      NamingMode = "replace"
	NameCase         NamingMode = "case"
	NameCustom       NamingMode = "custom"
	NameAdvanced     NamingMode = "advanced"
)

// CaseKind is the case transform applied by case naming.
type CaseKind string

const (
	CaseLower CaseKind = "lower"
	CaseUpper CaseKind = "upper"
	CaseTitle CaseKind = "title"
)

// NamingRuleType identifies one atomic transform in an advanced rule
// chain.
type NamingRuleType string

const (
	RulePrefix  NamingRuleType = "prefix"
	RuleSuffix  NamingRuleType = "suffix"
	RuleReplace NamingRuleType = "replace"
	RuleCase    NamingRuleType = "case"
	RuleCounter NamingRuleType = "counter"
	RuleDate    NamingRuleType = "date"
	RuleCustom  NamingRuleType = "custom"
)

// NamingRule is one ordered transform in an advanced naming chain.
// Rules fold left to right over the name produced by the previous rule;
// disabled rules are skipped without breaking the chain.
type NamingRule struct {
	Type    NamingRuleType `yaml:"type" toml:"type" json:"type"`
	Order   int            `yaml:"order" toml:"order" json:"order"`
	Enabled bool           `yaml:"enabled" toml:"enabled" json:"enabled"`

	Value string   `yaml:"value,omitempty" toml:"value,omitempty" json:"value,omitempty"`
	From  string   `yaml:"from,omitempty" toml:"from,omitempty" json:"from,omitempty"`
	To    string   `yaml:"to,omitempty" toml:"to,omitempty" json:"to,omitempty"`
	Case  CaseKind `yaml:"case,omitempty" toml:"case,omitempty" json:"case,omitempty"`

	CounterStart   int `yaml:"counterStart,omitempty" toml:"counterStart,omitempty" json:"counterStart,omitempty"`
	CounterPadding int `yaml:"counterPadding,omitempty" toml:"counterPadding,omitempty" json:"counterPadding,omitempty"`
}

// NamingPattern configures the naming engine for one action. Only the
// fields relevant to Mode are consulted.
type NamingPattern struct {
	Mode NamingMode `yaml:"mode" toml:"mode" json:"mode"`

	// Value holds the prefix/suffix text or the custom template,
	// depending on Mode.
	Value string `yaml:"value,omitempty" toml:"value,omitempty" json:"value,omitempty"`

	From string   `yaml:"from,omitempty" toml:"from,omitempty" json:"from,omitempty"`
	To   string   `yaml:"to,omitempty" toml:"to,omitempty" json:"to,omitempty"`
	Case CaseKind `yaml:"case,omitempty" toml:"case,omitempty" json:"case,omitempty"`

	CounterStart   int `yaml:"counterStart,omitempty" toml:"counterStart,omitempty" json:"counterStart,omitempty"`
	CounterPadding int `yaml:"counterPadding,omitempty" toml:"counterPadding,omitempty" json:"counterPadding,omitempty"`

	// RemoveSpaces and RemoveSpecialChars sanitize the {name} component
	// before substitution, not the fully resolved string.
	RemoveSpaces       bool `yaml:"removeSpaces,omitempty" toml:"removeSpaces,omitempty" json:"removeSpaces,omitempty"`
	RemoveSpecialChars bool `yaml:"removeSpecialChars,omitempty" toml:"removeSpecialChars,omitempty" json:"removeSpecialChars,omitempty"`

	Rules []NamingRule `yaml:"rules,omitempty" toml:"rules,omitempty" json:"rules,omitempty"`
}
