package types

// ClassifyBy selects how a destination subfolder segment is computed
// for move/copy actions.
type ClassifyBy string

const (
	ClassifyNone              ClassifyBy = "none"
	ClassifyFileType          ClassifyBy = "fileType"
	ClassifyCreatedDate       ClassifyBy = "createdDate"
	ClassifyModifiedDate      ClassifyBy = "modifiedDate"
	ClassifyFileSize          ClassifyBy = "fileSize"
	ClassifyExtension         ClassifyBy = "extension"
	ClassifyPreserveStructure ClassifyBy = "preserveStructure"
)

// DateGrouping controls the folder layout for date classification.
type DateGrouping string

const (
	GroupYear         DateGrouping = "year"
	GroupYearMonth    DateGrouping = "yearMonth"
	GroupYearMonthDay DateGrouping = "yearMonthDay"
	GroupQuarter      DateGrouping = "quarter"
	GroupMonthName    DateGrouping = "monthName"
)

// SizePreset names a fixed ordered list of size buckets.
type SizePreset string

const (
	PresetGeneral SizePreset = "general"
	PresetPhoto   SizePreset = "photo"
	PresetVideo   SizePreset = "video"
)

// SizeRange is one custom size bucket. MaxSize = -1 means unlimited.
// Ranges are matched in configured order; the first range whose bounds
// contain the item size wins, so ordering is load-bearing.
type SizeRange struct {
	MinSize    int64  `yaml:"minSize" toml:"minSize" json:"minSize"`
	MaxSize    int64  `yaml:"maxSize" toml:"maxSize" json:"maxSize"`
	Unit       string `yaml:"unit" toml:"unit" json:"unit"` // B, KB, MB, GB
	FolderName string `yaml:"folderName" toml:"folderName" json:"folderName"`
}

// ClassifyConfig configures the classification engine for one action.
//
// The legacy flags predate the explicit By field and may coexist with
// it in old workflow documents. Precedence: By wins when set to
// anything other than none; otherwise CreateSubfolders implies
// fileType classification; otherwise PreserveFolderStructure implies
// preserveStructure.
type ClassifyConfig struct {
	By           ClassifyBy   `yaml:"by" toml:"by" json:"by"`
	DateGrouping DateGrouping `yaml:"dateGrouping,omitempty" toml:"dateGrouping,omitempty" json:"dateGrouping,omitempty"`
	SizePreset   SizePreset   `yaml:"sizePreset,omitempty" toml:"sizePreset,omitempty" json:"sizePreset,omitempty"`
	SizeRanges   []SizeRange  `yaml:"sizeRanges,omitempty" toml:"sizeRanges,omitempty" json:"sizeRanges,omitempty"`

	CreateSubfolders        bool `yaml:"createSubfolders,omitempty" toml:"createSubfolders,omitempty" json:"createSubfolders,omitempty"`
	PreserveFolderStructure bool `yaml:"preserveFolderStructure,omitempty" toml:"preserveFolderStructure,omitempty" json:"preserveFolderStructure,omitempty"`
}

// Effective resolves the legacy-flag precedence into a concrete
// ClassifyBy value.
func (c ClassifyConfig) Effective() ClassifyBy {
	if c.By != "" && c.By != ClassifyNone {
		return c.By
	}
	if c.By == ClassifyNone {
		return ClassifyNone
	}
	if c.CreateSubfolders {
		return ClassifyFileType
	}
	if c.PreserveFolderStructure {
		return ClassifyPreserveStructure
	}
	return ClassifyNone
}
