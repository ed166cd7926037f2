package classify

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fsweep/fsweep/pkg/logging"
	"github.com/fsweep/fsweep/pkg/types"
)

// Engine computes the classification segment prepended to an action's
// destination directory.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a classification engine.
func NewEngine() *Engine {
	return &Engine{logger: logging.GetLogger("classify.engine")}
}

// Segment returns the relative subfolder path for item under cfg, or
// an empty string when no classification applies. The returned
// segment uses the platform separator and never escapes the
// destination.
func (e *Engine) Segment(cfg types.ClassifyConfig, item *types.FileItem) string {
	switch cfg.Effective() {
	case types.ClassifyNone:
		return ""
	case types.ClassifyFileType:
		return TypeCategory(item.Extension)
	case types.ClassifyCreatedDate:
		return dateSegment(item.CreatedAt, cfg.DateGrouping)
	case types.ClassifyModifiedDate:
		return dateSegment(item.ModifiedAt, cfg.DateGrouping)
	case types.ClassifyFileSize:
		return e.sizeSegment(cfg, item.Size)
	case types.ClassifyExtension:
		ext := strings.ToLower(strings.TrimPrefix(item.Extension, "."))
		if ext == "" {
			return "no-extension"
		}
		return ext
	case types.ClassifyPreserveStructure:
		// Files only: mirror the item's directory chain under its
		// matched input root.
		if item.IsDirectory {
			return ""
		}
		dir := filepath.Dir(item.RelPath)
		if dir == "." || dir == string(filepath.Separator) {
			return ""
		}
		return dir
	default:
		return ""
	}
}

func dateSegment(t time.Time, grouping types.DateGrouping) string {
	switch grouping {
	case types.GroupYearMonth:
		return t.Format("2006/01")
	case types.GroupYearMonthDay:
		return t.Format("2006/01/02")
	case types.GroupQuarter:
		quarter := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%d/Q%d", t.Year(), quarter)
	case types.GroupMonthName:
		return t.Format("2006/January")
	case types.GroupYear, "":
		return t.Format("2006")
	default:
		return t.Format("2006")
	}
}

func (e *Engine) sizeSegment(cfg types.ClassifyConfig, size int64) string {
	if len(cfg.SizeRanges) > 0 {
		for _, r := range cfg.SizeRanges {
			mult := unitMultiplier(r.Unit)
			min := r.MinSize * mult
			if size < min {
				continue
			}
			if r.MaxSize < 0 || size < r.MaxSize*mult {
				return r.FolderName
			}
		}
		return "unclassified"
	}

	preset := string(cfg.SizePreset)
	if preset == "" {
		preset = "general"
	}
	buckets, ok := sizePresets[preset]
	if !ok {
		e.logger.Warn().
			Str("preset", preset).
			Msg("unknown size preset, falling back to general")
		buckets = sizePresets["general"]
	}
	if label := matchBuckets(buckets, size); label != "" {
		return label
	}
	return "unclassified"
}
