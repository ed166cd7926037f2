package classify

import "strings"

// Type categories used by fileType classification and the {type}
// naming placeholder.
const (
	CategoryImage    = "image"
	CategoryDocument = "document"
	CategoryVideo    = "video"
	CategoryAudio    = "audio"
	CategoryArchive  = "archive"
	CategoryCode     = "code"
	CategoryOther    = "other"
)

// extensionCategories is the fixed extension table mapping extensions
// (without dot, lowercase) to category buckets.
var extensionCategories = map[string]string{
	// images
	"jpg": CategoryImage, "jpeg": CategoryImage, "png": CategoryImage,
	"gif": CategoryImage, "bmp": CategoryImage, "webp": CategoryImage,
	"svg": CategoryImage, "tiff": CategoryImage, "heic": CategoryImage,
	"raw": CategoryImage, "ico": CategoryImage,

	// documents
	"pdf": CategoryDocument, "doc": CategoryDocument, "docx": CategoryDocument,
	"xls": CategoryDocument, "xlsx": CategoryDocument, "ppt": CategoryDocument,
	"pptx": CategoryDocument, "txt": CategoryDocument, "md": CategoryDocument,
	"rtf": CategoryDocument, "odt": CategoryDocument, "csv": CategoryDocument,

	// video
	"mp4": CategoryVideo, "mkv": CategoryVideo, "avi": CategoryVideo,
	"mov": CategoryVideo, "wmv": CategoryVideo, "flv": CategoryVideo,
	"webm": CategoryVideo, "m4v": CategoryVideo, "mpg": CategoryVideo,
	"mpeg": CategoryVideo,

	// audio
	"mp3": CategoryAudio, "wav": CategoryAudio, "flac": CategoryAudio,
	"aac": CategoryAudio, "ogg": CategoryAudio, "m4a": CategoryAudio,
	"wma": CategoryAudio, "opus": CategoryAudio,

	// archives
	"zip": CategoryArchive, "rar": CategoryArchive, "7z": CategoryArchive,
	"tar": CategoryArchive, "gz": CategoryArchive, "bz2": CategoryArchive,
	"xz": CategoryArchive, "iso": CategoryArchive,

	// code
	"go": CategoryCode, "js": CategoryCode, "ts": CategoryCode,
	"py": CategoryCode, "java": CategoryCode, "c": CategoryCode,
	"cpp": CategoryCode, "h": CategoryCode, "rs": CategoryCode,
	"rb": CategoryCode, "sh": CategoryCode, "html": CategoryCode,
	"css": CategoryCode, "json": CategoryCode, "yaml": CategoryCode,
	"yml": CategoryCode, "toml": CategoryCode, "sql": CategoryCode,
}

// TypeCategory maps an extension (with or without leading dot) onto
// its category bucket.
func TypeCategory(ext string) string {
	key := strings.ToLower(strings.TrimPrefix(ext, "."))
	if cat, ok := extensionCategories[key]; ok {
		return cat
	}
	return CategoryOther
}
