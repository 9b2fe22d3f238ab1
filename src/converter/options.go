package converter

import "fmt"

type QualityLevel string

const (
	// Any unsupported block fails the whole page
	QualityStrict QualityLevel = "strict"
	// Unsupported blocks follow the unsupported policy
	QualityStandard QualityLevel = "standard"
	// Like standard, and malformed payloads are rendered best effort
	QualityLenient QualityLevel = "lenient"
)

type ColumnPolicy string

const (
	ColumnMerge     ColumnPolicy = "merge"
	ColumnSeparator ColumnPolicy = "separator"
	ColumnWarning   ColumnPolicy = "warning"
)

type UnsupportedPolicy string

const (
	UnsupportedSkip        UnsupportedPolicy = "skip"
	UnsupportedPlaceholder UnsupportedPolicy = "placeholder"
	UnsupportedWarning     UnsupportedPolicy = "warning"
)

// Markers left in the body where content could not be rendered
const (
	MARKER_UNSUPPORTED  = "<!-- unsupported block: %s -->"
	MARKER_COLUMNS      = "<!-- column layout omitted -->"
	MARKER_MAX_DEPTH    = "<!-- max depth reached -->"
	COLUMN_SEPARATOR    = "---"
	INDENT              = "    "
	DEFAULT_QUALITY     = QualityStandard
	DEFAULT_COLUMNS     = ColumnMerge
	DEFAULT_UNSUPPORTED = UnsupportedPlaceholder
)

type Options struct {
	Quality     QualityLevel
	Columns     ColumnPolicy
	Unsupported UnsupportedPolicy
}

func DefaultOptions() Options {
	return Options{
		Quality:     DEFAULT_QUALITY,
		Columns:     DEFAULT_COLUMNS,
		Unsupported: DEFAULT_UNSUPPORTED,
	}
}

func (o Options) Validate() error {
	switch o.Quality {
	case QualityStrict, QualityStandard, QualityLenient:
	default:
		return fmt.Errorf("unknown quality level %q", o.Quality)
	}

	switch o.Columns {
	case ColumnMerge, ColumnSeparator, ColumnWarning:
	default:
		return fmt.Errorf("unknown column layout policy %q", o.Columns)
	}

	switch o.Unsupported {
	case UnsupportedSkip, UnsupportedPlaceholder, UnsupportedWarning:
	default:
		return fmt.Errorf("unknown unsupported block policy %q", o.Unsupported)
	}
	return nil
}

// UnsupportedMarker returns the placeholder left for a block of the given
// type.
func UnsupportedMarker(blockType string) string {
	return fmt.Sprintf(MARKER_UNSUPPORTED, blockType)
}
