package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/sawantshivaji1997/notionsync/src/model"
)

const (
	DEFAULT_NAMING_PATTERN = "{title}"
	FALLBACK_TITLE         = "Untitled"
	// Leaves room for the id suffix and the extension within the 255 byte
	// limit most filesystems put on a name
	MAX_FILENAME_BYTES     = 200
	TITLE_HASH_LENGTH      = 8
	ID_SUFFIX_LENGTH       = 8
	DATE_LAYOUT            = "2006-01-02"
	UNKNOWN_DATE           = "unknown"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// Windows refuses these as base names, with or without an extension
	reservedNames = map[string]struct{}{
		"con": {}, "prn": {}, "aux": {}, "nul": {},
		"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
		"com6": {}, "com7": {}, "com8": {}, "com9": {},
		"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
		"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
	}
)

func isIllegal(r rune) bool {
	return strings.ContainsRune(`<>:"/\|?*`, r) || unicode.IsControl(r)
}

// SanitizeFilename turns a title into a base name that is legal on common
// filesystems. Names longer than MAX_FILENAME_BYTES bytes of UTF-8 are cut on
// a rune boundary and end with a short hash of the full title, so two long
// titles sharing a prefix still get different names.
func SanitizeFilename(title string) string {
	safe := strings.Map(func(r rune) rune {
		if isIllegal(r) {
			return '-'
		}
		return r
	}, title)
	safe = strings.TrimSpace(whitespaceRun.ReplaceAllString(safe, " "))

	if len(safe) > MAX_FILENAME_BYTES {
		keep := cutAtRune(safe, MAX_FILENAME_BYTES-TITLE_HASH_LENGTH-1)
		safe = trimTrailing(keep) + "-" + shortHash(title)
	}

	safe = trimTrailing(safe)
	if safe == "" {
		return FALLBACK_TITLE
	}
	if _, reserved := reservedNames[strings.ToLower(safe)]; reserved {
		safe = "_" + safe
	}
	return safe
}

// cutAtRune returns the longest prefix of s of at most n bytes that does not
// split a rune
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func trimTrailing(s string) string {
	return strings.TrimRight(s, ". ")
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:TITLE_HASH_LENGTH]
}

// FileName expands the naming pattern for a page. Supported tokens are
// {title}, {id} and {date}, the creation date of the page.
func FileName(pattern string, page *model.Page) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = DEFAULT_NAMING_PATTERN
	}

	date := UNKNOWN_DATE
	if !page.CreatedTime.IsZero() {
		date = page.CreatedTime.UTC().Format(DATE_LAYOUT)
	}

	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = FALLBACK_TITLE
	}

	name := strings.NewReplacer(
		"{title}", title,
		"{id}", page.ID,
		"{date}", date,
	).Replace(pattern)
	return SanitizeFilename(name) + FILE_EXTENSION
}

// WithIDSuffix disambiguates a file name using the page id. Short suffixes
// are tried first, the full id is the last resort.
func WithIDSuffix(name string, pageID string, full bool) string {
	base := strings.TrimSuffix(name, FILE_EXTENSION)
	id := strings.ReplaceAll(pageID, "-", "")
	if !full && len(id) > ID_SUFFIX_LENGTH {
		id = id[:ID_SUFFIX_LENGTH]
	}
	return base + "-" + id + FILE_EXTENSION
}

// Namer hands out file names that are unique within one sync pass. Names are
// compared case insensitively so the result is also safe on case insensitive
// filesystems.
type Namer struct {
	mu    sync.Mutex
	taken map[string]string
}

func GetNamer() *Namer {
	return &Namer{taken: map[string]string{}}
}

// Reserve returns name, or a suffixed variant when another page already
// holds it. Reserving the same page twice returns the same name.
func (n *Namer) Reserve(name string, pageID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	candidates := []string{
		name,
		WithIDSuffix(name, pageID, false),
		WithIDSuffix(name, pageID, true),
	}
	for _, candidate := range candidates {
		key := strings.ToLower(candidate)
		owner, found := n.taken[key]
		if !found || owner == pageID {
			n.taken[key] = pageID
			return candidate
		}
	}

	// Only reachable with duplicate page ids
	last := candidates[len(candidates)-1]
	n.taken[strings.ToLower(last)] = pageID
	return last
}
