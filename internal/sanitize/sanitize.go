package sanitize

import "strings"

const (
	// MaxFileName is the longest file name the downloader produces.
	MaxFileName = 250

	// ReservedSuffix leaves room for a yt-dlp fragment suffix and a
	// two-digit index prefix.
	ReservedSuffix = len(".mp4.part-Frag0000.part") + 3
)

var replacer = strings.NewReplacer(
	"\n", "-",
	" ", "-",
	":", "-",
	"/", "-",
	"|", "-",
	"?", "-",
	"<", "-",
	">", "-",
	`"`, "-",
	`\`, "-",
	"*", "",
)

// Name makes raw safe to use as a single path component.
// Characters outside printable ASCII are dropped and path separators
// and shell metacharacters become "-".
func Name(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == '\n' || (r >= 0x20 && r <= 0x7e) {
			b.WriteRune(r)
		}
	}
	return replacer.Replace(b.String())
}

// Truncate cuts name so that len(name)+reserved fits in maxTotal.
// Names that already fit are returned unchanged.
func Truncate(name string, maxTotal, reserved int) string {
	runes := []rune(name)
	if len(runes)+reserved <= maxTotal {
		return name
	}
	limit := maxTotal - reserved
	if limit <= 0 {
		return ""
	}
	return string(runes[:limit])
}

// Title sanitizes a lecture or chapter title and bounds its length.
func Title(raw string) string {
	return Truncate(Name(raw), MaxFileName, ReservedSuffix)
}
