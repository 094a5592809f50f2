package store

import "strings"

// Song-list codec.
//
// The songs column is a single text field holding an ordered list. The naive
// comma join corrupts any song title containing a comma, so the codec
// backslash-escapes ',' and '\' on the way in and unescapes on the way out.
// Legacy rows written without escapes contain neither escape sequence and
// decode unchanged.
//
// This encoding exists only at the storage boundary — everything above the
// gateway works with []string.

// EncodeSongs serializes an ordered song list into the songs column format.
// An empty or nil list encodes to the empty string.
func EncodeSongs(songs []string) string {
	if len(songs) == 0 {
		return ""
	}
	escaped := make([]string, len(songs))
	for i, s := range songs {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, ",", `\,`)
		escaped[i] = s
	}
	return strings.Join(escaped, ",")
}

// DecodeSongs parses the songs column back into an ordered song list.
// The empty string decodes to nil (a playlist with no songs).
func DecodeSongs(encoded string) []string {
	if encoded == "" {
		return nil
	}

	var songs []string
	var cur strings.Builder
	escaped := false
	for _, r := range encoded {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			songs = append(songs, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	// A trailing lone backslash has nothing to escape; keep it literally.
	if escaped {
		cur.WriteByte('\\')
	}
	songs = append(songs, cur.String())
	return songs
}
