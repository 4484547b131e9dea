// Package segment encodes styled runs as <sN>text</sN> segments and decodes
// them from model output.
package segment

import (
	"strings"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html"
)

// Segment is one tagged span. Text is still escaped.
type Segment struct {
	Key  string
	Text string
}

// tagPattern needs a backreference so that the closing tag matches the
// opening key, which the standard regexp package cannot express.
var tagPattern = regexp2.MustCompile(`<(s\d+)>(.*?)</\1>`, regexp2.Singleline)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape replaces &, < and > with entities. Quotes are left alone.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Unescape reverses Escape. Other HTML entities a model may emit, such as
// &quot; or &#39;, are decoded as well.
func Unescape(text string) string {
	return html.UnescapeString(text)
}

// Tag wraps already escaped text in the key's tags.
func Tag(key, escaped string) string {
	return "<" + key + ">" + escaped + "</" + key + ">"
}

// Encode escapes text and tags it.
func Encode(key, text string) string {
	return Tag(key, Escape(text))
}

// Parse returns the well-formed segments of payload from left to right. Text
// outside segments is dropped. An empty result means the payload is unusable.
func Parse(payload string) []Segment {
	var out []Segment
	m, err := tagPattern.FindStringMatch(payload)
	for err == nil && m != nil {
		groups := m.Groups()
		out = append(out, Segment{Key: groups[1].String(), Text: groups[2].String()})
		m, err = tagPattern.FindNextMatch(m)
	}
	return out
}
