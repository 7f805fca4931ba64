package camera

import "strings"

// noStreamAgents are user-agent fragments of browsers that cannot render a
// multipart/x-mixed-replace stream in an <img> tag.
var noStreamAgents = []string{
	"Edge/",
	"MSIE ",
	"Trident/",
}

// StreamCapable reports whether a browser with this user agent can show the
// multipart stream. Matching is a case-sensitive substring test, and anything
// not known to be incapable is assumed capable.
func StreamCapable(userAgent string) bool {
	for _, s := range noStreamAgents {
		if strings.Contains(userAgent, s) {
			return false
		}
	}
	return true
}
