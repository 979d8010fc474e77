package pagescript

import "net/url"

// urlQueryEscape mirrors JS encodeURIComponent closely enough for
// variant matching purposes (both percent-encode reserved characters;
// exact reserved-set differences between the two do not affect
// substring containment checks against attacker-controlled sinks).
func urlQueryEscape(s string) string {
	return url.QueryEscape(s)
}
