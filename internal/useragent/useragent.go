// Package useragent derives a coarse device class and browser family from a
// raw User-Agent header. The landing page only needs mobile-vs-desktop and a
// handful of browser names for its funnel breakdowns, so a full UA parser
// would be overkill here.
package useragent

import "strings"

// Device classes stored on every tracked event.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// BrowserUnknown is returned when no known browser token matches.
const BrowserUnknown = "unknown"

var mobileTokens = []string{"mobile", "android", "iphone", "ipad", "tablet"}

// Device returns "mobile" when the user agent contains a known mobile token,
// and "desktop" otherwise. An empty user agent counts as desktop.
func Device(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, token := range mobileTokens {
		if strings.Contains(ua, token) {
			return DeviceMobile
		}
	}
	return DeviceDesktop
}

// Browser returns the first matching browser family among Edge, Chrome,
// Firefox and Safari, or "unknown".
//
// Order matters: Edge user agents also contain "Chrome", and both Chrome and
// Edge contain "Safari", so the more specific tokens are checked first.
func Browser(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "edg"):
		return "Edge"
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "safari"):
		return "Safari"
	default:
		return BrowserUnknown
	}
}
