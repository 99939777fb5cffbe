package useragent

import "testing"

const (
	uaChromeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	uaChromeAndroid = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36"
	uaSafariIphone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	uaFirefox       = "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0"
	uaEdge          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0"
)

func TestDevice(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"desktop chrome", uaChromeDesktop, DeviceDesktop},
		{"android chrome", uaChromeAndroid, DeviceMobile},
		{"iphone safari", uaSafariIphone, DeviceMobile},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X)", DeviceMobile},
		{"tablet token", "SomeBrowser/1.0 Tablet", DeviceMobile},
		{"empty", "", DeviceDesktop},
		{"curl", "curl/8.4.0", DeviceDesktop},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Device(tc.ua); got != tc.want {
				t.Errorf("Device(%q) = %q, want %q", tc.ua, got, tc.want)
			}
		})
	}
}

func TestBrowser(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		// Edge must win even though its UA contains both Chrome and Safari.
		{"edge", uaEdge, "Edge"},
		{"chrome", uaChromeDesktop, "Chrome"},
		{"firefox", uaFirefox, "Firefox"},
		{"safari", uaSafariIphone, "Safari"},
		{"unknown", "curl/8.4.0", BrowserUnknown},
		{"empty", "", BrowserUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Browser(tc.ua); got != tc.want {
				t.Errorf("Browser(%q) = %q, want %q", tc.ua, got, tc.want)
			}
		})
	}
}

// The stored device value must always be one of the two recognized classes
// and the browser one of the four known families or "unknown", no matter the
// input.
func TestClassificationDomain(t *testing.T) {
	inputs := []string{"", "x", uaChromeDesktop, uaChromeAndroid, uaSafariIphone, uaFirefox, uaEdge, "Opera/9.80"}
	browsers := map[string]bool{"Chrome": true, "Firefox": true, "Safari": true, "Edge": true, BrowserUnknown: true}

	for _, ua := range inputs {
		if d := Device(ua); d != DeviceMobile && d != DeviceDesktop {
			t.Errorf("Device(%q) = %q, outside domain", ua, d)
		}
		if b := Browser(ua); !browsers[b] {
			t.Errorf("Browser(%q) = %q, outside domain", ua, b)
		}
	}
}
