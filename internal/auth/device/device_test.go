package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	macChrome    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iphoneSafari = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	linuxFirefox = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name        string
		ua          string
		browser     string
		mobile      bool
		displayHas  string
		fingerprint bool
	}{
		{name: "empty", ua: "  ", browser: "unknown", displayHas: "Unknown Device"},
		{name: "desktop chrome", ua: macChrome, browser: "Chrome", displayHas: "Chrome on", fingerprint: true},
		{name: "mobile safari names the platform", ua: iphoneSafari, browser: "Safari", mobile: true, displayHas: "on iPhone", fingerprint: true},
		{name: "desktop firefox", ua: linuxFirefox, browser: "Firefox", displayHas: "Firefox on", fingerprint: true},
		{name: "unparseable agent", ua: "parking-kiosk/1.0", displayHas: " on ", fingerprint: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Describe(tt.ua)
			if tt.browser != "" {
				assert.Equal(t, tt.browser, s.Browser)
			}
			assert.Equal(t, tt.mobile, s.Mobile)
			assert.Contains(t, s.DisplayName, tt.displayHas)
			if tt.fingerprint {
				assert.Len(t, s.Fingerprint, 64)
			} else {
				assert.Empty(t, s.Fingerprint)
			}
		})
	}
}

func TestFingerprintIgnoresMinorVersions(t *testing.T) {
	a := Describe("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.1.0 Safari/537.36")
	b := Describe("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.9.9 Safari/537.36")
	c := Describe("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}
