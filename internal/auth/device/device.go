// Package device summarizes the client behind a login from its User-Agent.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Summary is the device information attached to login events.
type Summary struct {
	Browser     string `json:"browser"`
	Version     string `json:"browser_version,omitempty"`
	OS          string `json:"os"`
	Mobile      bool   `json:"mobile"`
	Bot         bool   `json:"bot,omitempty"`
	DisplayName string `json:"display_name"`
	// Fingerprint is a stable hash of browser family, major version, OS and
	// form factor. It does not include the IP address.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Describe parses userAgent. An empty string yields the unknown device.
func Describe(userAgent string) Summary {
	if strings.TrimSpace(userAgent) == "" {
		return Summary{Browser: "unknown", OS: "unknown", DisplayName: "Unknown Device"}
	}

	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	s := Summary{
		Browser:     orUnknown(browser),
		Version:     version,
		OS:          orUnknown(ua.OS()),
		Mobile:      ua.Mobile(),
		Bot:         ua.Bot(),
		DisplayName: displayName(ua, browser),
	}
	s.Fingerprint = fingerprint(s)
	return s
}

func fingerprint(s Summary) string {
	major := "unknown"
	if v, _, _ := strings.Cut(s.Version, "."); v != "" {
		major = v
	}
	platform := "desktop"
	if s.Mobile {
		platform = "mobile"
	}
	data := fmt.Sprintf("%s|%s|%s|%s", strings.ToLower(s.Browser), major, strings.ToLower(s.OS), platform)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func orUnknown(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "unknown"
	}
	return v
}

// displayName renders "Browser on OS". Mobile agents name the platform
// instead, e.g. "Safari on iPhone".
func displayName(ua *useragent.UserAgent, browser string) string {
	if browser == "" {
		browser = "Unknown Browser"
	}
	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return browser + " on " + platform
		}
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}
