// Package useragent classifies sessions into coarse device types.
package useragent

import "strings"

// Device type labels used across reports.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceUnknown = "unknown"
)

// Classify returns the device type for a session, preferring an explicit
// deviceType field over user-agent substring heuristics. Tablet checks run
// before mobile ones because tablet user agents often contain "Mobile" too.
func Classify(deviceType, userAgent string) string {
	if deviceType != "" {
		return deviceType
	}
	if userAgent == "" {
		return DeviceUnknown
	}

	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"):
		return DeviceTablet
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"), strings.Contains(ua, "iphone"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}
