// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"github.com/mileusna/useragent"
)

// Device classes recorded for downloads.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceBot     = "bot"
)

// DeviceType classifies a User-Agent header. Unknown or empty agents are desktop.
func DeviceType(uaString string) string {
	if uaString == "" {
		return DeviceDesktop
	}
	ua := useragent.Parse(uaString)

	switch {
	case ua.Mobile:
		return DeviceMobile
	case ua.Tablet:
		return DeviceTablet
	case ua.Bot:
		return DeviceBot
	default:
		return DeviceDesktop
	}
}
