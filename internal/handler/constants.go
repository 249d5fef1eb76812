// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteSuffixFeatured toggles the featured flag of an entity.
	RouteSuffixFeatured = "/{id}/featured"

	// RouteHealth is the health check route.
	RouteHealth = "/health"
	// RouteLogin is where the route guard sends anonymous admin requests.
	RouteLogin = "/login"
	// RouteSitemap is the public sitemap.
	RouteSitemap = "/sitemap.xml"
	// RouteRobots is the crawler policy.
	RouteRobots = "/robots.txt"
	// RouteAdminAPI prefixes every guarded route.
	RouteAdminAPI = "/admin/api"
	// RoutePaymentSuccess is the checkout return URL.
	RoutePaymentSuccess = "/training/payment/success"

	// RouteBlogs is the blogs admin route.
	RouteBlogs = "/blogs"
	// RouteWhitepapers is the whitepapers admin route.
	RouteWhitepapers = "/whitepapers"
	// RouteTrainings is the trainings admin route.
	RouteTrainings = "/trainings"
	// RouteSpeakers is the speakers admin route.
	RouteSpeakers = "/speakers"
	// RouteDownloads is the downloads admin route.
	RouteDownloads = "/downloads"
	// RoutePayments is the payments admin route.
	RoutePayments = "/payments"
	// RouteSettings is the settings admin route.
	RouteSettings = "/settings"
	// RouteJobs is the scheduled jobs admin route.
	RouteJobs = "/jobs"
)
