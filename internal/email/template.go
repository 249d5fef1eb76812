// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package email

import (
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
)

// TemplateVars are the values available to resource email templates.
type TemplateVars struct {
	UserName        string
	WhitepaperTitle string
	DownloadLink    string
	CompanyName     string
	Year            int
}

// Render substitutes {{name}} placeholders literally. Values are not
// escaped and unknown placeholders are left as they are.
func (v TemplateVars) Render(s string) string {
	r := strings.NewReplacer(
		"{{userName}}", v.UserName,
		"{{whitepaperTitle}}", v.WhitepaperTitle,
		"{{downloadLink}}", v.DownloadLink,
		"{{companyName}}", v.CompanyName,
		"{{year}}", strconv.Itoa(v.Year),
	)
	return r.Replace(s)
}

// RenderTemplate produces the message for tpl addressed to to.
func RenderTemplate(tpl model.EmailTemplate, vars TemplateVars, to, toName string) Message {
	return Message{
		To:      to,
		ToName:  toName,
		Subject: vars.Render(tpl.Subject),
		HTML:    vars.Render(tpl.HTMLBody),
		Text:    vars.Render(tpl.TextBody),
	}
}

// testMessage is the fixed configuration-test email.
func testMessage(to string, now time.Time) Message {
	stamp := now.Format("2006-01-02 15:04:05 MST")
	return Message{
		To:      to,
		ToName:  "Test User",
		Subject: "Test Email from LeadDesk Admin",
		HTML: "<h2>Email Configuration Test</h2>\n" +
			"<p>This is a test email to verify your email configuration is working correctly.</p>\n" +
			"<p>If you received this email, your email settings are configured properly!</p>\n" +
			"<hr>\n<p style=\"color: #666; font-size: 12px;\">Sent from LeadDesk Admin Panel<br>" + stamp + "</p>\n",
		Text: "Email Configuration Test\n\n" +
			"This is a test email to verify your email configuration is working correctly.\n" +
			"If you received this email, your email settings are configured properly!\n\n" +
			"Sent from LeadDesk Admin Panel\n" + stamp + "\n",
	}
}
