// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
)

const (
	exportDateLayout = "2006-01-02 15:04:05"
	exportFileLayout = "2006-01-02"
)

var exportHeader = []string{
	"Date", "Resource Type", "Resource Title", "User Name", "User Email",
	"Company", "Job Title", "Email Status", "Follow-up Status",
}

// ExportFilename names a downloads export produced now.
func (s *DownloadService) ExportFilename() string {
	return "downloads-export-" + s.now().UTC().Format(exportFileLayout) + ".csv"
}

// ExportCSV writes downloads matching f as CSV, newest first. The header is
// written bare; every data cell is quoted.
func (s *DownloadService) ExportCSV(ctx context.Context, w io.Writer, f store.DownloadFilter) error {
	f.Limit, f.Offset = 0, 0
	items, err := s.queries.ListDownloads(ctx, f)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(exportHeader, ",") + "\n"); err != nil {
		return err
	}
	for _, d := range items {
		if err := writeQuotedRow(bw, exportRow(d)); err != nil {
			return fmt.Errorf("writing export row: %w", err)
		}
	}
	return bw.Flush()
}

func exportRow(d model.Download) []string {
	return []string{
		d.DownloadedAt.UTC().Format(exportDateLayout),
		d.ResourceType,
		d.ResourceTitle,
		d.UserName,
		d.UserEmail,
		d.UserCompany,
		d.UserJobTitle,
		d.EmailStatus,
		d.FollowUpStatus,
	}
}

func writeQuotedRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}
