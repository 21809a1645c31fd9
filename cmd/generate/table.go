package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"brandkit/internal/domain"
)

func statusTable(states []domain.AssetState) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Platform", "Aspect", "Status", "Detail"})
	for _, st := range states {
		aspect := ""
		if spec, ok := domain.LookupPlatform(st.Platform); ok {
			aspect = string(spec.AspectRatio)
		}
		detail := st.ErrorMsg
		if st.Status == domain.StatusSuccess {
			if img, ok := st.Image(); ok {
				detail = fmt.Sprintf("%s, %d bytes", img.MimeType, len(img.Data))
			}
		}
		tw.AppendRow(table.Row{st.Platform, aspect, st.Status, detail})
	}
	return tw.Render()
}

func runsTable(runs []domain.Run) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Started", "Status", "Backend", "Rendered", "Context"})
	for _, run := range runs {
		ok := 0
		for _, r := range run.Renders {
			if r.Status == domain.StatusSuccess {
				ok++
			}
		}
		tw.AppendRow(table.Row{
			shortID(run.ID),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Status,
			run.Backend,
			fmt.Sprintf("%d/%d", ok, len(run.Renders)),
			truncate(run.Context, 40),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 5, Align: text.AlignRight}})
	return tw.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
