package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/QuangTung97/regionarena/allocator"
)

const previewLen = 32

type styles struct {
	title lipgloss.Style
	list  lipgloss.Style
	free  lipgloss.Style
	used  lipgloss.Style
	data  lipgloss.Style
}

func newStyles(re *lipgloss.Renderer) styles {
	return styles{
		title: re.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		list: re.NewStyle().Bold(true),
		free: re.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		used: re.NewStyle().Foreground(lipgloss.Color("#FFD75F")),
		data: re.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func preview(b []byte) string {
	if len(b) > previewLen {
		return allocator.Printable(b[:previewLen]) + "..."
	}
	return allocator.Printable(b)
}

func render(r *allocator.Region, re *lipgloss.Renderer) string {
	st := newStyles(re)
	stats := r.Stats()
	free, used := r.Chunks()

	var sb strings.Builder
	sb.WriteString(st.title.Render(fmt.Sprintf("region %d bytes, in use %d (%.1f%%)",
		stats.Capacity, stats.SizeInUse, stats.Utilization*100)))
	sb.WriteString("\n")

	renderList := func(name string, style lipgloss.Style, chunks []allocator.ChunkInfo) {
		sb.WriteString(st.list.Render(fmt.Sprintf("%s (%d)", name, len(chunks))))
		sb.WriteString("\n")
		for _, c := range chunks {
			line := fmt.Sprintf("  @%-6d size %-6d next %-6s", c.Offset, c.Size, allocator.FormatOffset(c.Next))
			sb.WriteString(style.Render(line))
			sb.WriteString(" ")
			sb.WriteString(st.data.Render(preview(r.Bytes(c.Addr, c.Size))))
			sb.WriteString("\n")
		}
	}
	renderList("free", st.free, free)
	renderList("used", st.used, used)

	return sb.String()
}
