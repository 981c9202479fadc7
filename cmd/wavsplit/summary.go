package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/maauso/wavsplit/internal/job"
)

// renderSummary prints one line per planned segment. A terminal gets a
// table; anything else gets tab-separated lines that are easy to parse.
func renderSummary(w io.Writer, j *job.Job, pretty bool) error {
	if !pretty {
		for _, seg := range j.Segments {
			_, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\t%s\n",
				seg.Index,
				seconds(seg.Start),
				seconds(seg.End),
				seconds(seg.Duration()),
				seg.Oversized,
				seg.Status,
				segmentLocation(seg),
			)
			if err != nil {
				return err
			}
		}
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Start", "End", "Duration", "Oversized", "Status", "File"})
	for _, seg := range j.Segments {
		oversized := ""
		if seg.Oversized {
			oversized = "yes"
		}
		tw.AppendRow(table.Row{
			seg.Index,
			seconds(seg.Start),
			seconds(seg.End),
			seconds(seg.Duration()),
			oversized,
			string(seg.Status),
			segmentLocation(seg),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.SetCaption("%s: %d segments, %s s, status %s, %d%% done",
		filepath.Base(j.InputPath), len(j.Segments), seconds(j.Duration), j.GetStatus(), j.Progress())

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func segmentLocation(seg job.Segment) string {
	if seg.URL != "" {
		return seg.URL
	}
	return seg.Path
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
