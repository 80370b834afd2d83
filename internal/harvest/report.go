package harvest

import (
	"io"
	"time"

	"lbtrend/internal/trend"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Report summarizes a finished (or interrupted) run.
type Report struct {
	Mode        string
	Started     time.Time
	Duration    time.Duration
	Units       int
	Completed   int
	Failed      int
	Rows        int
	Interrupted bool
	// RowsByRegion is keyed by region name.
	RowsByRegion map[string]int

	regionOrder []string
}

func newReport(mode string, regions []trend.Region, started time.Time) Report {
	order := make([]string, len(regions))
	for i, r := range regions {
		order[i] = r.Name
	}
	return Report{
		Mode:         mode,
		Started:      started,
		RowsByRegion: map[string]int{},
		regionOrder:  order,
	}
}

func (r *Report) addRows(region string, n int) {
	r.Rows += n
	r.RowsByRegion[region] += n
}

// Render writes the report as two tables, the totals and the rows written
// per region in crawl order.
func (r Report) Render(w io.Writer) {
	totals := table.NewWriter()
	totals.SetOutputMirror(w)
	totals.SetTitle("lbtrend " + r.Mode)
	totals.AppendRows([]table.Row{
		{"Started", r.Started.Format(time.DateTime)},
		{"Duration", r.Duration.Round(10 * time.Millisecond).String()},
		{"Local bodies", r.Units},
		{"Completed", r.Completed},
		{"Failed", r.Failed},
		{"Rows", r.Rows},
		{"Interrupted", r.Interrupted},
	})
	totals.SetStyle(table.StyleRounded)
	totals.Render()

	regions := table.NewWriter()
	regions.SetOutputMirror(w)
	regions.AppendHeader(table.Row{"District", "Rows"})
	for _, name := range r.regionOrder {
		regions.AppendRow(table.Row{name, r.RowsByRegion[name]})
	}
	regions.AppendFooter(table.Row{"Total", r.Rows})
	regions.SetStyle(table.StyleRounded)
	regions.Render()
}
