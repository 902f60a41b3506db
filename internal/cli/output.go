package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/eshaffer321/alertledger/internal/application/service"
	"github.com/eshaffer321/alertledger/internal/domain/ledger"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, rulesSource string, dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "alertledger: %s (%s mode)\n\n", rulesSource, mode)
}

// PrintRows prints each channel's rows as a table, channels sorted by name
func PrintRows(w io.Writer, channels map[string][]ledger.OutputRow) {
	for i, name := range channelNames(channels) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		rows := channels[name]
		fmt.Fprintf(w, "[%s] %d row(s)\n", name, len(rows))
		if len(rows) == 0 {
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tPAYEE\tCATEGORY\tAMOUNT\tMETHOD\tFLAGS\tDESCRIPTION")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Date, r.Payee, r.Category, r.Amount, r.PaymentMethod, rowFlags(r), r.Description)
		}
		_ = tw.Flush()
	}
}

// PrintJSON prints the channel rows as a JSON object of fixed-width arrays
func PrintJSON(w io.Writer, channels map[string][]ledger.OutputRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(channels)
}

// PrintSummary prints the run summary
func PrintSummary(w io.Writer, result *service.IngestResult) {
	s := result.Stats
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Messages=%d Rows=%d Excluded=%d Deduplicated=%d Ignored=%d Unmatched=%d\n",
		s.Messages, s.Produced, s.Excluded, s.Deduplicated, s.Ignored+s.DuplicateSrc, s.Unmatched)

	if result.DryRun {
		fmt.Fprintln(w, "\nDry run: nothing was stored.")
		return
	}
	fmt.Fprintf(w, "\nRun %s stored.\n", result.RunID)
}

func channelNames(channels map[string][]ledger.OutputRow) []string {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func rowFlags(r ledger.OutputRow) string {
	var flags []string
	if r.Business {
		flags = append(flags, "business")
	}
	if r.Shared {
		flags = append(flags, "shared")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
