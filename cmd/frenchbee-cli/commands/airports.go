package commands

import (
	"os"

	"frenchbee-client/lib/serviceutil"
	"frenchbee-client/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var airportsFilter *[]string

func init() {
	airportsFilter = airportsCmd.Flags().StringSlice("filter", nil, "Only show airports whose name contains one of these.")
	rootCmd.AddCommand(airportsCmd)
}

var airportsCmd = &cobra.Command{
	Use:   "airports",
	Short: "Lists the airports sold on the booking site.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := createClient(cmd.Context(), cfg)

		airports, err := client.Airports(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list airports", err)
		}

		matchers := make([]string, len(*airportsFilter))
		for i, f := range *airportsFilter {
			matchers[i] = textutil.NormalizeName(f)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Code", "Name"})
		for _, a := range airports {
			if len(matchers) > 0 && !textutil.MatchName(a.Name, matchers) {
				continue
			}
			t.AppendRow(table.Row{a.Code, a.Name})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
