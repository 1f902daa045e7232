package main

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fedreturn/internal/model"
)

var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "List known congressional districts",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cfg, false)
		if err != nil {
			return err
		}
		return renderDistricts(cmd.OutOrStdout(), env.Districts.All())
	},
}

func init() {
	rootCmd.AddCommand(districtsCmd)
}

func renderDistricts(w io.Writer, districts []model.District) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "State", "Counties")
	for _, d := range districts {
		if err := table.Append(d.ID, d.DisplayName(), d.State, strings.Join(d.Counties, ", ")); err != nil {
			return eris.Wrap(err, "append district row")
		}
	}
	return eris.Wrap(table.Render(), "render districts")
}
