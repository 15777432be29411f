package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/rules"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
)

var inspectRulesPath string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect a candidate rule table",
	Long: `Load a candidate rule table alone and report what the mapper would
see: row count, which columns were resolved for each security level, and
sample normalized keys.

  threat2pcya inspect --rules candidates.csv`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectRulesPath, "rules", "", "Candidate rule table CSV (required)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectRulesPath == "" {
		return &table.InputMissingError{Input: "rules"}
	}
	tab, err := table.Open(inspectRulesPath, "rules")
	if err != nil {
		return err
	}
	set, err := rules.Load(tab)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "rules: %d rows, %d distinct description keys\n", len(set.Rules), len(set.DescKeys()))
	for level := 1; level <= 4; level++ {
		if col := set.LevelColumn(level); col != "" {
			fmt.Fprintf(w, "SL%d column: %q\n", level, col)
		} else {
			fmt.Fprintf(w, "SL%d column: (absent)\n", level)
		}
	}
	for i, r := range set.Rules {
		if i >= 10 {
			fmt.Fprintf(w, "... %d more\n", len(set.Rules)-i)
			break
		}
		fmt.Fprintf(w, "  %q key=%q\n", r.ShortTitle, r.DescKey)
	}
	return nil
}
