package cmd

import (
	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the personas the backend offers",
	Long: `List the council personas by category and the available chairmen.
The configured council is marked with '*'.

With --debate, list the debaters and moderators instead.`,
	Args: cobra.NoArgs,
	RunE: runPersonas,
}

var (
	personasDebate bool
	personasPreset string
)

func init() {
	rootCmd.AddCommand(personasCmd)
	personasCmd.Flags().BoolVar(&personasDebate, "debate", false, "list debaters and moderators")
	personasCmd.Flags().StringVarP(&personasPreset, "preset", "p", "", "mark the council of a saved preset")
}

func runPersonas(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if personasDebate {
		catalog, err := a.client.DebatePersonas(cmd.Context())
		if err != nil {
			return err
		}
		a.printer.DebateCatalog(catalog)
		return nil
	}

	if err := applyCouncilFlags(a, personasPreset, nil, ""); err != nil {
		return err
	}
	catalog, err := a.client.Personas(cmd.Context())
	if err != nil {
		return err
	}
	a.printer.Catalog(catalog, a.council)
	return nil
}
