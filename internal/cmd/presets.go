package cmd

import (
	"fmt"
	"strings"

	"github.com/0fflineDocs/Cipher/internal/selection"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage saved council selections",
	Long: `Presets are named council selections stored as YAML files in the
config directory's presets folder. Use them with 'cipher chat --preset'.`,
	RunE: runPresetsList,
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE:  runPresetsList,
}

var presetsSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a council selection as a preset",
	Long: `Save the configured council, adjusted by --member and --chairman, as a
named preset. An existing preset with the same name is replaced.`,
	Example: `  cipher presets save incident --member "Security Architect" --member "Business Risk & Compliance"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPresetsSave,
}

var presetsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a preset's members and chairman",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsShow,
}

var (
	presetMembers     []string
	presetChairman    string
	presetDescription string
)

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsSaveCmd)
	presetsCmd.AddCommand(presetsShowCmd)

	presetsSaveCmd.Flags().StringArrayVarP(&presetMembers, "member", "m", nil, "council member (repeatable)")
	presetsSaveCmd.Flags().StringVar(&presetChairman, "chairman", "", "chairman persona")
	presetsSaveCmd.Flags().StringVarP(&presetDescription, "description", "d", "", "short description")
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	presets, errs := a.presets.List()
	for _, err := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
	if len(presets) == 0 {
		fmt.Fprintf(out, "No presets in %s\n", a.presets.Dir())
		return nil
	}
	for _, p := range presets {
		line := fmt.Sprintf("%s (%d members, chaired by %s)", p.Name, len(p.Members), p.Chairman)
		if p.Description != "" {
			line += " - " + p.Description
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runPresetsSave(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := applyCouncilFlags(a, "", presetMembers, presetChairman); err != nil {
		return err
	}
	p := selection.PresetFromCouncil(args[0], presetDescription, a.council)
	if err := a.presets.Save(p); err != nil {
		return err
	}
	a.printer.Success("Saved preset %s (%s)", p.Name, councilSummary(a.council))
	return nil
}

func runPresetsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.presets.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Preset: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(out, "Chairman: %s\n", p.Chairman)
	fmt.Fprintf(out, "Members: %s\n", strings.Join(p.Members, ", "))
	return nil
}
