package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deshima-dev/desim/internal/usecase/paramset"
)

func instrumentsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "instruments",
		Short: "Inspect instruments in a workspace",
	}

	c.AddCommand(instrumentsListCmd(), instrumentsShowCmd())
	return c
}

func instrumentsListCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instruments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, workspace)
			if err != nil {
				return err
			}
			defer ws.close()

			refs, err := ws.instruments.ListInstruments(ws.root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(refs) == 0 {
				fmt.Fprintln(out, "(no instruments found)")
				return nil
			}

			fmt.Fprintf(out, "Workspace: %s\n", ws.root)
			fmt.Fprintf(out, "Default:   %s\n\n", ws.cfg.Defaults.Instrument)
			for _, r := range refs {
				rel, _ := filepath.Rel(ws.root, r.Path)
				fmt.Fprintf(out, "- %s  (%s)\n", r.Name, rel)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	return cmd
}

func instrumentsShowCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show the band, checks and resolved parameters of an instrument",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd, workspace)
			if err != nil {
				return err
			}
			defer ws.close()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			path, err := resolveInstrumentPath(ws, name)
			if err != nil {
				return err
			}
			inst, err := ws.instruments.LoadInstrument(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Instrument: %s\n", inst.Name)
			if inst.Description != "" {
				fmt.Fprintf(out, "            %s\n", inst.Description)
			}
			if inst.Band.IsZero() {
				fmt.Fprintln(out, "Band:       (none)")
			} else {
				fmt.Fprintf(out, "Band:       %g-%g GHz\n", inst.Band.FMinHz/1e9, inst.Band.FMaxHz/1e9)
			}

			fmt.Fprintln(out, "\nParameters:")
			for _, n := range paramset.Names() {
				v, err := paramset.Get(inst.Params, n)
				if err != nil {
					continue
				}
				unit, _ := paramset.Unit(n)
				val := strconv.FormatFloat(v, 'g', -1, 64)
				if paramset.IsFlag(n) {
					val, unit = strconv.FormatBool(v != 0), ""
				}
				if unit != "" {
					val += " " + unit
				}
				fmt.Fprintf(out, "  %-22s %s\n", n, val)
			}

			if len(inst.Checks) > 0 {
				fmt.Fprintln(out, "\nChecks:")
				for _, c := range inst.Checks {
					fmt.Fprintf(out, "  - %s%s\n", c.Column, bounds(c.Min, c.Max))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	return cmd
}

func bounds(minV, maxV *float64) string {
	s := ""
	if minV != nil {
		s += fmt.Sprintf(" >= %g", *minV)
	}
	if maxV != nil {
		s += fmt.Sprintf(" <= %g", *maxV)
	}
	return s
}

func conditionsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "conditions",
		Short: "Inspect observing conditions in a workspace",
	}

	c.AddCommand(conditionsListCmd())
	return c
}

func conditionsListCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List observing conditions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd, workspace)
			if err != nil {
				return err
			}
			defer ws.close()

			refs, err := ws.conditions.ListConditions(ws.root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(refs) == 0 {
				fmt.Fprintln(out, "(no conditions found)")
				return nil
			}

			fmt.Fprintf(out, "Workspace: %s\n", ws.root)
			fmt.Fprintf(out, "Default:   %s\n\n", ws.cfg.Defaults.Conditions)
			for _, r := range refs {
				rel, _ := filepath.Rel(ws.root, r.Path)
				fmt.Fprintf(out, "- %s  (%s)\n", r.Name, rel)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	return cmd
}
