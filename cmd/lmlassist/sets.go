package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/lmlassist/internal/candidates"
)

var errNoStore = errors.New("no candidate store configured (use --store or [candidates] store)")

func newSetsCmd(f *rootFlags) *cobra.Command {
	var items bool
	cmd := &cobra.Command{
		Use:   "sets [PATTERN]",
		Short: "List candidate sets",
		Long: `List the candidate sets whose names match PATTERN (wildcards * and ?).
With --items every candidate is printed as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range a.Catalog().Select(pattern) {
				s, _ := a.Catalog().Lookup(name)
				fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Name(), s.Policy(), s.Len())
				if items {
					for _, c := range s.Items() {
						fmt.Fprintf(tw, "\t%s\t%q\n", c.Label(), c.Text)
					}
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&items, "items", false, "print the candidates of each set")
	cmd.AddCommand(newSetsImportCmd(f), newSetsDeleteCmd(f))
	return cmd
}

func newSetsImportCmd(f *rootFlags) *cobra.Command {
	var policy string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Copy the sets of candidate JSON files into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var override *candidates.MatchPolicy
			if policy != "" {
				p, err := candidates.ParsePolicy(policy)
				if err != nil {
					return err
				}
				override = &p
			}

			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()
			store := a.Store()
			if store == nil {
				return errNoStore
			}

			for _, path := range args {
				sets, err := candidates.ReadFile(path)
				if err != nil {
					return err
				}
				for _, s := range sets {
					if override != nil {
						s = s.WithPolicy(*override)
					}
					if err := store.Save(s); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d)\n", s.Name(), s.Len())
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "", "match policy for the imported sets (contains, prefix, fuzzy)")
	return cmd
}

func newSetsDeleteCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME...",
		Short: "Remove sets from the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()
			store := a.Store()
			if store == nil {
				return errNoStore
			}
			for _, name := range args {
				if err := store.Delete(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
