package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"transitdesk/db"
)

func newStorageCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect the durable client storage",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			keys, err := a.store.Keys(cmd.Context())
			if err != nil {
				return withCode(exitStorage, err)
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.store.Get(cmd.Context(), args[0])
			if errors.Is(err, db.ErrNotFound) {
				return withCode(exitUsage, fmt.Errorf("no value stored under %q", args[0]))
			}
			if err != nil {
				return withCode(exitStorage, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})
	return cmd
}
