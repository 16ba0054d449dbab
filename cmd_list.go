package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"transitdesk/auth"
	"transitdesk/listing"
	"transitdesk/models"
)

type listOptions struct {
	page    int
	perPage int
	filters map[string]string
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:       "list <resource>",
		Short:     "Print one page of a resource",
		Args:      cobra.ExactArgs(1),
		ValidArgs: resourceNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := loadController(cmd, a, args[0], opts.filters)
			if err != nil {
				return err
			}
			if opts.perPage > 0 {
				c.SetItemsPerPage(opts.perPage)
			}
			c.SetPage(opts.page)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c.Page())
		},
	}
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.perPage, "per-page", 0, "Items per page (resource default when 0)")
	cmd.Flags().StringToStringVar(&opts.filters, "filter", nil, "Filter as key=value, repeatable")
	return cmd
}

// loadController checks access, fetches the resource and applies filters.
func loadController(cmd *cobra.Command, a *app, name string, filters map[string]string) (*listing.Controller, error) {
	if _, err := a.require(auth.EntityRoles...); err != nil {
		return nil, err
	}
	c, ok := a.registry.Controller(name)
	if !ok {
		return nil, withCode(exitUsage, fmt.Errorf("unknown resource %q (one of %s)", name, strings.Join(resourceNames(), ", ")))
	}
	if err := c.FetchAll(cmd.Context()); err != nil {
		return nil, withCode(exitBackend, err)
	}
	if err := c.SetFilters(filters); err != nil {
		return nil, withCode(exitUsage, err)
	}
	return c, nil
}

func resourceNames() []string {
	var names []string
	for _, r := range models.Catalogue() {
		names = append(names, r.Name)
	}
	return names
}
