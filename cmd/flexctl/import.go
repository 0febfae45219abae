package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"paginaflex/internal/domain/accounts"
	"paginaflex/internal/domain/imports"
	"paginaflex/internal/importer"

	"github.com/spf13/cobra"
)

const errorsShown = 10

type importOptions struct {
	dryRun          bool
	skipIfExists    bool
	updatePasswords bool
	username        string
}

func newImportCmd(c *cli) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <kind> <file>",
		Short: "Import an xlsx or csv file",
		Long: "Import an xlsx or csv file with the same pipeline the admin uploads use.\n" +
			"Run `flexctl import kinds` to list the kinds and their columns.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Only print what would be created or updated")
	cmd.Flags().BoolVar(&opts.skipIfExists, "skip-if-exists", false, "Do nothing when products already exist (productos only)")
	cmd.Flags().BoolVar(&opts.updatePasswords, "update-passwords", false, "Overwrite passwords of existing clients (clientes only)")
	cmd.Flags().StringVar(&opts.username, "user", "", "Attribute the import log to this username")

	cmd.AddCommand(newImportKindsCmd())
	return cmd
}

func newImportKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the import kinds and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Definitions does not touch the stores
			return printKinds(cmd.OutOrStdout(), importer.NewRegistry(nil, nil, nil, nil).Definitions())
		},
	}
}

func (c *cli) runImport(cmd *cobra.Command, kindName, path string, opts importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	pool, store, err := c.connect()
	if err != nil {
		return err
	}
	defer pool.Close()

	registry := importer.NewRegistry(store.Catalog, store.Accounts, store.Imports, c.logger)
	def, err := registry.Lookup(kindName)
	if err != nil {
		return fmt.Errorf("%w: %q", err, kindName)
	}

	if opts.skipIfExists && def.Kind == imports.KindProducts {
		n, err := store.Catalog.CountProducts(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			c.logger.Infow("products already loaded, skipping import", "products", n)
			return nil
		}
	}

	var userID *int64
	if opts.username != "" {
		u, err := store.Accounts.GetByUsername(ctx, opts.username)
		if err != nil {
			if errors.Is(err, accounts.ErrNotFound) {
				return fmt.Errorf("user %q not found", opts.username)
			}
			return err
		}
		userID = &u.ID
	}

	pipeline, err := registry.Pipeline(def.Kind, importer.Options{UpdatePasswords: opts.updatePasswords})
	if err != nil {
		return err
	}

	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	f, err := pipeline.Load(filepath.Base(path), fh)
	if err != nil {
		return err
	}

	if opts.dryRun {
		pv, err := pipeline.Preview(ctx, f)
		if err != nil {
			return err
		}
		return printPreview(out, pv)
	}

	l, err := pipeline.Start(ctx, f, userID)
	if err != nil {
		return err
	}
	c.logger.Infow("import started", "log_id", l.ID, "kind", def.Kind, "rows", l.TotalRows)

	if err := pipeline.Run(ctx, l, f); err != nil {
		return err
	}

	rowErrors, err := store.Imports.ListErrors(ctx, l.ID)
	if err != nil {
		return err
	}
	return printResult(out, l, rowErrors)
}

func printKinds(w io.Writer, defs []importer.Definition) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tREQUIRED\tDESCRIPTION")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%v\t%s\n", d.Kind, d.Required, d.Description)
	}
	return tw.Flush()
}

func printPreview(w io.Writer, pv *importer.Preview) error {
	fmt.Fprintf(w, "rows: %d\nto create: %d\nto update: %d\nerrors: %d\n", pv.Total, pv.ToCreate, pv.ToUpdate, len(pv.Errors))
	for _, e := range pv.Errors[:min(errorsShown, len(pv.Errors))] {
		fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Message)
	}
	if extra := len(pv.Errors) - errorsShown; extra > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", extra)
	}
	return nil
}

func printResult(w io.Writer, l *imports.Log, rowErrors []imports.RowError) error {
	fmt.Fprintf(w, "import %d %s\ncreated: %d\nupdated: %d\nerrors: %d\n", l.ID, l.Status, l.Created, l.Updated, l.Errors)
	for _, e := range rowErrors[:min(errorsShown, len(rowErrors))] {
		if e.Column != "" {
			fmt.Fprintf(w, "  row %d [%s=%q]: %s\n", e.Row, e.Column, e.Value, e.Message)
			continue
		}
		fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Message)
	}
	if extra := len(rowErrors) - errorsShown; extra > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", extra)
	}
	return nil
}
