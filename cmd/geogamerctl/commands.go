package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/playperu/geogamer/internal/catalog"
	"github.com/playperu/geogamer/internal/database"
	"github.com/playperu/geogamer/internal/geogamer"
	"github.com/playperu/geogamer/internal/migrations"
	"github.com/playperu/geogamer/internal/server"
)

type options struct {
	dbPath string
}

func newRootCmd(defaultDB string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "geogamerctl",
		Short:         "Manage the GeoGamer level catalog and admins.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&opts.dbPath, "db", defaultDB, "path to the SQLite database (env: DB_PATH)")

	cmd.AddCommand(newMigrateCmd(opts), newLevelsCmd(opts), newAdminCmd(opts))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	return cmd
}

// openDB opens the database and brings the schema up to date.
func (o *options) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := database.Open(ctx, o.dbPath)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := migrations.Version(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	}
}

func newLevelsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "List, import and export levels.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List levels.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			infos, err := catalog.NewStore(db).Levels(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDIFFICULTY\tROUNDS")
			for _, l := range infos {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", l.ID, l.Name, l.Difficulty, l.RoundCount)
			}
			return tw.Flush()
		},
	}

	var replace bool
	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import levels from a catalog file, or the bundled catalog when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels, err := catalog.Embedded()
			if len(args) == 1 {
				levels, err = decodeFile(args[0])
			}
			if err != nil {
				return err
			}

			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			store := catalog.NewStore(db)
			if replace {
				existing, err := store.All(cmd.Context())
				if err != nil {
					return err
				}
				for _, l := range existing {
					if err := store.Delete(cmd.Context(), l.ID); err != nil {
						return err
					}
				}
			}
			if err := store.Import(cmd.Context(), levels); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d levels\n", len(levels))
			return nil
		},
	}
	importCmd.Flags().BoolVar(&replace, "replace", false, "delete existing levels first")

	export := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as JSON to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			levels, err := catalog.NewStore(db).All(cmd.Context())
			if err != nil {
				return err
			}
			return catalog.Encode(cmd.OutOrStdout(), levels)
		},
	}

	cmd.AddCommand(list, importCmd, export)
	return cmd
}

func decodeFile(path string) ([]geogamer.Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.Decode(f)
}

func newAdminCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts.",
	}

	var password string
	create := &cobra.Command{
		Use:   "create <email>",
		Short: "Create an admin, or reset the password of an existing one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}

			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			created, err := server.NewAdminDocStore(db).EnsureAdmin(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s %s\n", args[0], verb)
			return nil
		},
	}
	create.Flags().StringVar(&password, "password", "", "password; read from stdin when empty")

	cmd.AddCommand(create)
	return cmd
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("empty password")
	}
	return line, nil
}
