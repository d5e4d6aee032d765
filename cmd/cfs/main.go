package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cfs-go/internal/app"
	"cfs-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(app.ExitCode(err))
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "snapshot", "export").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on stderr and reads without echo when stdin is a
// terminal, otherwise reads a line from stdin so the command stays scriptable.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		pass, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(pass), nil
	}

	var pass string
	if _, err := fmt.Fscanln(os.Stdin, &pass); err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return pass, nil
}

var rootCmd = &cobra.Command{
	Use:          "cfs",
	Short:        "Catalog filesystem trees as metadata records",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and export keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		pass, err := readPassphrase("Passphrase for the export private key: ")
		if err != nil {
			return err
		}

		a, err := app.NewApp(cfg, "config init")
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		if err := a.SetupKeys(pass); err != nil {
			return fmt.Errorf("generating export keys: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:  %s\n", cfg.HostID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		storeType := cfg.Store.Type
		if storeType == "" {
			storeType = "filesystem"
		}
		fmt.Printf("Store:    %s\n", storeType)
		if storeType == "s3" {
			fmt.Printf("Bucket:   %s\n", cfg.Store.S3Bucket)
		}
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot SOURCE OUTPUT",
	Short: "Write a catalog of SOURCE into OUTPUT",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := app.SnapshotFlags{}
		flags.Hash, _ = cmd.Flags().GetBool("sha256")
		flags.SkipExisting, _ = cmd.Flags().GetBool("continue")
		flags.DataOnly, _ = cmd.Flags().GetBool("data-only")
		flags.DataAndTime, _ = cmd.Flags().GetBool("data-and-time")
		flags.FromRecords, _ = cmd.Flags().GetBool("from-records")

		a, err := newApp("snapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		source, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving source: %w", err)
		}

		stats, err := a.Snapshot(source, args[1], flags)
		if stats != nil {
			fmt.Printf("%d dir(s), %d file(s), %d symlink(s), %d skipped, %d failed\n",
				stats.Dirs, stats.Files, stats.Symlinks, stats.Skipped, stats.Failed)
		}
		return err
	},
}

// inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Decode and print a catalog record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("inspect")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Inspect(args[0])
		if err != nil {
			return err
		}

		printField := func(name string, v sql.NullInt64) {
			if v.Valid {
				fmt.Printf("%-10s %d\n", name, v.Int64)
			}
		}
		printField("size", rec.Size)
		printField("blocks", rec.Blocks)
		printField("mode", rec.Mode)
		printField("uid", rec.UID)
		printField("gid", rec.GID)
		printField("atime", rec.Atime)
		printField("mtime", rec.Mtime)
		printField("ctime", rec.Ctime)
		printField("atimensec", rec.AtimeNsec)
		printField("mtimensec", rec.MtimeNsec)
		printField("ctimensec", rec.CtimeNsec)
		printField("nlink", rec.Nlink)
		printField("blksize", rec.Blksize)
		if rec.SHA256.Valid {
			fmt.Printf("%-10s %s\n", "sha256", rec.SHA256.String)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				d := r.FinishedAt.Time.Sub(r.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %-10s  %s  %-10s  %s\n",
				r.ID[:8],
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				duration,
			)
			if r.Operation == "snapshot" {
				fmt.Printf("          %d dir(s), %d file(s), %d symlink(s), %d skipped, %d failed\n",
					r.Dirs, r.Files, r.Symlinks, r.Skipped, r.Failed)
			}
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export INDEX ARCHIVE",
	Short: "Pack an index into an encrypted archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("export")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Export(args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("Exported %s to %s\n", args[0], args[1])
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import ARCHIVE DIR",
	Short: "Unpack an encrypted archive into a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("import")
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("Passphrase for the export private key: ")
		if err != nil {
			return err
		}

		if err := a.Import(args[0], args[1], pass); err != nil {
			return err
		}

		fmt.Printf("Imported %s into %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	snapshotCmd.Flags().BoolP("sha256", "s", false, "Compute a sha256 per file")
	snapshotCmd.Flags().BoolP("continue", "c", false, "Skip entries already present in the output")
	snapshotCmd.Flags().BoolP("data-only", "d", false, "Write only size and sha256")
	snapshotCmd.Flags().BoolP("data-and-time", "t", false, "Write size, mtime and sha256")
	snapshotCmd.Flags().BoolP("from-records", "x", false, "Treat source files as catalog records and re-ingest them")

	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
