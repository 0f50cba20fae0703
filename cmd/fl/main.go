package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filelist-go/internal/app"
	"filelist-go/internal/catalog"
	"filelist-go/internal/config"
	"filelist-go/internal/database"
	"filelist-go/internal/database/migrations"
	"filelist-go/internal/export"
	"filelist-go/internal/fs"
	"filelist-go/internal/merge"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates the App. The caller must defer
// app.Close(). operation identifies the CLI command being run
// (e.g. "Build", "Export").
func newApp(operation string, noLog bool) (*app.App, error) {
	a, err := app.NewApp(operation, noLog)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// outputDir resolves the directory for produced artifacts: the -o flag when
// given, else the configured output_dir, else the current directory. The
// directory must already exist.
func outputDir(flagValue string, cfg *config.Config) (string, error) {
	dir := flagValue
	if dir == "" {
		dir = cfg.OutputDir
	}
	if dir == "" {
		dir = "."
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("output directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output path %s is not a directory", dir)
	}
	return dir, nil
}

var rootCmd = &cobra.Command{
	Use:   "fl",
	Short: "Directory catalog tool: hash file trees into SQLite catalogs",
}

// build command
var buildCmd = &cobra.Command{
	Use:   "build SCANDIR TITLE",
	Short: "Scan a directory tree and build a catalog database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFlag, _ := cmd.Flags().GetString("outdir")
		nameFlag, _ := cmd.Flags().GetString("name")
		trimParent, _ := cmd.Flags().GetBool("trim-parent")
		force, _ := cmd.Flags().GetBool("force")
		noLog, _ := cmd.Flags().GetBool("no-log")
		archive, _ := cmd.Flags().GetBool("archive")

		a, err := newApp("Build", noLog)
		if err != nil {
			return err
		}
		defer a.Close()

		scanDir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving scan directory: %w", err)
		}
		info, err := os.Stat(scanDir)
		if err != nil {
			return fmt.Errorf("scan directory %s: %w", scanDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("scan path %s is not a directory", scanDir)
		}
		title := args[1]

		outDir, err := outputDir(outFlag, a.Cfg)
		if err != nil {
			return err
		}

		// One run timestamp: it stamps the default file name and is recorded
		// as the catalog's created key, so the two always agree.
		started := time.Now()

		name := nameFlag
		if name == "" {
			name = fmt.Sprintf("FileList-%s-%s.sqlite", title, started.Format("20060102_150405"))
		}
		outPath := filepath.Join(outDir, name)

		if _, err := os.Stat(outPath); err == nil && !force {
			return fmt.Errorf("output file %s already exists (use --force to overwrite)", outPath)
		}

		// With --trim-parent, directory paths are stored relative to the
		// scan directory's parent: strip everything before the last path
		// component of the scan directory.
		dirnameStart := 0
		if trimParent {
			cleaned := filepath.Clean(scanDir)
			dirnameStart = len(cleaned) - len(filepath.Base(cleaned))
		}

		host, err := os.Hostname()
		if err != nil {
			host = a.Cfg.HostID
		}

		walker := fs.NewWalker(a.Cfg.Scan.Ignore, a.Logger)
		opener := func() (catalog.Store, error) {
			if force {
				if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
					return nil, fmt.Errorf("removing existing output: %w", err)
				}
			}
			return database.CreateCatalog(outPath)
		}

		var progress catalog.ProgressFunc
		if term.IsTerminal(int(os.Stdout.Fd())) {
			progress = func(p catalog.Progress) {
				fmt.Printf("%d of %d (%s) eta %s: %s\n", p.Index, p.Count, p.Percent, p.Finish, p.Path)
			}
		}

		builder := catalog.NewBuilder(walker, opener, a.Logger, catalog.RealClock{}, progress)
		result, err := builder.Run(catalog.BuildOptions{
			ScanDir:      scanDir,
			Title:        title,
			Host:         host,
			DirnameStart: dirnameStart,
			SchemaVer:    migrations.CatalogSchemaVersion,
			Started:      started,
		})
		if err != nil {
			return fmt.Errorf("building catalog: %w", err)
		}

		if result.Empty {
			fmt.Printf("No files found in '%s'.\n", scanDir)
			return nil
		}

		fmt.Printf("Cataloged %d file(s), %d byte(s)\n", result.Files, result.Bytes)
		fmt.Printf("Catalog written to %s\n", outPath)

		if archive {
			if err := archiveCatalog(a, outPath); err != nil {
				return err
			}
			fmt.Printf("Archived %s to vault\n", filepath.Base(outPath))
		}
		return nil
	},
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info CATALOG",
	Short: "Show catalog metadata and row counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.OpenConnection(args[0])
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer db.Close()

		md, err := database.ReadMetadata(db)
		if err != nil {
			return err
		}

		var files, dirs int64
		if err := db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&files); err != nil {
			return fmt.Errorf("counting files: %w", err)
		}
		if err := db.QueryRow(`SELECT COUNT(*) FROM directories`).Scan(&dirs); err != nil {
			return fmt.Errorf("counting directories: %w", err)
		}

		finished := md.Finished
		if finished == "" {
			finished = "(incomplete)"
		}

		fmt.Printf("Title:       %s\n", md.Title)
		fmt.Printf("Scan dir:    %s\n", md.ScanDir)
		fmt.Printf("Host:        %s\n", md.Host)
		fmt.Printf("Created:     %s\n", md.Created)
		fmt.Printf("Finished:    %s\n", finished)
		fmt.Printf("Files:       %d\n", files)
		fmt.Printf("Directories: %d\n", dirs)
		fmt.Printf("Written by:  %s %s (schema v%d)\n", md.AppName, md.AppVersion, md.DBVersion)
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export CATALOG",
	Short: "Export a catalog to CSV files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFlag, _ := cmd.Flags().GetString("outdir")
		fullName, _ := cmd.Flags().GetBool("fullname")
		alt, _ := cmd.Flags().GetBool("alt")
		dfn, _ := cmd.Flags().GetBool("dfn")
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		noLog, _ := cmd.Flags().GetBool("no-log")

		a, err := newApp("Export", noLog)
		if err != nil {
			return err
		}
		defer a.Close()

		db, err := database.OpenConnection(args[0])
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer db.Close()

		md, err := database.ReadMetadata(db)
		if err != nil {
			return err
		}

		outDir, err := outputDir(outFlag, a.Cfg)
		if err != nil {
			return err
		}

		opts := export.Options{
			OutDir:   outDir,
			FullName: fullName,
			Alt:      alt,
			DFN:      dfn,
		}
		if encrypt {
			enc := a.Encryptor()
			if !enc.IsConfigured() {
				return fmt.Errorf("encryption keys not set up (run 'fl keys init')")
			}
			opts.Encryptor = enc
		}

		written, err := export.Run(db, md, opts, a.Logger)
		if err != nil {
			return fmt.Errorf("exporting catalog: %w", err)
		}

		for _, path := range written {
			fmt.Printf("Wrote %s\n", path)
		}
		return nil
	},
}

// merge command
var mergeCmd = &cobra.Command{
	Use:   "merge CATALOG[,TAG]...",
	Short: "Merge one or more catalogs into a combined database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFlag, _ := cmd.Flags().GetString("outdir")
		name, _ := cmd.Flags().GetString("name")
		force, _ := cmd.Flags().GetBool("force")
		appendMode, _ := cmd.Flags().GetBool("append")
		noLog, _ := cmd.Flags().GetBool("no-log")

		a, err := newApp("Merge", noLog)
		if err != nil {
			return err
		}
		defer a.Close()

		var sources []merge.Source
		for _, arg := range args {
			path, tag, _ := strings.Cut(arg, ",")
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("source catalog %s: %w", path, err)
			}
			sources = append(sources, merge.Source{Path: path, Tag: tag})
		}

		if strings.ContainsRune(name, os.PathSeparator) && outFlag != "" {
			return fmt.Errorf("--name must not contain a directory when --outdir is given")
		}
		outDir, err := outputDir(outFlag, a.Cfg)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(outDir, name)

		_, statErr := os.Stat(dstPath)
		exists := statErr == nil
		switch {
		case appendMode && !exists:
			return fmt.Errorf("destination %s does not exist (--append requires an existing merge database)", dstPath)
		case !appendMode && exists && !force:
			return fmt.Errorf("destination %s already exists (use --force to overwrite or --append to add)", dstPath)
		case !appendMode && exists:
			if err := os.Remove(dstPath); err != nil {
				return fmt.Errorf("removing existing destination: %w", err)
			}
		}

		result, err := merge.Run(dstPath, sources, a.Logger)
		if err != nil {
			return err
		}

		for _, tag := range result.Merged {
			fmt.Printf("Merged '%s'\n", tag)
		}
		for _, tag := range result.Skipped {
			fmt.Printf("Skipped '%s': tag already present\n", tag)
		}
		fmt.Printf("Merge database: %s\n", dstPath)
		return nil
	},
}

// archiveCatalog uploads one catalog file to the configured vault.
func archiveCatalog(a *app.App, path string) error {
	v, err := a.Vault()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("sizing catalog: %w", err)
	}

	if err := v.Put(filepath.Base(path), f, info.Size()); err != nil {
		return fmt.Errorf("archiving catalog: %w", err)
	}
	return nil
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive CATALOG",
	Short: "Upload a catalog to the configured vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noLog, _ := cmd.Flags().GetBool("no-log")

		a, err := newApp("Archive", noLog)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := archiveCatalog(a, args[0]); err != nil {
			return err
		}
		fmt.Printf("Archived %s to vault\n", filepath.Base(args[0]))
		return nil
	},
}

// retrieve command
var retrieveCmd = &cobra.Command{
	Use:   "retrieve NAME",
	Short: "Download a catalog from the configured vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outFlag, _ := cmd.Flags().GetString("outdir")
		noLog, _ := cmd.Flags().GetBool("no-log")

		a, err := newApp("Retrieve", noLog)
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.Vault()
		if err != nil {
			return err
		}

		outDir, err := outputDir(outFlag, a.Cfg)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, args[0])

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()

		if err := v.Get(args[0], f); err != nil {
			return fmt.Errorf("retrieving catalog: %w", err)
		}

		fmt.Printf("Retrieved %s\n", outPath)
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
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
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Output Dir:  %s\n", cfg.OutputDir)
		fmt.Printf("Public Key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private Key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an age key pair for export encryption",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("KeysInit", true)
		if err != nil {
			return err
		}
		defer a.Close()

		enc := a.Encryptor()
		if enc.IsConfigured() {
			return fmt.Errorf("encryption keys already exist")
		}

		passphrase, err := readPassphrase("Passphrase for private key: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Printf("Public key:  %s\n", a.Cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", a.Cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt FILE",
	Short: "Decrypt an age-encrypted export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Decrypt", true)
		if err != nil {
			return err
		}
		defer a.Close()

		inPath := args[0]
		outPath := strings.TrimSuffix(inPath, ".age")
		if outPath == inPath {
			return fmt.Errorf("input file %s does not have an .age suffix", inPath)
		}

		passphrase, err := readPassphrase("Passphrase for private key: ")
		if err != nil {
			return err
		}

		ctx, err := a.Encryptor().Unlock(passphrase)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}

		in, err := os.Open(inPath)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer in.Close()

		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer out.Close()

		if err := ctx.Decrypt(in, out); err != nil {
			return fmt.Errorf("decrypting: %w", err)
		}

		fmt.Printf("Decrypted to %s\n", outPath)
		return nil
	},
}

// readPassphrase prompts on stderr and reads without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("outdir", "o", "", "Directory for the catalog file")
	buildCmd.Flags().String("name", "", "Catalog file name (default FileList-TITLE-TIMESTAMP.sqlite)")
	buildCmd.Flags().BoolP("trim-parent", "t", false, "Store directory paths relative to the scan directory's parent")
	buildCmd.Flags().BoolP("force", "f", false, "Overwrite an existing catalog file")
	buildCmd.Flags().Bool("no-log", false, "Do not write a log file")
	buildCmd.Flags().Bool("archive", false, "Upload the catalog to the vault after building")

	rootCmd.AddCommand(infoCmd)

	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("outdir", "o", "", "Directory for the export files")
	exportCmd.Flags().Bool("fullname", false, "Also write the FullName variant")
	exportCmd.Flags().Bool("alt", false, "Also write the Alt variant")
	exportCmd.Flags().Bool("dfn", false, "Also write the DirFileName variant")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt exports with the configured age public key")
	exportCmd.Flags().Bool("no-log", false, "Do not write a log file")

	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringP("outdir", "o", "", "Directory for the merge database")
	mergeCmd.Flags().StringP("name", "n", "FileList-Merged.sqlite", "Merge database file name")
	mergeCmd.Flags().BoolP("force", "f", false, "Overwrite an existing merge database")
	mergeCmd.Flags().Bool("append", false, "Add sources to an existing merge database")
	mergeCmd.Flags().Bool("no-log", false, "Do not write a log file")

	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().Bool("no-log", false, "Do not write a log file")

	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringP("outdir", "o", "", "Directory for the retrieved catalog")
	retrieveCmd.Flags().Bool("no-log", false, "Do not write a log file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	keysCmd.AddCommand(keysInitCmd)
	rootCmd.AddCommand(keysCmd)

	rootCmd.AddCommand(decryptCmd)
}
