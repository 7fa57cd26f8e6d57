// polyglot is a multi-locale translation file manager for gettext PO and
// Rails-style YAML projects.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openlocale/polyglot/extract"
	"github.com/openlocale/polyglot/i18n"
	"github.com/openlocale/polyglot/merge"
	"github.com/openlocale/polyglot/mofile"
	"github.com/openlocale/polyglot/parse"
	"github.com/openlocale/polyglot/pofile"
	"github.com/openlocale/polyglot/project"
	"github.com/openlocale/polyglot/results"
	"github.com/openlocale/polyglot/sourcehash"
	"github.com/openlocale/polyglot/validate"
	"github.com/openlocale/polyglot/writeback"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir       string
	defaultLocale string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "polyglot",
		Short: "Multi-locale translation file manager",
		Long: `polyglot is a multi-locale translation file manager.

Detects the project's translation layout (gettext locale/ trees or Rails
config/locales YAML), builds a locale-independent key model from the
default locale, and keeps every other locale structurally in sync with it.
Edits are merged back into the original files: comments, ordering and
untouched values are preserved.

Commands:
  status      Show project layout and per-locale translation statistics
  check       Validate translations against the default locale
  write       Write the model back to disk (with optional repairs)
  compile     Compile PO files to binary MO (gettext projects)
  seed        Synchronise PO files with an extracted POT template`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&defaultLocale, "default-locale", "",
		"Default locale (auto-detected when empty: en, else first found)")

	root.AddCommand(
		newStatusCmd(),
		newCheckCmd(),
		newWriteCmd(),
		newCompileCmd(),
		newSeedCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// loadProject detects the project under the global root directory.
func loadProject() (*project.Project, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	return project.Detect(root, defaultLocale)
}

// lockFor returns the source-hash lock for formats without a native
// staleness marker, nil otherwise.
func lockFor(p *project.Project) *sourcehash.LockFile {
	if p.Format == project.FormatYAML {
		return sourcehash.Load(p.Root)
	}
	return nil
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("polyglot version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// status (read-only: project info + per-locale stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project layout and per-locale translation statistics",
		Long: `Show the auto-detected project layout and translation statistics.

Displays the detected format (gettext or YAML), the default locale, and
per-locale translation progress including stale and invalid counts. Does
not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			logInfo("%s", i18n.T("Parsing project..."))
			src := parse.Run(p, lockFor(p))
			report := validate.Check(src.Model, p.DefaultLocale, p.Locales)

			summary := results.Collect(p, src, report)
			fmt.Print(summary.Render())
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// check (validation with a non-zero exit on problems)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate translations against the default locale",
		Long: `Validate every translated value against its default-locale string.

Checked classes: escaped unicode sequences, {N} placeholder mismatches,
unbalanced braces, changed leading/trailing whitespace, and changed
newline counts. Exits non-zero when any file failed to parse or any value
is flagged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			src := parse.Run(p, lockFor(p))
			report := validate.Check(src.Model, p.DefaultLocale, p.Locales)

			for _, f := range src.Failed {
				logWarning("skipped %s: %v", f.Path, f.Err)
			}
			if verbose {
				for _, gi := range report.Groups {
					var parts []string
					if len(gi.Missing) > 0 {
						parts = append(parts, fmt.Sprintf("missing: %s", strings.Join(gi.Missing, ", ")))
					}
					for flag, locales := range gi.ByFlag {
						parts = append(parts, fmt.Sprintf("%s: %s", flag, strings.Join(locales, ", ")))
					}
					fmt.Printf("%s\n  %s\n", gi.Key, strings.Join(parts, "\n  "))
				}
			}

			summary := results.Collect(p, src, report)
			if !summary.OK() {
				return fmt.Errorf("validation found problems (%d flagged keys, %d unreadable files)",
					len(report.Groups), len(src.Failed))
			}
			logSuccess("%s", i18n.T("No problems found."))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every flagged key")
	return cmd
}

// ---------------------------------------------------------------------------
// write (merge the model back into the project tree)
// ---------------------------------------------------------------------------

func newWriteCmd() *cobra.Command {
	var (
		fix        bool
		compileMO  bool
		addLocales []string
	)
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the model back to disk",
		Long: `Re-serialise the translation model into the project tree.

Existing files are merged in place: comments, key order and untouched
values survive the rewrite. Locales added with --add-locale get files
created from the default locale's structure, with untranslated keys as
explicit empty values. With --fix, mechanically repairable validation
problems (escaped unicode, edge whitespace, literal \n escapes) are
corrected before writing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			logInfo("%s", i18n.T("Parsing project..."))
			lock := lockFor(p)
			src := parse.Run(p, lock)

			for _, locale := range addLocales {
				if !project.IsLocaleCode(locale) {
					return fmt.Errorf("invalid locale code %q", locale)
				}
				if !containsString(p.Locales, locale) {
					p.Locales = append(p.Locales, locale)
				}
			}

			if fix {
				validate.Check(src.Model, p.DefaultLocale, p.Locales)
				if validate.Repair(src.Model, p.DefaultLocale) {
					logInfo("applied automatic repairs")
				}
			}

			logInfo("%s", i18n.T("Writing translation files..."))
			engine := &writeback.Engine{
				Project:   p,
				Source:    src,
				Lock:      lock,
				CompileMO: compileMO,
			}
			res := engine.Run()

			for _, w := range res.Warnings {
				logWarning("%s", w)
			}
			for _, f := range res.Failed {
				logError("%s: %v", f.Path, f.Err)
			}
			logSuccess(i18n.N("Wrote %d file", "Wrote %d files", len(res.Written)), len(res.Written))
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d files could not be written", len(res.Failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "Repair fixable validation problems before writing")
	cmd.Flags().BoolVar(&compileMO, "mo", false, "Also compile MO siblings (gettext projects)")
	cmd.Flags().StringSliceVar(&addLocales, "add-locale", nil, "Locale(s) to add to the project")
	return cmd
}

// ---------------------------------------------------------------------------
// compile (PO → MO, gettext projects only)
// ---------------------------------------------------------------------------

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Compile PO files to binary MO (gettext projects)",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			if p.Format != project.FormatGettext {
				return fmt.Errorf("compile applies to gettext projects only")
			}

			compiled, failed := 0, 0
			for _, locale := range p.Locales {
				for _, path := range p.FilesByLocale[locale] {
					f, err := pofile.ParseFile(path)
					if err != nil {
						logWarning("skipped %s: %v", path, err)
						failed++
						continue
					}
					moPath := strings.TrimSuffix(path, ".po") + ".mo"
					if err := mofile.WriteFile(f, moPath); err != nil {
						logError("%s: %v", moPath, err)
						failed++
						continue
					}
					compiled++
				}
			}
			logSuccess(i18n.N("Wrote %d file", "Wrote %d files", compiled), compiled)
			if failed > 0 {
				return fmt.Errorf("%d files could not be compiled", failed)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// seed (synchronise PO files with an extracted POT template)
// ---------------------------------------------------------------------------

func newSeedCmd() *cobra.Command {
	var (
		template  string
		doExtract bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Synchronise PO files with an extracted POT template",
		Long: `Merge an extracted POT template into every locale's PO file, the way
msgmerge does: new template entries appear untranslated, kept entries
preserve their translation, and entries gone from the template become
obsolete. With --extract the template is regenerated first by running
xgettext over the project's source files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			if p.Format != project.FormatGettext {
				return fmt.Errorf("seed applies to gettext projects only")
			}

			potPath := template
			if doExtract {
				if potPath == "" {
					potPath = filepath.Join(p.LocaleDir, "messages.pot")
				}
				sources, err := extract.FindSources(p.Root)
				if err != nil {
					return err
				}
				res, err := extract.Run(sources, potPath, filepath.Base(p.Root), version)
				if err != nil {
					return err
				}
				logInfo("extracted from %d source files (%s)",
					len(res.SourceFiles), strings.Join(res.Languages, ", "))
			}
			if potPath == "" {
				potPath = findTemplate(p)
				if potPath == "" {
					return fmt.Errorf("no POT template found under %s (use --template)", p.LocaleDir)
				}
			}
			pot, err := pofile.ParseFile(potPath)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", potPath, err)
			}
			logInfo("template: %s (%d entries)", potPath, len(pot.Entries))

			seeded, failed := 0, 0
			for _, locale := range p.Locales {
				for _, path := range p.FilesByLocale[locale] {
					f, err := pofile.ParseFile(path)
					if err != nil {
						logWarning("skipped %s: %v", path, err)
						failed++
						continue
					}
					merged := merge.Merge(f, pot)
					data, err := merged.Marshal()
					if err != nil {
						logError("%s: %v", path, err)
						failed++
						continue
					}
					if err := os.WriteFile(path, data, 0644); err != nil {
						logError("%s: %v", path, err)
						failed++
						continue
					}
					seeded++
				}
			}
			logSuccess(i18n.N("Wrote %d file", "Wrote %d files", seeded), seeded)
			if failed > 0 {
				return fmt.Errorf("%d files could not be seeded", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "Path to the POT template")
	cmd.Flags().BoolVar(&doExtract, "extract", false, "Run xgettext to regenerate the template first")
	return cmd
}

// findTemplate looks for a *.pot file in the locale directory.
func findTemplate(p *project.Project) string {
	matches, _ := filepath.Glob(filepath.Join(p.LocaleDir, "*.pot"))
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
