// Package extract wraps the GNU xgettext utility to produce a POT template
// from a project's source files. Extraction is a collaborator step: the
// template it produces is consumed by the seed command, which merges it
// into every locale's PO file.
package extract

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedExtensions maps source file extensions to xgettext language
// names. xgettext auto-detects from extensions too; the explicit map tells
// us which files to collect.
var SupportedExtensions = map[string]string{
	".py":  "Python",
	".rb":  "Ruby",
	".c":   "C",
	".h":   "C",
	".cc":  "C++",
	".cpp": "C++",
	".sh":  "Shell",
	".js":  "JavaScript",
	".pl":  "Perl",
	".php": "PHP",
}

// skipDirs are directory names never scanned for sources.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".eggs":        true,
	"locale":       true,
	"locales":      true,
}

// Result holds the outcome of an extraction.
type Result struct {
	// SourceFiles is the list of source files scanned.
	SourceFiles []string
	// Languages is the set of detected programming languages.
	Languages []string
	// Template is the path to the generated .pot file.
	Template string
}

// FindSources recursively collects source files with known extensions
// under root, skipping common non-source directories and the locale tree.
func FindSources(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if info.IsDir() {
			if skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := SupportedExtensions[filepath.Ext(path)]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// DetectedLanguages returns the sorted set of programming languages found
// in the file list.
func DetectedLanguages(files []string) []string {
	seen := make(map[string]bool)
	for _, f := range files {
		if lang, ok := SupportedExtensions[filepath.Ext(f)]; ok {
			seen[lang] = true
		}
	}
	var langs []string
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Run extracts translatable strings from files into a POT template at
// potFile. pkgName and pkgVersion seed the template header. xgettext
// warnings are suppressed; only hard failures surface.
func Run(files []string, potFile, pkgName, pkgVersion string) (*Result, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files to extract from")
	}

	xgettextPath, err := exec.LookPath("xgettext")
	if err != nil {
		return nil, fmt.Errorf("xgettext not found; install gettext")
	}

	if err := os.MkdirAll(filepath.Dir(potFile), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	args := []string{
		"--output=" + potFile,
		"--from-code=UTF-8",
		"--add-comments=TRANSLATORS:",
		"--keyword=_",
		"--keyword=N_",
		"--keyword=ngettext:1,2",
		"--keyword=pgettext:1c,2",
		"--keyword=npgettext:1c,2,3",
	}
	if pkgName != "" {
		args = append(args, "--package-name="+pkgName)
	}
	if pkgVersion != "" {
		args = append(args, "--package-version="+pkgVersion)
	}

	// File list goes through a temp file to dodge arg length limits.
	tmpFile, err := os.CreateTemp("", "polyglot-files-*.txt")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	for _, f := range files {
		fmt.Fprintln(tmpFile, f)
	}
	tmpFile.Close()
	args = append(args, "--files-from="+tmpPath)

	cmd := exec.Command(xgettextPath, args...)
	var stderrBuf strings.Builder
	cmd.Stderr = &stderrBuf
	if err := cmd.Run(); err != nil {
		if stderrBuf.Len() > 0 {
			fmt.Fprint(os.Stderr, stderrBuf.String())
		}
		return nil, fmt.Errorf("xgettext failed: %w", err)
	}

	// xgettext skips file creation when no strings were found.
	if _, err := os.Stat(potFile); os.IsNotExist(err) {
		if err := os.WriteFile(potFile, []byte(""), 0644); err != nil {
			return nil, fmt.Errorf("creating empty template: %w", err)
		}
	}

	return &Result{
		SourceFiles: files,
		Languages:   DetectedLanguages(files),
		Template:    potFile,
	}, nil
}
