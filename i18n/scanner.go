package i18n

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// The scanner is a line-based heuristic, not a parser. It pairs translator
// bindings with call sites by bound name within a fixed lookback window, so
// dynamic keys and shadowed names can be mis-attributed or missed.

// lookbackWindow is how many lines above a call site a binding may sit.
const lookbackWindow = 100

var (
	bindingRe = regexp.MustCompile(`const\s+([A-Za-z_$][\w$]*)\s*=\s*useTranslations\(\s*['"]([^'"]+)['"]\s*\)`)
	callRe    = regexp.MustCompile(`([A-Za-z_$][\w$]*)\(\s*['"]([^'"]+)['"]\s*\)`)
)

var sourceExtensions = map[string]struct{}{
	".ts": {}, ".tsx": {}, ".js": {}, ".jsx": {},
}

// Usage is one fully qualified translation key found at a call site.
type Usage struct {
	File string
	Line int
	Key  string
}

type binding struct {
	name      string
	namespace string
	line      int
}

// ScanDir walks root and extracts translation-key usages from every source file.
func ScanDir(root string) ([]Usage, error) {
	var usages []Usage
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := sourceExtensions[filepath.Ext(path)]; !ok {
			return nil
		}
		fileUsages, err := scanFile(path)
		if err != nil {
			return err
		}
		usages = append(usages, fileUsages...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return usages, nil
}

func scanFile(path string) ([]Usage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ScanLines(path, lines), nil
}

// ScanLines extracts usages from the lines of one file.
func ScanLines(path string, lines []string) []Usage {
	var bindings []binding
	for i, line := range lines {
		for _, m := range bindingRe.FindAllStringSubmatch(line, -1) {
			bindings = append(bindings, binding{name: m[1], namespace: m[2], line: i + 1})
		}
	}
	if len(bindings) == 0 {
		return nil
	}

	var usages []Usage
	for i, line := range lines {
		lineNo := i + 1
		for _, m := range callRe.FindAllStringSubmatch(line, -1) {
			name, key := m[1], m[2]
			if name == "useTranslations" {
				continue
			}
			// Nearest preceding binding of the same name within the window.
			// A binding on the call line itself is the useTranslations call,
			// not a translator invocation.
			var found *binding
			for j := range bindings {
				b := bindings[j]
				if b.name != name || b.line >= lineNo {
					continue
				}
				if lineNo-b.line > lookbackWindow {
					continue
				}
				if found == nil || b.line > found.line {
					found = &bindings[j]
				}
			}
			if found == nil {
				continue
			}
			usages = append(usages, Usage{
				File: path,
				Line: lineNo,
				Key:  found.namespace + "." + key,
			})
		}
	}
	return usages
}

// Report is the outcome of comparing usages against the locale catalogs.
type Report struct {
	// Missing maps a used key to the catalogs it is absent from.
	Missing map[string][]string
	// Unused maps a catalog name to its keys no call site references.
	Unused map[string][]string
}

// HasMissing reports whether any used key is absent from a catalog. Unused
// catalog keys are informational only and never fail the check.
func (r Report) HasMissing() bool {
	return len(r.Missing) > 0
}

// Check compares the scanned usages against every catalog.
func Check(usages []Usage, catalogs map[string]map[string]string) Report {
	report := Report{
		Missing: make(map[string][]string),
		Unused:  make(map[string][]string),
	}

	used := make(map[string]struct{})
	for _, u := range usages {
		used[u.Key] = struct{}{}
	}

	catalogNames := make([]string, 0, len(catalogs))
	for name := range catalogs {
		catalogNames = append(catalogNames, name)
	}
	sort.Strings(catalogNames)

	for key := range used {
		for _, name := range catalogNames {
			if _, ok := catalogs[name][key]; !ok {
				report.Missing[key] = append(report.Missing[key], name)
			}
		}
	}

	for _, name := range catalogNames {
		for key := range catalogs[name] {
			if _, ok := used[key]; !ok {
				report.Unused[name] = append(report.Unused[name], key)
			}
		}
		sort.Strings(report.Unused[name])
		if len(report.Unused[name]) == 0 {
			delete(report.Unused, name)
		}
	}

	return report
}

// SortedMissing returns the missing keys in stable order for reporting.
func (r Report) SortedMissing() []string {
	keys := make([]string, 0, len(r.Missing))
	for key := range r.Missing {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Format renders the report the way the CLI prints it.
func (r Report) Format() string {
	var b strings.Builder
	if len(r.Missing) == 0 {
		b.WriteString("All used translation keys are present in every catalog.\n")
	} else {
		fmt.Fprintf(&b, "%d translation key(s) missing:\n", len(r.Missing))
		for _, key := range r.SortedMissing() {
			fmt.Fprintf(&b, "  %s (missing from: %s)\n", key, strings.Join(r.Missing[key], ", "))
		}
	}
	if len(r.Unused) > 0 {
		catalogNames := make([]string, 0, len(r.Unused))
		for name := range r.Unused {
			catalogNames = append(catalogNames, name)
		}
		sort.Strings(catalogNames)
		for _, name := range catalogNames {
			fmt.Fprintf(&b, "%d key(s) in %s are never referenced:\n", len(r.Unused[name]), name)
			for _, key := range r.Unused[name] {
				fmt.Fprintf(&b, "  %s\n", key)
			}
		}
	}
	return b.String()
}
