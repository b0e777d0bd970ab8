package main

import (
	"fmt"
	"os"

	"sprintdesk/i18n"
)

// i18ncheck scans the frontend sources for translation-key usages and checks
// them against both locale catalogs. No flags, fixed relative paths; exit
// code 1 when any used key is missing from either catalog.

const (
	sourceDir = "web/src"
	enCatalog = "locales/en.json"
	frCatalog = "locales/fr.json"
)

func main() {
	usages, err := i18n.ScanDir(sourceDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18ncheck: %v\n", err)
		os.Exit(2)
	}

	catalogs := make(map[string]map[string]string)
	for name, path := range map[string]string{"en": enCatalog, "fr": frCatalog} {
		catalog, err := i18n.LoadCatalog(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "i18ncheck: %v\n", err)
			os.Exit(2)
		}
		catalogs[name] = catalog
	}

	report := i18n.Check(usages, catalogs)
	fmt.Print(report.Format())

	if report.HasMissing() {
		os.Exit(1)
	}
}
