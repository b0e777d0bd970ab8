package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScanLines_BindsCallSitesToNamespace(t *testing.T) {
	lines := []string{
		`const t = useTranslations('home')`,
		`return <h1>{t('title')}</h1>`,
	}

	usages := ScanLines("home.tsx", lines)

	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d: %v", len(usages), usages)
	}
	if usages[0].Key != "home.title" {
		t.Errorf("expected key home.title, got %s", usages[0].Key)
	}
	if usages[0].Line != 2 {
		t.Errorf("expected line 2, got %d", usages[0].Line)
	}
}

func TestScanLines_NearestPrecedingBindingWins(t *testing.T) {
	lines := []string{
		`const t = useTranslations('home')`,
		`t('title')`,
		`const t = useTranslations('settings')`,
		`t('label')`,
	}

	usages := ScanLines("mixed.tsx", lines)

	keys := make([]string, len(usages))
	for i, u := range usages {
		keys[i] = u.Key
	}
	want := []string{"home.title", "settings.label"}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("expected %v, got %v", want, keys)
	}
}

func TestScanLines_LookbackWindow(t *testing.T) {
	lines := []string{`const t = useTranslations('far')`}
	for i := 0; i < lookbackWindow; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, `t('away')`) // binding is lookbackWindow+1 lines up

	if usages := ScanLines("far.tsx", lines); len(usages) != 0 {
		t.Errorf("binding outside the lookback window must not attribute, got %v", usages)
	}

	// One line closer, and the binding is picked up again
	within := []string{`const t = useTranslations('near')`}
	for i := 0; i < lookbackWindow-1; i++ {
		within = append(within, "")
	}
	within = append(within, `t('enough')`)

	usages := ScanLines("near.tsx", within)
	if len(usages) != 1 || usages[0].Key != "near.enough" {
		t.Errorf("expected near.enough within the window, got %v", usages)
	}
}

func TestScanLines_IgnoresUnboundCalls(t *testing.T) {
	lines := []string{
		`const t = useTranslations('home')`,
		`fetch('/api/data')`,
		`other('key')`,
	}

	if usages := ScanLines("noise.tsx", lines); len(usages) != 0 {
		t.Errorf("calls on unbound names must be ignored, got %v", usages)
	}
}

func TestCheck_MissingAndUnusedKeys(t *testing.T) {
	usages := []Usage{
		{File: "home.tsx", Line: 2, Key: "home.title"},
		{File: "home.tsx", Line: 3, Key: "home.subtitle"},
	}
	catalogs := map[string]map[string]string{
		"en": {"home.title": "Welcome", "home.footer": "Bye"},
		"fr": {"home.title": "Bienvenue", "home.subtitle": "Sous-titre"},
	}

	report := Check(usages, catalogs)

	if !report.HasMissing() {
		t.Fatal("expected missing keys")
	}
	missing, ok := report.Missing["home.subtitle"]
	if !ok || len(missing) != 1 || missing[0] != "en" {
		t.Errorf("expected home.subtitle missing from en, got %v", report.Missing)
	}
	unused, ok := report.Unused["en"]
	if !ok || len(unused) != 1 || unused[0] != "home.footer" {
		t.Errorf("expected home.footer unused in en, got %v", report.Unused)
	}
}

func TestCheck_CleanCatalogs(t *testing.T) {
	usages := []Usage{{Key: "home.title"}}
	catalogs := map[string]map[string]string{
		"en": {"home.title": "Welcome"},
		"fr": {"home.title": "Bienvenue"},
	}

	report := Check(usages, catalogs)

	if report.HasMissing() {
		t.Errorf("expected clean report, got missing %v", report.Missing)
	}
	if len(report.Unused) != 0 {
		t.Errorf("expected no unused keys, got %v", report.Unused)
	}
	if !strings.Contains(report.Format(), "present in every catalog") {
		t.Errorf("unexpected clean-report output: %q", report.Format())
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	src := `const t = useTranslations('dash')
export function Dash() {
  return t('heading')
}
`
	if err := os.WriteFile(filepath.Join(dir, "dash.tsx"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-source files are skipped
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("t('nope')"), 0o644); err != nil {
		t.Fatal(err)
	}

	usages, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(usages) != 1 || usages[0].Key != "dash.heading" {
		t.Errorf("expected [dash.heading], got %v", usages)
	}
}

func TestScanLines_MultipleBindingsPerFile(t *testing.T) {
	var lines []string
	for i := 0; i < 3; i++ {
		lines = append(lines,
			fmt.Sprintf("const t%d = useTranslations('ns%d')", i, i),
			fmt.Sprintf("t%d('key')", i),
		)
	}

	usages := ScanLines("multi.tsx", lines)
	if len(usages) != 3 {
		t.Fatalf("expected 3 usages, got %d", len(usages))
	}
	for i, u := range usages {
		want := fmt.Sprintf("ns%d.key", i)
		if u.Key != want {
			t.Errorf("expected %s, got %s", want, u.Key)
		}
	}
}
