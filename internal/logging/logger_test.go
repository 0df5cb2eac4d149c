package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func resetState() {
	CloseAll()
	logsDir = ""
	config = loggingConfig{}
	logLevel = LevelInfo
}

func TestInitializeDisabledByDefault(t *testing.T) {
	defer resetState()
	dir := t.TempDir()

	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// No config file means no logging and no logs directory.
	Fetch("should go nowhere")
	if _, err := os.Stat(filepath.Join(dir, "logs")); !os.IsNotExist(err) {
		t.Error("logs directory created while logging is disabled")
	}
}

func TestInitializeDebugModeWritesFiles(t *testing.T) {
	defer resetState()
	dir := t.TempDir()
	writeConfig(t, dir, `{"logging": {"debug_mode": true, "level": "debug"}}`)

	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	Fetch("fetched %d records", 7)
	FetchDebug("page %d", 2)
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("logs dir: %v", err)
	}
	var fetchLog string
	for _, e := range entries {
		if strings.Contains(e.Name(), "fetch") {
			fetchLog = filepath.Join(dir, "logs", e.Name())
		}
	}
	if fetchLog == "" {
		t.Fatalf("no fetch log among %v", entries)
	}
	data, err := os.ReadFile(fetchLog)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fetched 7 records") {
		t.Errorf("info line missing: %s", data)
	}
	if !strings.Contains(string(data), "[DEBUG] page 2") {
		t.Errorf("debug line missing: %s", data)
	}
}

func TestCategoryToggle(t *testing.T) {
	defer resetState()
	dir := t.TempDir()
	writeConfig(t, dir, `{"logging": {"debug_mode": true, "categories": {"cache": false}}}`)

	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if IsCategoryEnabled(CategoryCache) {
		t.Error("cache category should be disabled")
	}
	if !IsCategoryEnabled(CategoryFetch) {
		t.Error("unlisted categories default to enabled")
	}

	Cache("dropped on the floor")
	CloseAll()
	entries, _ := os.ReadDir(filepath.Join(dir, "logs"))
	for _, e := range entries {
		if strings.Contains(e.Name(), "cache") {
			t.Errorf("cache log file created despite disabled category: %s", e.Name())
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	defer resetState()
	dir := t.TempDir()
	writeConfig(t, dir, `{"logging": {"debug_mode": true, "level": "error"}}`)

	if err := Initialize(dir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	TranslateWarn("suppressed")
	TranslateError("kept")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("logs dir: %v", err)
	}
	for _, e := range entries {
		if !strings.Contains(e.Name(), "translate") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, "logs", e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "suppressed") {
			t.Error("warn line written at error level")
		}
		if !strings.Contains(string(data), "kept") {
			t.Error("error line missing")
		}
	}
}
