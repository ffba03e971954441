package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

func writeConfigYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "importer.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	dump := writeFile(t, dir, "kaikki.jsonl", "")
	nouns := writeFile(t, dir, "nouns.csv", "")

	path := writeConfigYAML(t, `
wiktextract_path: "`+dump+`"
itwac:
  noun_path: "`+nouns+`"
  noun_version: "2.0.1"
parts_of_speech: ["noun", "verb"]
batch_size: 250
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.WiktextractPath != dump {
		t.Errorf("WiktextractPath: got %q, want %q", cfg.WiktextractPath, dump)
	}
	if cfg.BatchSize != 250 {
		t.Errorf("BatchSize: got %d, want 250", cfg.BatchSize)
	}
	if cfg.ItWaC.NounVersion != "2.0.1" {
		t.Errorf("NounVersion: got %q, want 2.0.1", cfg.ItWaC.NounVersion)
	}
	if cfg.ItWaC.VerbVersion != "2.1.0" {
		t.Errorf("VerbVersion default: got %q, want 2.1.0", cfg.ItWaC.VerbVersion)
	}
	if cfg.ItWaC.CorpusSize != 1.9e9 {
		t.Errorf("CorpusSize default: got %v, want 1.9e9", cfg.ItWaC.CorpusSize)
	}
	if cfg.UnresolvedLogLimit != 20 {
		t.Errorf("UnresolvedLogLimit default: got %d, want 20", cfg.UnresolvedLogLimit)
	}

	// Canonical order regardless of the order configured.
	got := cfg.POS()
	if len(got) != 2 || got[0] != domain.PartOfSpeechVerb || got[1] != domain.PartOfSpeechNoun {
		t.Errorf("POS: got %v, want [verb noun]", got)
	}
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	t.Setenv("IMPORTER_BATCH_SIZE", "42")
	t.Setenv("IMPORTER_DRY_RUN", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BatchSize != 42 {
		t.Errorf("BatchSize: got %d, want 42", cfg.BatchSize)
	}
	if !cfg.DryRun {
		t.Error("DryRun: got false, want true")
	}
	if len(cfg.POS()) != 3 {
		t.Errorf("POS default: got %v, want all three", cfg.POS())
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, "morph-it.txt", "")

	valid := func() Config {
		return Config{
			MorphitPath:        existing,
			ItWaC:              ItWaCConfig{VerbVersion: "2.1.0", NounVersion: "2.0.0", AdjectiveVersion: "2.1.0", CorpusSize: 1.9e9},
			PartsOfSpeech:      []string{"verb"},
			BatchSize:          10,
			UnresolvedLogLimit: 5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown part of speech", func(c *Config) { c.PartsOfSpeech = []string{"adverb"} }, true},
		{"no parts of speech", func(c *Config) { c.PartsOfSpeech = nil }, true},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, true},
		{"missing source file", func(c *Config) { c.MorphitPath = filepath.Join(dir, "nope.txt") }, true},
		{"zero corpus size", func(c *Config) { c.ItWaC.CorpusSize = 0 }, true},
		{"negative max sentence length", func(c *Config) { c.Tatoeba.MaxSentenceLen = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestItWaCConfig_PathAndVersion(t *testing.T) {
	c := ItWaCConfig{
		VerbPath: "v.csv", NounPath: "n.csv", AdjectivePath: "a.csv",
		VerbVersion: "2.1.0", NounVersion: "2.0.0", AdjectiveVersion: "2.1.1",
	}
	for _, tt := range []struct {
		pos         domain.PartOfSpeech
		path, label string
	}{
		{domain.PartOfSpeechVerb, "v.csv", "2.1.0"},
		{domain.PartOfSpeechNoun, "n.csv", "2.0.0"},
		{domain.PartOfSpeechAdjective, "a.csv", "2.1.1"},
		{"adverb", "", ""},
	} {
		if got := c.Path(tt.pos); got != tt.path {
			t.Errorf("Path(%s) = %q, want %q", tt.pos, got, tt.path)
		}
		if got := c.Version(tt.pos); got != tt.label {
			t.Errorf("Version(%s) = %q, want %q", tt.pos, got, tt.label)
		}
	}
}
