package importer

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// ItWaCConfig locates the per-POS lemma frequency lists and their versions.
type ItWaCConfig struct {
	VerbPath         string  `yaml:"verb_path"         env:"IMPORTER_ITWAC_VERB_PATH"         validate:"omitempty,file"`
	NounPath         string  `yaml:"noun_path"         env:"IMPORTER_ITWAC_NOUN_PATH"         validate:"omitempty,file"`
	AdjectivePath    string  `yaml:"adjective_path"    env:"IMPORTER_ITWAC_ADJECTIVE_PATH"    validate:"omitempty,file"`
	VerbVersion      string  `yaml:"verb_version"      env:"IMPORTER_ITWAC_VERB_VERSION"      env-default:"2.1.0" validate:"required"`
	NounVersion      string  `yaml:"noun_version"      env:"IMPORTER_ITWAC_NOUN_VERSION"      env-default:"2.0.0" validate:"required"`
	AdjectiveVersion string  `yaml:"adjective_version" env:"IMPORTER_ITWAC_ADJECTIVE_VERSION" env-default:"2.1.0" validate:"required"`
	CorpusSize       float64 `yaml:"corpus_size"       env:"IMPORTER_ITWAC_CORPUS_SIZE"       env-default:"1900000000" validate:"gt=0"`
}

// Path returns the frequency list configured for pos.
func (c ItWaCConfig) Path(pos domain.PartOfSpeech) string {
	switch pos {
	case domain.PartOfSpeechVerb:
		return c.VerbPath
	case domain.PartOfSpeechNoun:
		return c.NounPath
	case domain.PartOfSpeechAdjective:
		return c.AdjectivePath
	}
	return ""
}

// Version returns the corpus version recorded for pos.
func (c ItWaCConfig) Version(pos domain.PartOfSpeech) string {
	switch pos {
	case domain.PartOfSpeechVerb:
		return c.VerbVersion
	case domain.PartOfSpeechNoun:
		return c.NounVersion
	case domain.PartOfSpeechAdjective:
		return c.AdjectiveVersion
	}
	return ""
}

// TatoebaConfig locates the sentence corpus files.
type TatoebaConfig struct {
	ItalianPath    string `yaml:"italian_path"     env:"IMPORTER_TATOEBA_ITALIAN_PATH" validate:"omitempty,file"`
	EnglishPath    string `yaml:"english_path"     env:"IMPORTER_TATOEBA_ENGLISH_PATH" validate:"omitempty,file"`
	LinksPath      string `yaml:"links_path"       env:"IMPORTER_TATOEBA_LINKS_PATH"   validate:"omitempty,file"`
	MaxSentenceLen int    `yaml:"max_sentence_len" env:"IMPORTER_TATOEBA_MAX_LEN"      env-default:"0" validate:"gte=0"`
}

func (c TatoebaConfig) configured() bool {
	return c.ItalianPath != "" && c.EnglishPath != "" && c.LinksPath != ""
}

// Config holds import pipeline settings.
type Config struct {
	WiktextractPath    string        `yaml:"wiktextract_path"  env:"IMPORTER_WIKTEXTRACT_PATH" validate:"omitempty,file"`
	MorphitPath        string        `yaml:"morphit_path"      env:"IMPORTER_MORPHIT_PATH"     validate:"omitempty,file"`
	ItWaC              ItWaCConfig   `yaml:"itwac"`
	Tatoeba            TatoebaConfig `yaml:"tatoeba"`
	PartsOfSpeech      []string      `yaml:"parts_of_speech"   env:"IMPORTER_POS"            env-default:"verb,noun,adjective" validate:"min=1,dive,oneof=verb noun adjective"`
	BatchSize          int           `yaml:"batch_size"        env:"IMPORTER_BATCH_SIZE"     env-default:"1000" validate:"min=1"`
	UnresolvedLogLimit int           `yaml:"unresolved_log_limit" env:"IMPORTER_UNRESOLVED_LOG_LIMIT" env-default:"20" validate:"gte=0"`
	DryRun             bool          `yaml:"dry_run"           env:"IMPORTER_DRY_RUN"`
}

// POS returns the configured parts of speech in canonical order.
func (c Config) POS() []domain.PartOfSpeech {
	wanted := make(map[string]bool, len(c.PartsOfSpeech))
	for _, p := range c.PartsOfSpeech {
		wanted[p] = true
	}
	var out []domain.PartOfSpeech
	for _, p := range domain.AllPartsOfSpeech {
		if wanted[string(p)] {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("importer config: %w", err)
	}
	return nil
}

// LoadConfig reads importer configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("importer config: file %s not found", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("importer config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("importer config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
