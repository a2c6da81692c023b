package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"richdoc/dom"
	"richdoc/schema"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// MarksConfig lists mark keys documents are processed with.
	MarksConfig struct {
		Keys []string `yaml:"keys" validate:"min=1,dive,required,excludesall=0x2C"`
	}

	DocumentConfig struct {
		// SchemaPath points to YAML file with additional schema and
		// conversion rules merged on top of built-in ones.
		SchemaPath string `yaml:"schema_path" sanitize:"assure_file_access"`
		// Schema holds additional rules inline, applied after SchemaPath.
		Schema             *schema.Definition `yaml:"schema,omitempty"`
		ReplaceSpaces      bool               `yaml:"replace_spaces"`
		CustomTags         bool               `yaml:"custom_tags"`
		IncludeCards       bool               `yaml:"include_cards"`
		ParagraphStyle     string             `yaml:"paragraph_style"`
		XHTMLTitle         string             `yaml:"xhtml_title"`
		OutputNameTemplate string             `yaml:"output_name_template"`
		// FileNameTransliterate makes output names ASCII only.
		FileNameTransliterate bool        `yaml:"file_name_transliterate"`
		Marks                 MarksConfig `yaml:"marks"`
	}

	StoreConfig struct {
		Path string `yaml:"path" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Store     StoreConfig    `yaml:"store"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, expanded per document and not
	// at configuration load time
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
	XHTMLTitleFieldName         TemplateFieldName = "xhtml_title"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(XHTMLTitleFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

// Definition assembles schema definition documents are processed with:
// built-in rules, then rules from SchemaPath, then inline rules.
func (conf *DocumentConfig) Definition() (*schema.Definition, error) {
	def := schema.DefaultDefinition()
	if len(conf.SchemaPath) > 0 {
		other, err := schema.LoadFile(conf.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("unable to load schema from '%s': %w", conf.SchemaPath, err)
		}
		def.Merge(other)
	}
	def.Merge(conf.Schema)
	return def, nil
}

// Paragraph returns inline style applied to paragraphs of presentation HTML,
// nil when default should be used.
func (conf *DocumentConfig) Paragraph() dom.Attrs {
	if len(conf.ParagraphStyle) == 0 {
		return nil
	}
	return dom.ParseStyle(conf.ParagraphStyle)
}
