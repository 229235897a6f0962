package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/pagefacts/internal/extract"
	"github.com/hyperifyio/pagefacts/internal/rewrite"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map onto the flag groups.
type FileConfig struct {
	Source  string `yaml:"source" json:"source"`
	Output  string `yaml:"output" json:"output"`
	Format  string `yaml:"format" json:"format"`
	BaseURL string `yaml:"baseURL" json:"baseURL"`
	Verbose bool   `yaml:"verbose" json:"verbose"`

	Selectors struct {
		Table          string                   `yaml:"table" json:"table"`
		List           string                   `yaml:"list" json:"list"`
		Links          string                   `yaml:"links" json:"links"`
		Images         string                   `yaml:"images" json:"images"`
		Form           string                   `yaml:"form" json:"form"`
		Breadcrumb     string                   `yaml:"breadcrumb" json:"breadcrumb"`
		DefinitionList string                   `yaml:"definitionList" json:"definitionList"`
		Code           string                   `yaml:"code" json:"code"`
		Article        extract.ArticleSelectors `yaml:"article" json:"article"`
		TreeRoot       string                   `yaml:"treeRoot" json:"treeRoot"`
		// TreeDepth is a pointer so 0 can be configured.
		TreeDepth *int `yaml:"treeDepth" json:"treeDepth"`
	} `yaml:"selectors" json:"selectors"`

	Rewrite struct {
		Enable bool           `yaml:"enable" json:"enable"`
		Output string         `yaml:"output" json:"output"`
		Rules  []rewrite.Rule `yaml:"rules" json:"rules"`
	} `yaml:"rewrite" json:"rewrite"`

	Fetch struct {
		UserAgent   string        `yaml:"userAgent" json:"userAgent"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout"`
		MaxAttempts int           `yaml:"maxAttempts" json:"maxAttempts"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Robots struct {
		Enable *bool `yaml:"enable" json:"enable"`
	} `yaml:"robots" json:"robots"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. Callers apply it
// to defaults before env and flags so both of those win over the file.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString(&cfg.Source, fc.Source)
	setString(&cfg.OutputPath, fc.Output)
	setString(&cfg.Format, fc.Format)
	setString(&cfg.BaseURL, fc.BaseURL)
	if fc.Verbose {
		cfg.Verbose = true
	}

	o := &cfg.Options
	setString(&o.Table, fc.Selectors.Table)
	setString(&o.List, fc.Selectors.List)
	setString(&o.Links, fc.Selectors.Links)
	setString(&o.Images, fc.Selectors.Images)
	setString(&o.Form, fc.Selectors.Form)
	setString(&o.Breadcrumb, fc.Selectors.Breadcrumb)
	setString(&o.DefinitionList, fc.Selectors.DefinitionList)
	setString(&o.Code, fc.Selectors.Code)
	setString(&o.TreeRoot, fc.Selectors.TreeRoot)
	o.Article = o.Article.Merge(fc.Selectors.Article)
	if fc.Selectors.TreeDepth != nil {
		o.TreeDepth = *fc.Selectors.TreeDepth
	}

	if fc.Rewrite.Enable {
		cfg.Rewrite = true
	}
	setString(&cfg.RewriteOutputPath, fc.Rewrite.Output)
	if len(fc.Rewrite.Rules) > 0 {
		cfg.RewriteRules = append([]rewrite.Rule{}, fc.Rewrite.Rules...)
	}

	setString(&cfg.UserAgent, fc.Fetch.UserAgent)
	if fc.Fetch.Timeout > 0 {
		cfg.Timeout = fc.Fetch.Timeout
	}
	if fc.Fetch.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}

	setString(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if fc.Robots.Enable != nil {
		cfg.RespectRobots = *fc.Robots.Enable
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
