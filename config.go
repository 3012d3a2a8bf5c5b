package datatables

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the configuration options for a DataTable.
//
// Fields:
//   - PageSizes: The page sizes a user can pick from.
//   - DefaultPageSize: The page size used when no pagination state is given. Must be one of PageSizes.
//   - ShowPaging: Whether the paging summary is rendered.
//   - HidePageSizeChange: Whether the page size picker is hidden.
//   - StorageKeyPrefix: The prefix of the persistent storage keys, "{prefix}_{axis}". Required with a Storage.
//   - StorageFailure: What to do when the persistent storage fails, "propagate" or "degrade".
//   - Translations: The texts rendered by the table.
//   - LogLevel: The level of the logger New builds when no Logger is given. Empty disables logging.
type Config struct {
	PageSizes          []int                `mapstructure:"page_sizes" validate:"required,min=1,dive,gt=0"`
	DefaultPageSize    int                  `mapstructure:"default_page_size" validate:"gt=0"`
	ShowPaging         bool                 `mapstructure:"show_paging"`
	HidePageSizeChange bool                 `mapstructure:"hide_page_size_change"`
	StorageKeyPrefix   string               `mapstructure:"storage_key_prefix"`
	StorageFailure     StorageFailurePolicy `mapstructure:"storage_failure" validate:"omitempty,oneof=propagate degrade"`
	Translations       Translations         `mapstructure:"translations"`
	LogLevel           string               `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		PageSizes:       slices.Clone(defaultPageSizes),
		DefaultPageSize: defaultPageSize,
		ShowPaging:      true,
		StorageFailure:  StoragePropagate,
		Translations:    DefaultTranslations(),
		LogLevel:        "info",
	}
}

// LoadConfig reads the configuration file at path (yaml, json or toml, by
// extension). Every key can be overridden by an environment variable with
// the DATATABLES_ prefix, e.g. DATATABLES_DEFAULT_PAGE_SIZE or
// DATATABLES_TRANSLATIONS_NO_ENTRIES. An empty path only reads defaults and
// the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("page_sizes", def.PageSizes)
	v.SetDefault("default_page_size", def.DefaultPageSize)
	v.SetDefault("show_paging", def.ShowPaging)
	v.SetDefault("hide_page_size_change", def.HidePageSizeChange)
	v.SetDefault("storage_key_prefix", def.StorageKeyPrefix)
	v.SetDefault("storage_failure", string(def.StorageFailure))
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("translations.action_title", def.Translations.ActionTitle)
	v.SetDefault("translations.showed_items_text", def.Translations.ShowedItemsText)
	v.SetDefault("translations.search_tool_tip", def.Translations.SearchToolTip)
	v.SetDefault("translations.clear_search_tool_tip", def.Translations.ClearSearchToolTip)
	v.SetDefault("translations.items_per_page_dropdown", def.Translations.ItemsPerPageDropdown)
	v.SetDefault("translations.no_entries", def.Translations.NoEntries)
	v.SetDefault("translations.invalid_input", def.Translations.InvalidInput)

	v.SetEnvPrefix("DATATABLES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validatePagination checks a pagination state against the tags of
// PaginationState: a non-negative page index and a positive page size.
func validatePagination(p PaginationState) error {
	if err := validator.New().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return configError("Pagination."+verrs[0].Field(), fmt.Errorf("%w: %d failed on %q", ErrInvalidConfig, verrs[0].Value(), verrs[0].Tag()))
		}
		return configError("Pagination", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	return nil
}

// Validate checks the configuration. The default page size must be one of
// the page sizes.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return configError(verrs[0].Namespace(), fmt.Errorf("%w: failed on %q", ErrInvalidConfig, verrs[0].Tag()))
		}
		return configError("config", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	if !slices.Contains(c.PageSizes, c.DefaultPageSize) {
		return configError("Config.DefaultPageSize", fmt.Errorf("%w: %d not in %v", ErrInvalidPageSize, c.DefaultPageSize, c.PageSizes))
	}
	return nil
}
