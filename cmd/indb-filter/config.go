package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ousamg/indb-filter/internal/filter"
)

// configKey describes a settable configuration key.
type configKey struct {
	help  string
	parse func(string) (any, error)
}

var configKeys = map[string]configKey{
	"filter.threshold":       {"minimum summed indication count", parseInt},
	"filter.af_max":          {"maximum allele frequency, 0 to 1", parseFloat},
	"filter.indication_keys": {"comma-separated INFO keys holding label:count pairs", parseList},
	"filter.af_key":          {"INFO key holding the allele frequency", parseString},
	"filter.on_malformed":    {"abort or skip", parsePolicy},
	"filter.temp_dir":        {"directory for the region pre-pass file", parseString},
	"history.path":           {"DuckDB file recording filter runs", parseString},
}

func parseInt(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

func parseFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

func parseList(s string) (any, error) {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%q holds no values", s)
	}
	return out, nil
}

func parseString(s string) (any, error) {
	return s, nil
}

func parsePolicy(s string) (any, error) {
	p, err := filter.ParseMalformedPolicy(s)
	if err != nil {
		return nil, err
	}
	return string(p), nil
}

func sortedKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func knownKeys() string {
	return strings.Join(sortedKeys(), ", ")
}

// keyHelp lists every settable key with its description.
func keyHelp() string {
	var b strings.Builder
	for _, k := range sortedKeys() {
		fmt.Fprintf(&b, "  %-24s %s\n", k, configKeys[k].help)
	}
	return b.String()
}

// filterConfigFromViper reads the filter settings from viper.
func filterConfigFromViper() filter.Config {
	return filter.Config{
		Threshold:      viper.GetInt("filter.threshold"),
		AFMax:          viper.GetFloat64("filter.af_max"),
		IndicationKeys: viper.GetStringSlice("filter.indication_keys"),
		AFKey:          viper.GetString("filter.af_key"),
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage indb-filter configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.indb-filter.yaml.",
		Example: `  indb-filter config                               # show all config
  indb-filter config set filter.threshold 10         # raise the indication threshold
  indb-filter config set filter.on_malformed skip    # count malformed records instead of aborting
  indb-filter config get filter.af_max               # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. The value is checked before the file is written.\n\nKeys:\n" + keyHelp(),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func runConfigShow(w io.Writer) error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// runConfigSet parses value for key, checks the resulting filter settings
// and only then writes the config file.
func runConfigSet(w io.Writer, key, value string) error {
	k, ok := configKeys[key]
	if !ok {
		return &usageError{err: fmt.Errorf("unknown config key %q (known: %s)", key, knownKeys())}
	}
	v, err := k.parse(value)
	if err != nil {
		return &usageError{err: fmt.Errorf("%s: %w", key, err)}
	}

	viper.Set(key, v)
	if err := filterConfigFromViper().Validate(); err != nil {
		return &usageError{err: fmt.Errorf("%s: %w", key, err)}
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		cfgFile, err = defaultConfigFile()
		if err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	_, err = fmt.Fprintf(w, "Set %s = %v in %s\n", key, v, cfgFile)
	return err
}

func runConfigGet(w io.Writer, key string) error {
	if _, ok := configKeys[key]; !ok {
		return &usageError{err: fmt.Errorf("unknown config key %q (known: %s)", key, knownKeys())}
	}
	_, err := fmt.Fprintln(w, viper.Get(key))
	return err
}
