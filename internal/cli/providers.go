package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	apiapp "rimloc/internal/api/app"
	"rimloc/internal/bootstrap"
)

func providerAPI(s *bootstrap.Services) *apiapp.ProviderAPI {
	return apiapp.NewProviderAPI(s.Config, s.Providers, s.ReloadProviders)
}

func (c *cli) providersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect and test translation providers",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List providers and whether they are usable",
		Args:  cobra.NoArgs,
		RunE: c.run(func(_ context.Context, s *bootstrap.Services, w io.Writer, _ []string) error {
			tw := table(w)
			fmt.Fprintln(tw, "NAME\tENABLED\tUSABLE\tDEFAULT\tMODEL\tAPI KEY")
			for _, p := range providerAPI(s).List() {
				def := ""
				if p.Default {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%v\t%v\t%s\t%s\t%s\n", p.Name, p.Enabled, p.Usable, def, p.Model, p.APIKey)
			}
			return tw.Flush()
		}),
	}
	test := &cobra.Command{
		Use:   "test [name]",
		Short: "Translate a test phrase with a provider (default: the configured one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(_ context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			name := s.Config.DefaultProvider
			if len(args) == 1 {
				name = args[0]
			}
			res, err := providerAPI(s).Test(name)
			if err != nil {
				return err
			}
			if !res.Ok {
				return fmt.Errorf("%s: %s", name, res.Error)
			}
			fmt.Fprintf(w, "%s %s: %s\n", ok(), name, res.Translation)
			return nil
		}),
	}
	use := &cobra.Command{
		Use:   "use <name>",
		Short: "Make a provider the default",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(_ context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			if err := providerAPI(s).SetDefault(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s default provider is now %s\n", ok(), args[0])
			return nil
		}),
	}
	cmd.AddCommand(list, test, use)
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or change config values by dotted key",
	}
	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a value, e.g. providers.deepseek.model",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(_ context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			v, found := s.Config.Get(args[0])
			if !found {
				return fmt.Errorf("no config key %q", args[0])
			}
			b, err := json.MarshalIndent(maskSecrets(args[0], v), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			return nil
		}),
	}
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value; JSON literals are decoded, anything else is a string",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(_ context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			api := apiapp.NewSettingsAPI(s.Config, s.AutoSave, s.ReloadProviders, s.Backup)
			if _, err := api.Set(args[0], parseValue(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s saved to %s\n", ok(), args[0], s.Config.Path())
			return nil
		}),
	}
	cmd.AddCommand(get, set)
	return cmd
}

// maskSecrets hides credentials at key or anywhere below it.
func maskSecrets(key string, v any) any {
	last := key[strings.LastIndex(key, ".")+1:]
	if last == "api_key" || last == "secret_key" {
		if str, ok := v.(string); ok && str != "" {
			return "****"
		}
		return v
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(obj))
	for k, child := range obj {
		out[k] = maskSecrets(k, child)
	}
	return out
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
