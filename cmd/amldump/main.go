// Command amldump parses ACPI AML tables from disk and prints or executes
// their contents: the decoded namespace, a single method invocation, or the
// full _STA/_INI device-initialization pass.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amlgo/aml/internal/aml"
	"github.com/amlgo/aml/internal/aml/host"
	"github.com/amlgo/aml/internal/config"
	"github.com/amlgo/aml/internal/table"
)

var (
	log         = logrus.New()
	flagConfig  string
	flagVerbose int
)

func main() {
	root := &cobra.Command{
		Use:           "amldump",
		Short:         "Decode and execute ACPI AML tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML config file")
	root.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase logging verbosity (repeatable)")
	root.AddCommand(newNamespaceCmd(), newInvokeCmd(), newInitCmd())
	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// buildContext loads the interpreter configuration, parses every table in
// order into one shared namespace, and returns the ready Context. The host
// binding is the in-memory simulator: amldump runs on extracted table files,
// not against live hardware.
func buildContext(paths []string) (*aml.Context, error) {
	cfg := aml.DefaultConfig()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	switch {
	case flagVerbose >= 3:
		log.SetLevel(logrus.TraceLevel)
		cfg.Verbosity = aml.VerbosityAll
	case flagVerbose == 2:
		log.SetLevel(logrus.DebugLevel)
		cfg.Verbosity = aml.VerbosityAllScopes
	case flagVerbose == 1:
		log.SetLevel(logrus.InfoLevel)
		cfg.Verbosity = aml.VerbosityScopes
	}

	c := aml.NewContext(host.NewMemory(), log, cfg)
	for _, path := range paths {
		img, err := table.Load(path)
		if err != nil {
			return nil, err
		}
		if perr := c.ParseTable(img.Data, img.Revision); perr != nil {
			return nil, perr
		}
		log.WithFields(logrus.Fields{
			"signature": img.Signature,
			"revision":  img.Revision,
			"bytes":     len(img.Data),
		}).Infof("parsed %s", path)
	}
	return c, nil
}
