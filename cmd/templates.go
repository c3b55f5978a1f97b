package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pvemesh/pvemesh-ctl/internal/errors"
	"github.com/pvemesh/pvemesh-ctl/internal/pve"
	"github.com/pvemesh/pvemesh-ctl/internal/system"
	"github.com/pvemesh/pvemesh-ctl/internal/tui"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List OS templates from the pveam catalog",
	RunE:  runTemplates,
}

var (
	templatesRefresh bool
	templatesPick    bool
)

func init() {
	templatesCmd.Flags().BoolVar(&templatesRefresh, "refresh", false, "Refresh the catalog index first")
	templatesCmd.Flags().BoolVar(&templatesPick, "pick", false, "Pick a template interactively and print its name")
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	storage := templateStorage()
	catalog := &pve.Catalog{Exec: system.DefaultExecutor()}

	if templatesRefresh {
		logInfo("Refreshing template catalog...")
		if err := catalog.Update(ctx); err != nil {
			return errors.Wrap(errors.ExitTemplateNotFound, "catalog refresh failed", err)
		}
	}

	available, err := catalog.Available(ctx)
	if err != nil {
		return errors.Wrap(errors.ExitTemplateNotFound, "catalog listing failed", err)
	}

	downloaded, err := catalog.Downloaded(ctx, storage)
	if err != nil {
		return errors.Wrap(errors.ExitTemplateNotFound, "template storage listing failed", err)
	}

	have := make(map[string]bool, len(downloaded))
	for _, name := range downloaded {
		have[name] = true
	}

	if templatesPick {
		items := make([]tui.TemplateItem, len(available))
		for i, name := range available {
			items[i] = tui.TemplateItem{Name: name, Downloaded: have[name]}
		}
		selected, err := tui.RunPicker(items)
		if err != nil {
			return errors.Wrap(errors.ExitGeneralError, "template selection failed", err)
		}
		if selected == "" {
			return nil
		}
		fmt.Println(selected)
		return nil
	}

	if len(available) == 0 {
		logInfo("No templates in the catalog. Try --refresh.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEMPLATE\tDOWNLOADED")
	fmt.Fprintln(w, "--------\t----------")
	for _, name := range available {
		mark := "-"
		if have[name] {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, mark)
	}

	return w.Flush()
}

// templateStorage resolves the template storage without loading the full
// config: the full config requires a setup key, which listing templates
// should not.
func templateStorage() string {
	if s := os.Getenv("PVEMESH_TEMPLATE_STORAGE"); s != "" {
		return s
	}
	return "local"
}
