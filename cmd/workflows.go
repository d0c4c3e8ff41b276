package cmd

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spiffcs/ciwatch/config"
	"github.com/spiffcs/ciwatch/internal/cache"
	"github.com/spiffcs/ciwatch/internal/format"
	"github.com/spiffcs/ciwatch/internal/ghclient"
	"github.com/spiffcs/ciwatch/internal/model"
)

// NewCmdWorkflows creates the workflows command.
func NewCmdWorkflows() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "workflows <owner/repo>",
		Short: "List a repository's GitHub Actions workflows",
		Long: `List the workflows defined in a repository. Any ID, path, file name or
name shown here can be passed to --workflow or set as "workflow:" in config.

Use --match to check which workflow a selector resolves to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflows(cmd, args[0], match)
		},
	}

	cmd.Flags().StringVarP(&match, "match", "m", "", "Only show the workflow this selector resolves to")

	return cmd
}

func runWorkflows(cmd *cobra.Command, repoArg, match string) error {
	owner, repo, err := model.SplitFullName(repoArg)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	client, err := ghclient.NewClient(cmd.Context(), token, cfg.RequestTimeout)
	if err != nil {
		return err
	}
	workflows := cache.NewWorkflowCache(client)

	if match != "" {
		wf, err := workflows.Find(cmd.Context(), owner, repo, match)
		if err != nil {
			return err
		}
		printWorkflows(cmd.OutOrStdout(), []model.WorkflowDetails{wf})
		return nil
	}

	wfs, err := workflows.GetOrFetch(cmd.Context(), owner, repo)
	if err != nil {
		return err
	}
	if len(wfs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No workflows found in %s/%s.\n", owner, repo)
		return nil
	}
	printWorkflows(cmd.OutOrStdout(), wfs)
	return nil
}

// printWorkflows writes an aligned ID / name / path / state listing.
func printWorkflows(w io.Writer, wfs []model.WorkflowDetails) {
	wfs = slices.Clone(wfs)
	slices.SortFunc(wfs, func(a, b model.WorkflowDetails) int {
		return strings.Compare(a.Path, b.Path)
	})

	headers := []string{"ID", "NAME", "PATH", "STATE"}
	widths := make([]int, len(headers))
	rows := make([][]string, 0, len(wfs))
	for _, wf := range wfs {
		rows = append(rows, []string{strconv.FormatInt(wf.ID, 10), wf.Name, wf.Path, wf.State})
	}
	for i, h := range headers {
		widths[i] = format.DisplayWidth(h)
		for _, row := range rows {
			widths[i] = max(widths[i], format.DisplayWidth(row[i]))
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i == len(cells)-1 {
				fmt.Fprintln(w, cell)
				continue
			}
			fmt.Fprint(w, format.PadRight(cell, widths[i]), "  ")
		}
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
}
