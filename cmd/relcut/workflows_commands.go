package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relcut/internal/workflows"
)

func newWorkflowsCommand(ctx *commandContext) *cobra.Command {
	workflowsCmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect the CI workflow documents",
	}

	workflowsCmd.AddCommand(newWorkflowsLintCommand(ctx))
	workflowsCmd.AddCommand(newWorkflowsSecretsCommand(ctx))

	return workflowsCmd
}

// loadWorkflows loads the files named on the command line, or every workflow
// under the configured directory when no files are given.
func (c *commandContext) loadWorkflows(args []string) ([]*workflows.Workflow, error) {
	if len(args) > 0 {
		wfs := make([]*workflows.Workflow, 0, len(args))
		for _, path := range args {
			wf, err := workflows.Load(path)
			if err != nil {
				return nil, err
			}
			wfs = append(wfs, wf)
		}
		return wfs, nil
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	wfs, err := workflows.LoadDir(cfg.Paths.WorkflowsDir)
	if err != nil {
		return nil, err
	}
	if len(wfs) == 0 {
		return nil, fmt.Errorf("no workflow files under %s", cfg.Paths.WorkflowsDir)
	}
	return wfs, nil
}

func newWorkflowsLintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [file...]",
		Short: "Check workflow files for internal consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			wfs, err := ctx.loadWorkflows(args)
			if err != nil {
				return err
			}
			problems := workflows.LintAll(wfs)
			if len(problems) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d workflow(s) clean\n", len(wfs))
				return nil
			}
			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return fmt.Errorf("workflows have %d problem(s)", len(problems))
		},
	}
}

func newWorkflowsSecretsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "secrets [file...]",
		Short: "List the secrets the workflows reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			wfs, err := ctx.loadWorkflows(args)
			if err != nil {
				return err
			}
			secrets := workflows.SecretsAll(wfs)
			if asJSON {
				return writeJSON(cmd, secrets)
			}
			if len(secrets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No secret references found")
				return nil
			}
			for _, name := range secrets {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit secret names as JSON")
	return cmd
}
