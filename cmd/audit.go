package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the enrolled templates",
	Long: `Checks every active biometric template for problems: embeddings
whose dimension does not match the configured extractor, and templates
belonging to users that no longer exist or are disabled in the HR
directory. With --deactivate, offending templates are deactivated.`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().Bool("deactivate", false, "Deactivate templates that fail the audit")
}

func runAudit(cmd *cobra.Command, args []string) error {
	deactivate := mustGetBool(cmd, "deactivate")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	templates, err := a.templates.ActiveTemplates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	if len(templates) == 0 {
		fmt.Println("No active templates to audit")
		return nil
	}

	bar := progressbar.NewOptions(len(templates),
		progressbar.OptionSetDescription("Auditing templates"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("templates"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var problems []string
	var deactivated int
	for _, t := range templates {
		_ = bar.Add(1)

		var reason string
		switch {
		case len(t.Embedding) != a.cfg.Embedding.Dim:
			reason = fmt.Sprintf("embedding has %d dimensions, expected %d", len(t.Embedding), a.cfg.Embedding.Dim)
		case a.directory != nil:
			active, err := a.directory.IsActive(ctx, t.UserID)
			if err != nil {
				return fmt.Errorf("failed to check user %d: %w", t.UserID, err)
			}
			if !active {
				reason = "user is missing or disabled in the HR directory"
			}
		}
		if reason == "" {
			continue
		}

		problems = append(problems, fmt.Sprintf("user %d (template %s): %s", t.UserID, t.UID, reason))
		if deactivate {
			if err := a.templates.Deactivate(ctx, t.UserID); err != nil {
				return fmt.Errorf("failed to deactivate template for user %d: %w", t.UserID, err)
			}
			deactivated++
		}
	}
	fmt.Println()

	if len(problems) == 0 {
		fmt.Printf("All %d templates passed the audit\n", len(templates))
		return nil
	}

	fmt.Printf("Found %d problem(s):\n", len(problems))
	for _, p := range problems {
		fmt.Printf("  - %s\n", p)
	}
	if deactivate {
		fmt.Printf("Deactivated %d template(s)\n", deactivated)
	} else {
		fmt.Println("Run with --deactivate to deactivate the offending templates")
	}
	return nil
}
