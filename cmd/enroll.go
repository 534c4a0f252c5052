package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [image-file]",
	Short: "Enroll a biometric template from a photo",
	Long: `Enrolls a face template for a user from a photo on disk.
The photo must contain exactly one face and the face must not already
belong to a different enrolled user. Re-enrolling a user replaces the
previous template.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().Int64("user", 0, "ID of the user to enroll (required)")
	_ = enrollCmd.MarkFlagRequired("user")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	userID := mustGetInt64(cmd, "user")
	if userID <= 0 {
		return fmt.Errorf("--user must be a positive integer")
	}

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Enroll(context.Background(), image, userID)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled user %d\n", result.UserID)
	fmt.Printf("  Template ID:  %d\n", result.TemplateID)
	fmt.Printf("  Template UID: %s\n", result.TemplateUID)
	return nil
}
