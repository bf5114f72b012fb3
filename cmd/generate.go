package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

func newGenerateCmd() *cobra.Command {
	var (
		userID string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generates combinations that have never been drawn",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			gen, err := appInstance.Generator().Generate(cmd.Context(), userID, count)
			return writeGeneration(cmd.OutOrStdout(), gen, err)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user the combinations are recorded for")
	cmd.Flags().IntVar(&count, "count", 1, "number of combinations")
	return cmd
}

// writeGeneration prints the result as JSON. An exhausted request still
// prints the combinations found before the budget ran out.
func writeGeneration(w io.Writer, gen lottery.Generation, genErr error) error {
	var exhausted *lottery.GenerationExhaustedError
	switch {
	case genErr == nil:
	case errors.As(genErr, &exhausted):
		gen = lottery.Generation{Combinations: exhausted.Partial, Attempts: exhausted.Attempts}
	default:
		return fmt.Errorf("generate: %w", genErr)
	}
	if gen.Combinations == nil {
		gen.Combinations = []lottery.GeneratedCombination{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(gen); err != nil {
		return fmt.Errorf("encode generation: %w", err)
	}
	if genErr != nil {
		return fmt.Errorf("generate: %w", genErr)
	}
	return nil
}
