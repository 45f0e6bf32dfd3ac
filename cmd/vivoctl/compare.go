package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vivo/internal/embedding"
)

func newCompareCmd() *cobra.Command {
	var (
		convention string
		threshold  float64
	)

	cmd := &cobra.Command{
		Use:   "compare <live.json> <stored.json>",
		Short: "Score two embeddings under a match policy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := embedding.ParseConvention(convention)
			if err != nil {
				return err
			}
			policy := embedding.MatchPolicy{Convention: conv, Threshold: threshold}
			if err := policy.Validate(); err != nil {
				return err
			}

			live, err := readEmbedding(args[0])
			if err != nil {
				return err
			}
			stored, err := readEmbedding(args[1])
			if err != nil {
				return err
			}

			res, err := embedding.Verify(live, stored, policy)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		},
	}

	cmd.Flags().StringVar(&convention, "convention", string(embedding.ConventionDistance), "Match convention: distance or similarity")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", embedding.DefaultDistanceThreshold, "Match threshold")

	return cmd
}
