package main

import (
	"fmt"
	"strings"

	"leadchat/internal/config"
	"leadchat/internal/leads"
	"leadchat/internal/services"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func newScoreCommand() *cobra.Command {
	var (
		history     []string
		threshold   int
		contentPath string
	)

	cmd := &cobra.Command{
		Use:   "score [message]",
		Short: "Score a visitor message offline with the lead qualifier",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := config.LoadContent(contentPath)
			if err != nil {
				return err
			}
			catalog := services.NewCatalog(content.Services)

			message := strings.Join(args, " ")
			visitorContext := strings.ToLower(strings.Join(append(history, message), "\n"))

			q := leads.NewQualifier().Score(message, visitorContext)

			out, err := sonic.ConfigStd.MarshalIndent(q, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if svc, ok := catalog.Find(q.RecommendedService); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Recommended: %s (%s, %s)\n", svc.Name, svc.Price, svc.Duration)
			}

			verdict := "below threshold"
			if q.Score >= threshold {
				verdict = "qualifies (an email address is still needed to record a lead)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/100: %s\n", q.Score, verdict)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&history, "history", nil, "earlier visitor messages, oldest first (repeatable)")
	cmd.Flags().IntVar(&threshold, "threshold", leads.DefaultThreshold, "score at which a conversation becomes a lead")
	cmd.Flags().StringVar(&contentPath, "content", "", "YAML file overriding the built-in service catalog")
	return cmd
}
