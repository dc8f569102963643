package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vadym-shevikov/cv-tailor/internal/config"
	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
)

var knowledgeBackend string

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Inspect and seed the advisory knowledge topics",
}

var knowledgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known knowledge topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, topic := range knowledge.Topics() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), topic); err != nil {
				return err
			}
		}
		return nil
	},
}

var knowledgeGetCmd = &cobra.Command{
	Use:   "get <topic>",
	Short: "Print the content of one knowledge topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeGet,
}

var knowledgeSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy the local topics into the configured remote store (s3 or postgres)",
	Args:  cobra.NoArgs,
	RunE:  runKnowledgeSeed,
}

func init() {
	knowledgeGetCmd.Flags().StringVar(&knowledgeBackend, "backend", "", "Knowledge backend: remote or local")
	knowledgeCmd.AddCommand(knowledgeListCmd, knowledgeGetCmd, knowledgeSeedCmd)
	rootCmd.AddCommand(knowledgeCmd)
}

func runKnowledgeGet(cmd *cobra.Command, args []string) error {
	topic, err := knowledge.ParseTopic(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, func(c *config.Config) {
		if cmd.Flags().Changed("backend") {
			c.KnowledgeBackend = knowledgeBackend
		}
	})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	provider, closeFn, err := knowledge.New(ctx, cfg.KnowledgeSources(), logger)
	if err != nil {
		return err
	}
	defer closeFn()

	content := provider.Fetch(ctx, topic)
	if content == "" {
		return fmt.Errorf("no content available for %s", topic)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
	return err
}

func runKnowledgeSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sources := cfg.KnowledgeSources()
	local, err := knowledge.NewLocalSource(sources.Dir)
	if err != nil {
		return err
	}
	remote, err := knowledge.OpenRemote(ctx, sources)
	if err != nil {
		return fmt.Errorf("failed to open %s knowledge store: %w", sources.Transport, err)
	}
	if c, ok := remote.(interface{ Close() error }); ok {
		defer func() { _ = c.Close() }()
	}

	writer, ok := remote.(knowledge.Writer)
	if !ok {
		return fmt.Errorf("the %s knowledge transport is read-only", remote.Name())
	}
	if pg, ok := remote.(*knowledge.PostgresSource); ok {
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	written, err := knowledge.Seed(ctx, local, writer)
	for _, topic := range written {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", topic)
	}
	return err
}
