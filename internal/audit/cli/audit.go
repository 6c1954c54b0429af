package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/repoaudit/internal/audit"
	"github.com/build-flow-labs/repoaudit/internal/audit/config"
	"github.com/build-flow-labs/repoaudit/internal/audit/deps"
	"github.com/build-flow-labs/repoaudit/internal/audit/github"
	"github.com/build-flow-labs/repoaudit/internal/audit/report"
)

var (
	auditJSON      bool
	auditMarkdown  bool
	auditOutput    string
	auditConfig    string
	auditToken     string
	auditThreshold int
	auditDepth     int
)

var auditCmd = &cobra.Command{
	Use:   "audit <owner/repo>",
	Short: "Score a repository's health and deep-audit it when needed",
	Long: `Runs the full pipeline against one GitHub repository.

The health scorer always runs. The five deep-audit analyzers run in
parallel only when the health score falls below the threshold; a
healthy repository produces a short report with no deep-audit sections.

Use --json for machine-readable output, --markdown for a narrative.`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output JSON instead of the formatted report")
	auditCmd.Flags().BoolVar(&auditMarkdown, "markdown", false, "Output a markdown narrative")
	auditCmd.Flags().StringVarP(&auditOutput, "output", "o", "", "Output file (default: stdout)")
	auditCmd.Flags().StringVar(&auditConfig, "config", "", "Config file (default: .repoaudit.yaml)")
	auditCmd.Flags().StringVar(&auditToken, "token", "", "GitHub token (default: $GITHUB_TOKEN)")
	auditCmd.Flags().IntVar(&auditThreshold, "threshold", config.DefaultHealthThreshold, "Health score below which the deep audit runs")
	auditCmd.Flags().IntVar(&auditDepth, "depth", config.DefaultAnalysisDepth, "Tree traversal depth for analyzers (1-5)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	ref, err := audit.ParseRef(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(auditConfig)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cmd.Flags().Changed("threshold") {
		cfg.HealthThreshold = auditThreshold
	}
	if cmd.Flags().Changed("depth") {
		cfg.AnalysisDepth = auditDepth
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	token := auditToken
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	ctx := cmd.Context()
	src := github.NewRepoSource(ctx, token, ref.Owner, ref.Repo)
	auditor := audit.NewAuditor(src, cfg, deps.NewRegistryClient(), deps.NewOSVClient(), slog.Default())

	result, err := auditor.Run(ctx, ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if auditOutput != "" {
		f, err := os.Create(auditOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch {
	case auditJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case auditMarkdown:
		md, err := report.NewMarkdownSynthesizer()
		if err != nil {
			return err
		}
		return md.Render(out, result)
	default:
		return report.NewTextSynthesizer().Render(out, result)
	}
}
