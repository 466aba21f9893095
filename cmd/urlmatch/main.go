// Command urlmatch previews how URLs match the dataset: the scored seed
// matches and the entries reached through relation expansion.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/crwatch/backend/internal/domain"
	"github.com/crwatch/backend/internal/infrastructure/dataset"
	"github.com/crwatch/backend/internal/infrastructure/pagemeta"
	"github.com/crwatch/backend/internal/logging"
	"github.com/crwatch/backend/internal/usecase"
)

type options struct {
	datasetPath    string
	limit          int
	relationsLimit int
	maxExamples    int
	examples       bool
	htmlPath       string
	subdomains     bool
	noColor        bool
	verbose        bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "urlmatch [url]",
		Short: "Preview URL matches and relation expansion against a dataset",
		Long: `urlmatch loads a dataset file and prints the seed matches for a URL
followed by the entries reached through relation expansion.

Without a URL (or with --examples) it runs every distinct dataset website,
up to --max-examples of them.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			var target string
			if len(args) == 1 {
				target = args[0]
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), target, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.datasetPath, "dataset", "d", "all_cargo_combined.json", "Dataset file (JSON or YAML)")
	flags.IntVar(&opts.limit, "limit", 20, "Maximum seed matches per URL")
	flags.IntVar(&opts.relationsLimit, "relations-limit", 50, "Maximum related entries printed per URL")
	flags.IntVar(&opts.maxExamples, "max-examples", 25, "Maximum example URLs taken from the dataset")
	flags.BoolVar(&opts.examples, "examples", false, "Run the dataset website examples")
	flags.StringVar(&opts.htmlPath, "html", "", "Saved HTML page; its title and meta tags drive page-context matching")
	flags.BoolVar(&opts.subdomains, "subdomains", false, "Enable subdomain matching")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log dataset warnings")

	return cmd
}

func run(ctx context.Context, out, errOut io.Writer, target string, opts options) error {
	logger := zerolog.Nop()
	if opts.verbose {
		logger = logging.New("debug", logging.FormatConsole, errOut)
	}

	snapshot, err := dataset.NewLoader(opts.datasetPath, logger).Load(ctx)
	if err != nil {
		return err
	}

	config := usecase.DefaultMatchConfig()
	config.EnableSubdomainMatching = opts.subdomains
	p := &previewer{
		out:      out,
		errOut:   errOut,
		entries:  snapshot.Entries,
		matching: usecase.NewMatchingService(config),
		opts:     opts,
	}

	if opts.htmlPath != "" {
		if target == "" {
			return fmt.Errorf("--html needs the page url as argument")
		}
		return p.previewPage(target, opts.htmlPath)
	}

	urls := []string{target}
	if target == "" || opts.examples {
		urls = exampleURLs(snapshot.Entries, opts.maxExamples)
		fmt.Fprintf(out, "Running %d URL examples from dataset Website fields:\n", len(urls))
		for _, example := range urls {
			fmt.Fprintf(out, "- %s\n", example)
		}
		fmt.Fprintln(out)
	}

	for _, raw := range urls {
		p.previewURL(raw)
	}
	return nil
}

var (
	heading = color.New(color.Bold, color.FgCyan).SprintFunc()
	seedTag = color.New(color.FgGreen).SprintFunc()
	dimmed  = color.New(color.Faint).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
)

type previewer struct {
	out      io.Writer
	errOut   io.Writer
	entries  []domain.Entry
	matching *usecase.MatchingService
	opts     options
}

func (p *previewer) previewURL(raw string) {
	parsed, ok := usecase.SafeParseURL(raw)
	if !ok {
		fmt.Fprintf(p.errOut, "%s %s\n", warning("Invalid URL:"), raw)
		return
	}
	visited := parsed.String()

	matches := p.matching.URLMatches(p.entries, visited, p.opts.limit)
	seeds := make([]domain.Entry, 0, len(matches))
	for _, match := range matches {
		seeds = append(seeds, match.Entry)
	}
	expanded := usecase.ExpandRelated(p.entries, seeds)

	fmt.Fprintf(p.out, "Visited URL: %s\n", visited)
	fmt.Fprintf(p.out, "Seed matches: %d\n", len(matches))
	fmt.Fprintf(p.out, "Expanded related entries: %d\n\n", len(expanded))

	fmt.Fprintln(p.out, heading("Seed Matches"))
	p.printMatches(matches)
	fmt.Fprintln(p.out, heading("Related Expansion"))
	p.printRelations(expanded, seeds)
	fmt.Fprintln(p.out)
}

func (p *previewer) previewPage(raw, htmlPath string) error {
	f, err := os.Open(htmlPath)
	if err != nil {
		return fmt.Errorf("open html: %w", err)
	}
	defer f.Close()

	page, err := pagemeta.Extract(f, raw)
	if err != nil {
		return err
	}

	explanation := p.matching.Explain(p.entries, page)

	fmt.Fprintf(p.out, "Visited URL: %s\n", page.URL)
	fmt.Fprintf(p.out, "Title: %s\n", dash(page.Title))
	fmt.Fprintf(p.out, "Ecommerce host: %t\n", explanation.EcommerceHost)
	fmt.Fprintf(p.out, "Seeds: %d\n", len(explanation.Seeds))
	fmt.Fprintf(p.out, "Expanded related entries: %d\n\n", len(explanation.Related))

	fmt.Fprintln(p.out, heading("URL Matches"))
	p.printMatches(explanation.URLMatches)

	fmt.Fprintln(p.out, heading("Text Matches"))
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTYPE\tPAGE NAME")
	for _, match := range explanation.TextMatches {
		fmt.Fprintf(w, "%d\t%s\t%s\n", match.Score, match.Entry.Type, match.Entry.PageName)
	}
	w.Flush()

	fmt.Fprintln(p.out, heading("Related Expansion"))
	p.printRelations(explanation.Related, explanation.Seeds)
	return nil
}

func (p *previewer) printMatches(matches []domain.EntryMatch) {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tMATCH\tTYPE\tPAGE NAME\tWEBSITE\tPATH")
	for _, match := range matches {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			match.Score,
			match.MatchType,
			match.Entry.Type,
			match.Entry.PageName,
			dash(match.Entry.Website),
			dash(match.MatchedPath),
		)
	}
	w.Flush()
}

func (p *previewer) printRelations(expanded, seeds []domain.Entry) {
	seedKeys := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		seedKeys[seed.Key()] = struct{}{}
	}

	if p.opts.relationsLimit > 0 && len(expanded) > p.opts.relationsLimit {
		expanded = expanded[:p.opts.relationsLimit]
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTYPE\tPAGE ID\tPAGE NAME\tCOMPANY\tPRODUCT\tPRODUCT LINE\tWEBSITE")
	for _, entry := range expanded {
		source := dimmed("related")
		if _, ok := seedKeys[entry.Key()]; ok {
			source = seedTag("seed")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			source,
			entry.Type,
			entry.ID(),
			entry.PageName,
			dash(entry.Company),
			dash(entry.Product),
			dash(entry.ProductLine),
			dash(entry.Website),
		)
	}
	w.Flush()
}

// exampleURLs returns the distinct parseable dataset websites in sorted order
func exampleURLs(entries []domain.Entry, limit int) []string {
	seen := make(map[string]struct{})
	var urls []string

	for _, entry := range entries {
		parsed, ok := usecase.SafeParseURL(entry.Website)
		if !ok {
			continue
		}
		normalized := parsed.String()
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		urls = append(urls, normalized)
	}

	sort.Strings(urls)
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	return urls
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
