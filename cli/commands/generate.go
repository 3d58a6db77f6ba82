package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/scribe/assembler"
	"github.com/petal-labs/scribe/content"
	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/media/filestore"
	"github.com/petal-labs/scribe/middleware"
	"github.com/petal-labs/scribe/providers"
)

// Output formats for generate.
const (
	FormatMarkup   = "markup"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

type generateOptions struct {
	topic       string
	sections    int
	images      string
	stock       string
	video       bool
	audience    string
	tone        string
	keywords    []string
	model       string
	imageSize   string
	concurrency int
	timeout     time.Duration
	format      string
	out         string
	blocksOut   string
	mediaDir    string
	mediaURL    string
}

func (a *App) newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write an article",
		Long: `Write an article about a topic. The chat model drafts an outline, the
sections are written in parallel, and each section can be illustrated with a
generated image or a stock photo.

Examples:
  scribe generate --topic "Composting in small apartments"
  scribe generate --topic "Night photography" --images stock --stock pixabay --video
  scribe generate --topic "Sourdough basics" --format markdown --out sourdough.md
  scribe generate --topic "Tide pools" --images generate --blocks tide-pools.blocks.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.topic, "topic", "", "article topic (required)")
	cmd.Flags().IntVar(&opts.sections, "sections", assembler.DefaultSections, "number of sections")
	cmd.Flags().StringVar(&opts.images, "images", "", "image source: none, generate or stock (default from config)")
	cmd.Flags().StringVar(&opts.stock, "stock", "", "stock photo provider: pexels or pixabay (default from config)")
	cmd.Flags().BoolVar(&opts.video, "video", false, "embed a related YouTube video")
	cmd.Flags().StringVar(&opts.audience, "audience", "", "intended readers")
	cmd.Flags().StringVar(&opts.tone, "tone", "", "writing tone")
	cmd.Flags().StringSliceVar(&opts.keywords, "keyword", nil, "keyword to work in (repeatable)")
	cmd.Flags().StringVar(&opts.model, "model", "", "chat model (default from config)")
	cmd.Flags().StringVar(&opts.imageSize, "image-size", string(core.ImageSize1792x1024), "size of generated images")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "max in-flight provider requests (default from config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "per-request timeout for chat completions (0 disables)")
	cmd.Flags().StringVar(&opts.format, "format", FormatMarkup, "output format: markup, markdown or json")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the article to a file instead of stdout")
	cmd.Flags().StringVar(&opts.blocksOut, "blocks", "", "also save the article's media blocks as JSON")
	cmd.Flags().StringVar(&opts.mediaDir, "media-dir", "", "directory for saved images (default from config)")
	cmd.Flags().StringVar(&opts.mediaURL, "media-url", "", "public base URL of the media directory")

	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func (a *App) runGenerate(ctx context.Context, opts *generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	mode, err := assembler.ParseImageMode(firstNonEmpty(opts.images, a.cfg.Images))
	if err != nil {
		return a.invalid(err)
	}
	format := strings.ToLower(opts.format)
	switch format {
	case FormatMarkup, FormatMarkdown, FormatJSON:
	default:
		return a.invalid(fmt.Errorf("unsupported format %q: want markup, markdown or json", opts.format))
	}
	size := core.ImageSize(opts.imageSize)
	if !size.IsValid() {
		return a.invalid(fmt.Errorf("unsupported image size %q", opts.imageSize))
	}
	stock := firstNonEmpty(opts.stock, a.cfg.StockProvider)
	if mode == assembler.ImagesStock {
		if _, ok := content.StockKeyFor(stock); !ok || !providers.IsRegistered(stock) {
			return a.invalid(fmt.Errorf("unsupported stock provider %q", stock))
		}
	}

	deps, release, err := a.providerDeps(ctx)
	if err != nil {
		return a.invalid(err)
	}
	defer release()

	chat, err := providers.CreateChat("openai", deps)
	if err != nil {
		return a.fail(err)
	}

	asmOpts := []assembler.Option{
		assembler.WithLogger(a.logger),
		assembler.WithModel(core.ModelID(opts.model)),
		assembler.WithImageSize(size),
		assembler.WithConcurrency(firstPositive(opts.concurrency, a.cfg.Concurrency)),
		assembler.WithMiddleware(
			middleware.WithLogging(a.logger),
			middleware.WithCircuitBreaker(middleware.DefaultCircuitBreakerConfig()),
			middleware.WithTimeout(opts.timeout),
		),
	}
	switch mode {
	case assembler.ImagesGenerate:
		gen, err := providers.CreateImageGenerator("openai", deps)
		if err != nil {
			return a.fail(err)
		}
		asmOpts = append(asmOpts, assembler.WithImageGenerator(gen))
	case assembler.ImagesStock:
		searcher, err := providers.CreateImageSearcher(stock, deps)
		if err != nil {
			return a.fail(err)
		}
		asmOpts = append(asmOpts, assembler.WithImageSearcher(searcher))
	}
	if opts.video {
		videos, err := providers.CreateVideoSearcher("youtube", deps)
		if err != nil {
			return a.fail(err)
		}
		asmOpts = append(asmOpts, assembler.WithVideoSearcher(videos))
	}

	article, err := assembler.New(chat, asmOpts...).Assemble(ctx, assembler.Brief{
		Topic:    opts.topic,
		Audience: opts.audience,
		Tone:     opts.tone,
		Keywords: opts.keywords,
		Sections: opts.sections,
		Images:   mode,
		Video:    opts.video,
	})
	if err != nil {
		return a.fail(err)
	}
	for _, w := range article.Warnings {
		fmt.Fprintf(a.stderr, "warning: %v\n", w)
	}

	var store content.MediaStore
	if mode != assembler.ImagesNone && format != FormatJSON {
		fs, err := filestore.New(
			firstNonEmpty(opts.mediaDir, a.cfg.Media.Dir),
			firstNonEmpty(opts.mediaURL, a.cfg.Media.BaseURL),
			filestore.WithLogger(a.logger),
		)
		if err != nil {
			return a.invalid(fmt.Errorf("media store: %w", err))
		}
		store = fs
	}

	out, err := a.renderArticle(ctx, article, format, store)
	if err != nil {
		return a.fail(err)
	}
	if err := a.writeOutput(opts.out, out); err != nil {
		return a.invalid(err)
	}

	if opts.blocksOut != "" {
		data, err := content.MarshalBlocks(article.Blocks())
		if err != nil {
			return a.invalid(err)
		}
		if err := a.writeOutput(opts.blocksOut, append(data, '\n')); err != nil {
			return a.invalid(err)
		}
	}

	prompt, completion := 0, 0
	for _, rec := range article.Usage {
		prompt += rec.PromptUnits
		completion += rec.CompletionUnits
	}
	a.logger.Info("article written",
		"article", article.ID,
		"sections", len(article.Sections),
		"prompt_units", prompt,
		"completion_units", completion,
	)
	return nil
}

type articleJSON struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	Sections []sectionJSON      `json:"sections"`
	Blocks   []map[string]any   `json:"blocks"`
	Usage    []core.UsageRecord `json:"usage"`
}

type sectionJSON struct {
	Heading string `json:"heading"`
	Summary string `json:"summary,omitempty"`
	Body    string `json:"body"`
}

func (a *App) renderArticle(ctx context.Context, article *assembler.Article, format string, store content.MediaStore) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		md, err := article.Markdown(ctx, store)
		if err != nil {
			return nil, err
		}
		return []byte(md), nil
	case FormatJSON:
		doc := articleJSON{
			ID:     article.ID,
			Title:  article.Title,
			Blocks: content.Encode(article.Blocks()),
			Usage:  article.Usage,
		}
		for _, s := range article.Sections {
			doc.Sections = append(doc.Sections, sectionJSON{Heading: s.Heading, Summary: s.Summary, Body: s.Body})
		}
		var b strings.Builder
		if err := writeJSON(&b, doc); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	default:
		return []byte(article.Markup(ctx, store) + "\n"), nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
