package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/scribe/content"
	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/middleware"
	"github.com/petal-labs/scribe/pool"
)

// Assembler writes articles with a chat provider and optional media
// providers. It is safe for concurrent use.
type Assembler struct {
	chat      core.ChatProvider
	generator core.ImageGenerator
	searcher  core.ImageSearcher
	videos    core.VideoSearcher

	model       core.ModelID
	imageSize   core.ImageSize
	concurrency int
	retry       core.RetryPolicy
	middleware  []middleware.Middleware
	logger      *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithImageGenerator sets the provider used for ImagesGenerate.
func WithImageGenerator(g core.ImageGenerator) Option {
	return func(a *Assembler) { a.generator = g }
}

// WithImageSearcher sets the stock photo provider used for ImagesStock.
func WithImageSearcher(s core.ImageSearcher) Option {
	return func(a *Assembler) { a.searcher = s }
}

// WithVideoSearcher sets the provider used to find an embedded video.
func WithVideoSearcher(v core.VideoSearcher) Option {
	return func(a *Assembler) { a.videos = v }
}

// WithModel sets the chat model. Empty uses the provider's default.
func WithModel(model core.ModelID) Option {
	return func(a *Assembler) { a.model = model }
}

// WithImageSize sets the size of generated images.
func WithImageSize(size core.ImageSize) Option {
	return func(a *Assembler) { a.imageSize = size }
}

// WithConcurrency bounds the number of in-flight provider requests for
// section text and, separately, for images.
func WithConcurrency(n int) Option {
	return func(a *Assembler) { a.concurrency = n }
}

// WithRetryPolicy sets the retry policy for the outline request.
func WithRetryPolicy(p core.RetryPolicy) Option {
	return func(a *Assembler) {
		if p != nil {
			a.retry = p
		}
	}
}

// WithMiddleware wraps every chat completion request, outline and
// sections alike. The first middleware is outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(a *Assembler) { a.middleware = append(a.middleware, mws...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an Assembler writing text with chat.
func New(chat core.ChatProvider, opts ...Option) *Assembler {
	a := &Assembler{
		chat:        chat,
		imageSize:   core.ImageSize1792x1024,
		concurrency: pool.DefaultConcurrency,
		retry:       core.DefaultRetryPolicy(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.concurrency < 1 {
		a.concurrency = pool.DefaultConcurrency
	}
	return a
}

// Section is one written section of an Article.
type Section struct {
	Heading string
	Summary string
	Body    string
	// Image is the section's image block, nil when none was found.
	Image content.Block
}

// Article is an assembled article.
type Article struct {
	ID       string
	Title    string
	Sections []Section
	// Video is an embedded video block, nil when none was requested or
	// found.
	Video content.Block
	// Usage holds the usage records of the text requests, in request order.
	Usage []core.UsageRecord
	// Warnings collects media lookups that failed and usage records that
	// could not be persisted. None of them fail the article.
	Warnings []error
}

// Assemble writes the article described by brief. Outline and section
// failures abort the article. Media failures are attached as warnings.
func (a *Assembler) Assemble(ctx context.Context, brief Brief) (*Article, error) {
	b, err := brief.normalize()
	if err != nil {
		return nil, err
	}
	switch {
	case b.Images == ImagesGenerate && a.generator == nil:
		return nil, fmt.Errorf("%w: image generation requested but no image generator configured", core.ErrBadRequest)
	case b.Images == ImagesStock && a.searcher == nil:
		return nil, fmt.Errorf("%w: stock images requested but no image searcher configured", core.ErrBadRequest)
	}

	article := &Article{ID: uuid.NewString()}
	log := a.logger.With("article", article.ID)

	outline, err := a.outline(ctx, b, article)
	if err != nil {
		return nil, err
	}
	if len(outline.Sections) > b.Sections {
		outline.Sections = outline.Sections[:b.Sections]
	}
	article.Title = outline.Title
	if article.Title == "" {
		article.Title = b.Topic
	}
	log.InfoContext(ctx, "outline ready", "sections", len(outline.Sections))

	article.Sections = make([]Section, len(outline.Sections))
	for i, s := range outline.Sections {
		article.Sections[i] = Section{Heading: s.Heading, Summary: s.Summary}
	}

	if err := a.writeSections(ctx, b, article); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "sections written", "usage_records", len(article.Usage))

	a.attachMedia(ctx, b, article)
	return article, nil
}

func (a *Assembler) completions() core.Caller {
	return middleware.Wrap(a.chat.Completions(), a.middleware...)
}

func (a *Assembler) outline(ctx context.Context, b Brief, article *Article) (*Outline, error) {
	payload := a.chat.ChatPayload(outlineRequest(a.model, b))
	caller := a.completions()

	resp, err := core.Retry(ctx, a.retry, func(ctx context.Context) (*core.Response, error) {
		return caller.Call(ctx, payload)
	})
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	collect(article, resp)

	cr, err := a.chat.DecodeChat(resp)
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	outline, err := ParseOutline(cr.Output)
	if err != nil {
		return nil, &core.ProviderError{
			Provider:  a.chat.ID(),
			Status:    resp.Status,
			RequestID: resp.RequestID,
			Code:      "invalid_outline",
			Message:   err.Error(),
			Err:       core.ErrDecode,
		}
	}
	return outline, nil
}

const sectionSystemPrompt = `You write one section of a blog article. Write two to four paragraphs of plain text separated by blank lines. Do not repeat the heading. Do not use Markdown.`

func sectionRequest(model core.ModelID, b Brief, title string, s Section) *core.ChatRequest {
	var user strings.Builder
	fmt.Fprintf(&user, "Article: %s\nSection: %s\n", title, s.Heading)
	if s.Summary != "" {
		fmt.Fprintf(&user, "Covers: %s\n", s.Summary)
	}
	if b.Audience != "" {
		fmt.Fprintf(&user, "Audience: %s\n", b.Audience)
	}
	if b.Tone != "" {
		fmt.Fprintf(&user, "Tone: %s\n", b.Tone)
	}
	if len(b.Keywords) > 0 {
		fmt.Fprintf(&user, "Keywords: %s\n", strings.Join(b.Keywords, ", "))
	}
	return &core.ChatRequest{
		Model: model,
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: sectionSystemPrompt},
			{Role: core.RoleUser, Content: user.String()},
		},
	}
}

func (a *Assembler) writeSections(ctx context.Context, b Brief, article *Article) error {
	n := len(article.Sections)
	bodies := make([]string, n)
	decodeErrs := make([]error, n)

	reqs := make([]pool.Request, n)
	for i, s := range article.Sections {
		reqs[i] = pool.Request{
			Payload: a.chat.ChatPayload(sectionRequest(a.model, b, article.Title, s)),
			After: func(resp *core.Response) {
				cr, err := a.chat.DecodeChat(resp)
				if err != nil {
					decodeErrs[i] = err
					return
				}
				bodies[i] = strings.TrimSpace(cr.Output)
			},
		}
	}

	d := pool.New(a.completions(), pool.WithConcurrency(a.concurrency), pool.WithLogger(a.logger))
	batch, err := d.Run(ctx, reqs)
	if err != nil {
		return fmt.Errorf("sections: %w", err)
	}
	if err := errors.Join(decodeErrs...); err != nil {
		return fmt.Errorf("sections: %w", err)
	}

	for i := range article.Sections {
		article.Sections[i].Body = bodies[i]
	}
	article.Usage = append(article.Usage, batch.Usage...)
	article.Warnings = append(article.Warnings, batch.Warnings...)
	return nil
}

func collect(article *Article, resp *core.Response) {
	if resp.Record != nil {
		article.Usage = append(article.Usage, *resp.Record)
	}
	article.Warnings = append(article.Warnings, resp.Warnings...)
}

// attachMedia looks up section images and the video concurrently.
func (a *Assembler) attachMedia(ctx context.Context, b Brief, article *Article) {
	var (
		mu       sync.Mutex
		warnings []error
	)
	warn := func(err error) {
		a.logger.WarnContext(ctx, "media lookup failed", "article", article.ID, "error", err)
		mu.Lock()
		warnings = append(warnings, err)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	if b.Images != ImagesNone {
		for i := range article.Sections {
			g.Go(func() error {
				block, err := a.sectionImage(ctx, b, article.Title, article.Sections[i])
				if err != nil {
					warn(fmt.Errorf("section %d image: %w", i, err))
					return nil
				}
				article.Sections[i].Image = block
				return nil
			})
		}
	}
	if b.Video && a.videos != nil {
		g.Go(func() error {
			block, err := a.video(ctx, b)
			if err != nil {
				warn(fmt.Errorf("video: %w", err))
				return nil
			}
			article.Video = block
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	article.Warnings = append(article.Warnings, warnings...)
}

// ErrNoMedia is reported when a media provider returned no usable result.
var ErrNoMedia = errors.New("no media found")

func (a *Assembler) sectionImage(ctx context.Context, b Brief, title string, s Section) (content.Block, error) {
	switch b.Images {
	case ImagesGenerate:
		resp, err := a.generator.GenerateImage(ctx, &core.ImageGenerateRequest{
			Prompt: fmt.Sprintf("Editorial illustration for the section %q of an article titled %q. %s No text or lettering.", s.Heading, title, s.Summary),
			Size:   a.imageSize,
		})
		if err != nil {
			return nil, err
		}
		for _, img := range resp.Data {
			if img.B64JSON != "" {
				return content.NewGeneratedImage(img.B64JSON, s.Heading, img.RevisedPrompt, ""), nil
			}
		}
		return nil, ErrNoMedia

	case ImagesStock:
		key, ok := content.StockKeyFor(a.searcher.ID())
		if !ok {
			return nil, fmt.Errorf("no block type for stock provider %q", a.searcher.ID())
		}
		resp, err := a.searcher.SearchImages(ctx, &core.ImageSearchRequest{
			Query:       s.Heading + " " + b.Topic,
			PerPage:     3,
			Orientation: core.OrientationLandscape,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Photos {
			if p.ImageURL == "" {
				continue
			}
			caption := ""
			if p.Photographer != "" {
				caption = "Photo by " + p.Photographer
			}
			img, err := content.NewStockImage(key, p.ImageURL, s.Heading, p.Alt, caption)
			if err != nil {
				return nil, err
			}
			return img, nil
		}
		return nil, ErrNoMedia
	}
	return nil, nil
}

func (a *Assembler) video(ctx context.Context, b Brief) (content.Block, error) {
	resp, err := a.videos.SearchVideos(ctx, &core.VideoSearchRequest{Query: b.Topic, MaxResults: 1})
	if err != nil {
		return nil, err
	}
	if len(resp.Videos) == 0 {
		return nil, ErrNoMedia
	}
	v := resp.Videos[0]
	return content.NewVideoEmbed(v.ID, v.Title, v.Description), nil
}
