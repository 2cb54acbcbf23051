package copyexamplegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/semaphore"

	log "github.com/sirupsen/logrus"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/bcongdon/copyexamplegen/internal/pkg/corfs"
)

// Generator copies the splits named by a split mapping into an Examples artifact
type Generator struct {
	config *config
	log    log.FieldLogger
}

// Option allows configuration of a Generator
type Option func(*config)

// NewGenerator creates a new Generator. Settings are loaded from the
// copyexamplegenrc config file and COPYEXAMPLEGEN_* environment variables,
// then overridden by options.
func NewGenerator(options ...Option) (*Generator, error) {
	c, err := newConfig()
	if err != nil {
		return nil, err
	}
	for _, f := range options {
		f(c)
	}

	if _, err := parseOverwritePolicy(string(c.Overwrite)); err != nil {
		return nil, err
	}
	if c.MaxConcurrency < 1 {
		log.Warnf("Configured max concurrency %d is less than 1, copying splits sequentially", c.MaxConcurrency)
		c.MaxConcurrency = 1
	}
	if c.logger == nil {
		if c.Verbose {
			log.SetLevel(log.DebugLevel)
		}
		c.logger = log.StandardLogger()
	}
	if c.resolve == nil {
		c.resolve = newCachingResolver()
	}

	g := &Generator{
		config: c,
		log:    c.logger,
	}
	g.log.WithFields(log.Fields{
		"suffix":          c.Suffix,
		"overwrite":       c.Overwrite,
		"split_prefix":    c.SplitPrefix,
		"max_concurrency": c.MaxConcurrency,
	}).Debug("Loaded config")

	return g, nil
}

// WithSuffix sets the file name suffix of the examples to copy
func WithSuffix(suffix string) Option {
	return func(c *config) {
		c.Suffix = suffix
	}
}

// WithOverwritePolicy sets how existing destination files are treated
func WithOverwritePolicy(p OverwritePolicy) Option {
	return func(c *config) {
		c.Overwrite = p
	}
}

// WithSplitPrefix sets the prefix of per-split output directories
func WithSplitPrefix(prefix string) Option {
	return func(c *config) {
		c.SplitPrefix = prefix
	}
}

// WithMaxConcurrency sets the number of splits copied at the same time
func WithMaxConcurrency(n int) Option {
	return func(c *config) {
		c.MaxConcurrency = n
	}
}

// WithProgress enables a progress bar on stdout
func WithProgress(enabled bool) Option {
	return func(c *config) {
		c.Progress = enabled
	}
}

// WithLogger sets the logger that copy warnings and summaries go to
func WithLogger(logger log.FieldLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// withFileSystem serves every location from fileSys
func withFileSystem(fileSys corfs.FileSystem) Option {
	return func(c *config) {
		c.resolve = func(string) (corfs.FileSystem, error) {
			return fileSys, nil
		}
	}
}

// Run parses inputJSON and copies every split it names into output. Invalid
// input is reported before anything is written. When splits fail, the
// errors of all failed splits are returned together and output.SplitNames
// is left unset.
func (g *Generator) Run(ctx context.Context, inputJSON string, output *Examples) error {
	if output == nil || output.URI == "" {
		return errors.New("output artifact has no URI")
	}

	splits, err := ParseSplitMapping(inputJSON)
	if err != nil {
		return err
	}

	outFS, err := g.config.resolve(output.URI)
	if err != nil {
		return fmt.Errorf("resolving output %s: %w", output.URI, err)
	}

	cp := &copier{
		suffix:    g.config.Suffix,
		overwrite: g.config.Overwrite,
		resolve:   g.config.resolve,
		log:       g.log,
	}

	var bar *pb.ProgressBar
	if g.config.Progress {
		bar = newProgressBar(len(splits)).Start()
	}

	errs := make([]error, len(splits))
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(int64(g.config.MaxConcurrency))
	for i, split := range splits {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = fmt.Errorf("split %s: %w", split.Label, err)
			break
		}
		wg.Add(1)
		go func(i int, s Split) {
			defer wg.Done()
			defer sem.Release(1)
			if bar != nil {
				defer bar.Increment()
			}
			errs[i] = g.copySplit(ctx, cp, outFS, output.URI, s)
		}(i, split)
	}
	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	output.SplitNames = formatSplitNames(splits.Labels())
	return nil
}

// newProgressBar counts finished splits on stderr, keeping stdout for the
// artifact printed by Main
func newProgressBar(total int) *pb.ProgressBar {
	bar := pb.New(total).Prefix("Copy")
	bar.Output = os.Stderr
	return bar
}

func (g *Generator) copySplit(ctx context.Context, cp *copier, outFS corfs.FileSystem, outputURI string, s Split) error {
	splitURI := outFS.Join(outputURI, g.config.SplitPrefix+s.Label)
	if err := outFS.MkdirAll(splitURI); err != nil {
		return fmt.Errorf("split %s: creating %s: %w", s.Label, splitURI, err)
	}

	result, err := cp.copyExamples(ctx, s.URI, splitURI)
	if err != nil {
		return fmt.Errorf("split %s: %w", s.Label, err)
	}
	g.log.WithFields(log.Fields{
		"split":   s.Label,
		"copied":  result.Copied,
		"skipped": result.Skipped,
	}).Debug("Finished split")
	return nil
}

// Main runs copyexamplegen as a command line program, or as a Lambda
// function when running inside AWS Lambda.
func Main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	inputJSON := flags.String("input-json", "", "JSON object mapping split labels to source URIs (may also be given as the first argument)")
	outputURI := flags.StringP("output", "o", "", "Output artifact URI (can be local or in S3)")
	flags.String("suffix", ".gz", "Suffix of the example files to copy")
	flags.String("overwrite", string(OverwriteExisting), "What to do with existing destination files: overwrite, skip or error")
	flags.Int("max-concurrency", 1, "Number of splits copied at the same time")
	flags.Bool("progress", false, "Show a progress bar")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.Parse(os.Args[1:])

	for key, flag := range map[string]string{
		"suffix":          "suffix",
		"overwrite":       "overwrite",
		"max_concurrency": "max-concurrency",
		"progress":        "progress",
		"verbose":         "verbose",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}

	g, err := NewGenerator()
	if err != nil {
		log.Fatal(err)
	}

	if runningInLambda() {
		lambda.Start(g.handleRequest)
		return
	}

	if *inputJSON == "" && flags.NArg() > 0 {
		*inputJSON = flags.Arg(0)
	}
	if *outputURI == "" {
		log.Fatal("No output URI given (--output)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	artifact := &Examples{URI: *outputURI}
	start := time.Now()
	if err := g.Run(ctx, *inputJSON, artifact); err != nil {
		log.Fatal(err)
	}
	log.Infof("Copy Execution Time: %s", time.Since(start))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		log.Fatal(err)
	}
}
