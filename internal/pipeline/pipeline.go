// Package pipeline builds the avatar mosaic end to end: it resolves user ids
// to avatars, drops generated placeholder avatars, shuffles the survivors
// and composites them into a grid.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/ironsheep/avatar-mosaic/internal/grid"
	"github.com/ironsheep/avatar-mosaic/internal/imaging"
	"github.com/ironsheep/avatar-mosaic/internal/logging"
	"github.com/ironsheep/avatar-mosaic/internal/shuffle"
	"github.com/ironsheep/avatar-mosaic/internal/stackexchange"
	"github.com/ironsheep/avatar-mosaic/internal/symmetry"
	"golang.org/x/sync/errgroup"
)

// StdoutPath as the output path sends the PNG to Options.Stdout.
const StdoutPath = "-"

// Source resolves users and downloads their avatars.
// *stackexchange.Client satisfies it.
type Source interface {
	Users(ctx context.Context, ids []int, batchSize int) iter.Seq2[stackexchange.User, error]
	DownloadAvatar(ctx context.Context, url string) ([]byte, error)
}

// Options controls a single run.
type Options struct {
	IDs       []int
	BatchSize int

	// Workers bounds concurrent downloads and detections. Values below 1
	// mean 1.
	Workers int

	Settings grid.Settings

	// AutoBackground replaces Settings.Background with the dominant color
	// of the placed avatars.
	AutoBackground bool

	// OutputPath is where the PNG is written. Empty skips writing;
	// StdoutPath writes to Stdout.
	OutputPath string
	Stdout     io.Writer
}

// Deps are the collaborators of a run. Only Source is required.
type Deps struct {
	Source  Source
	Cache   imaging.AvatarCache
	Logger  *slog.Logger
	Metrics *Metrics
	Rand    *rand.Rand
}

// Result summarizes a run.
type Result struct {
	Fetched    int         `json:"fetched"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	Placed     int         `json:"placed"`
	OutputPath string      `json:"output_path,omitempty"`
	Image      *image.RGBA `json:"-"`
}

type candidate struct {
	index int
	img   image.Image
}

// Run executes the pipeline.
//
// Avatars that fail to download or decode are logged and counted but do not
// stop the run. Errors from the user lookup, cancellation and output errors
// do.
func Run(ctx context.Context, opts Options, deps Deps) (*Result, error) {
	if deps.Source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	r := deps.Rand
	if r == nil {
		r = shuffle.New(0)
	}

	var (
		mu         sync.Mutex
		result     Result
		candidates []candidate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	index := 0
	var lookupErr error
	for user, err := range deps.Source.Users(gctx, opts.IDs, opts.BatchSize) {
		if err != nil {
			lookupErr = fmt.Errorf("failed to fetch users: %w", err)
			break
		}
		if gctx.Err() != nil {
			break
		}
		i := index
		index++
		g.Go(func() error {
			img, automatic, err := processAvatar(gctx, i, user, deps, logger)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				result.Failed++
				deps.Metrics.avatar(OutcomeFailed)
				logger.Warn("failed to load avatar", "index", i, "user", user.DisplayName, "id", user.ID, "error", err)
			case automatic:
				result.Fetched++
				result.Skipped++
				deps.Metrics.avatar(OutcomeAutomatic)
				logger.Info("avatar is automatic, skipping", "index", i, "user", user.DisplayName, "id", user.ID)
			default:
				result.Fetched++
				deps.Metrics.avatar(OutcomeAccepted)
				candidates = append(candidates, candidate{index: i, img: img})
			}
			return nil
		})
	}
	waitErr := g.Wait()
	if lookupErr != nil {
		return nil, lookupErr
	}
	if err := cmp.Or(waitErr, ctx.Err()); err != nil {
		return nil, err
	}

	// Workers finish out of order; restore lookup order so a fixed seed
	// always yields the same mosaic.
	slices.SortFunc(candidates, func(a, b candidate) int { return cmp.Compare(a.index, b.index) })
	images := make([]image.Image, len(candidates))
	for i, c := range candidates {
		images[i] = c.img
	}
	images = shuffle.Take(shuffle.Slice(images, r), opts.Settings.Capacity())
	result.Placed = len(images)

	settings := opts.Settings
	if opts.AutoBackground {
		bg := imaging.DominantColorOf(images)
		settings.Background = &bg
		logger.Debug("computed background", "color", imaging.FormatHex(bg))
	}
	result.Image = grid.Combine(images, settings)

	if err := writeOutput(opts, result.Image); err != nil {
		return nil, err
	}
	result.OutputPath = opts.OutputPath

	logger.Info("mosaic complete",
		"fetched", result.Fetched,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"placed", result.Placed,
		"capacity", settings.Capacity(),
		"output", result.OutputPath,
	)
	return &result, nil
}

// processAvatar loads one avatar and classifies it.
func processAvatar(ctx context.Context, i int, user stackexchange.User, deps Deps, logger *slog.Logger) (image.Image, bool, error) {
	if user.ProfileImage == "" {
		return nil, false, errors.New("user has no profile image")
	}
	logger.Debug("downloading avatar", "index", i, "user", user.DisplayName, "id", user.ID)

	data, err := fetchAvatar(ctx, user.ProfileImage, deps, logger)
	if err != nil {
		return nil, false, err
	}
	img, err := imaging.DecodeBytes(data)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	automatic := symmetry.IsAutomaticImage(img)
	deps.Metrics.detect(time.Since(start).Seconds())
	return img, automatic, nil
}

// fetchAvatar reads through the avatar cache when one is configured. Cache
// failures degrade to a direct download.
func fetchAvatar(ctx context.Context, url string, deps Deps, logger *slog.Logger) ([]byte, error) {
	if deps.Cache == nil {
		return deps.Source.DownloadAvatar(ctx, url)
	}

	data, err := deps.Cache.Get(ctx, url)
	if err == nil {
		deps.Metrics.cache(true)
		return data, nil
	}
	deps.Metrics.cache(false)
	if !errors.Is(err, imaging.ErrCacheMiss) {
		logger.Warn("avatar cache unavailable", "url", url, "error", err)
	}

	data, err = deps.Source.DownloadAvatar(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := deps.Cache.Put(ctx, url, data); err != nil {
		logger.Warn("failed to cache avatar", "url", url, "error", err)
	}
	return data, nil
}

func writeOutput(opts Options, img image.Image) error {
	switch opts.OutputPath {
	case "":
		return nil
	case StdoutPath:
		if opts.Stdout == nil {
			return errors.New("pipeline: stdout output requested without a writer")
		}
		return imaging.EncodePNG(opts.Stdout, img)
	default:
		return imaging.SavePNG(opts.OutputPath, img)
	}
}
