package services

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mrnavastar/modman-agent/logging"
	"github.com/mrnavastar/modman-agent/util"
	"github.com/mrnavastar/modman-agent/util/fileutils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Fetcher downloads one url to one local file.
type Fetcher interface {
	Fetch(ctx context.Context, url string, dest string) error
}

type Installer struct {
	locator     *Locator
	fetcher     Fetcher
	concurrency int
	locks       *rootLocks
	logger      zerolog.Logger
}

// NewInstaller returns an installer running at most concurrency downloads per request.
// A concurrency of 1 downloads items strictly in request order.
func NewInstaller(locator *Locator, fetcher Fetcher, concurrency int, logger zerolog.Logger) *Installer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Installer{
		locator:     locator,
		fetcher:     fetcher,
		concurrency: concurrency,
		locks:       newRootLocks(),
		logger:      logger,
	}
}

func (i *Installer) Locator() *Locator {
	return i.locator
}

// Windows and macOS volumes are case-insensitive by default, so A.jar and a.jar are one file there.
var caseInsensitiveFS = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

type placement struct {
	url  string
	dest string
}

// Install places every usable item of req into its target root.
// The first failed download aborts the batch. A full-mode reset that already
// happened stays in effect.
func (i *Installer) Install(ctx context.Context, req util.InstallRequest) error {
	if len(req.Items) == 0 {
		return util.NewError(util.ErrValidation, "items must not be empty")
	}
	if req.TargetPath != "" && !filepath.IsAbs(req.TargetPath) {
		return util.Errorf(util.ErrValidation, "targetPath must be absolute, got %q", req.TargetPath)
	}

	root := req.TargetPath
	if root == "" {
		resolved, err := i.locator.Resolve(req.InstanceId)
		if err != nil {
			return err
		}
		root = resolved
	}

	logger := i.logger.With().Str("root", root).Str("mode", string(req.Mode)).Logger()
	defer logging.LogOperationStart(logger, "install")()

	unlock := i.locks.lock(i.lockKey(root))
	defer unlock()

	if err := fileutils.EnsureDir(root); err != nil {
		return util.WrapError(err, util.ErrFilesystem, "failed to create %s", root)
	}
	if err := ApplyResetPolicy(root, req.Mode, logger); err != nil {
		return err
	}

	groups, skipped := planPlacements(root, req.Items, logger)
	placed := 0
	for _, g := range groups {
		placed += len(g)
	}

	if err := i.place(ctx, groups); err != nil {
		logger.Error().Err(err).Msg("Install failed")
		if req.Mode == util.ModeFull {
			logger.Warn().Msg("Instance directories were reset before the failure and are not restored")
		}
		return err
	}

	logger.Info().Int("placed", placed).Int("skipped", skipped).Msg("Install finished")
	return nil
}

// lockKey maps any root inside the base directory to the base directory itself, so an
// archive extracting over base never overlaps an install into one of its instances.
func (i *Installer) lockKey(root string) string {
	base, err := i.locator.BaseDir()
	if err != nil {
		return root
	}
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(root))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return root
	}
	return base
}

// planPlacements maps items to destinations, dropping unusable ones. Items sharing a
// destination are grouped in request order so the last one wins, as it would sequentially.
func planPlacements(root string, items []util.InstallItem, logger zerolog.Logger) ([][]placement, int) {
	var groups [][]placement
	index := make(map[string]int)
	skipped := 0

	for n, item := range items {
		url := strings.TrimSpace(item.Url)
		if !util.UsableUrl(url) || !util.SafeFileName(item.FileName) {
			logger.Warn().Int("item", n).Str("fileName", item.FileName).Msg("Skipping item without usable http(s) url or fileName")
			skipped++
			continue
		}

		dest := filepath.Join(root, item.Type.Dir(), strings.TrimSpace(item.FileName))
		p := placement{url: url, dest: dest}
		key := dest
		if caseInsensitiveFS {
			key = strings.ToLower(dest)
		}
		if g, ok := index[key]; ok {
			groups[g] = append(groups[g], p)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []placement{p})
	}
	return groups, skipped
}

func (i *Installer) place(ctx context.Context, groups [][]placement) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for _, group := range groups {
		if gctx.Err() != nil {
			break
		}
		group := group
		g.Go(func() error {
			for _, p := range group {
				if err := gctx.Err(); err != nil {
					return err
				}
				i.logger.Debug().Str("url", p.url).Str("dest", p.dest).Msg("Fetching")
				if err := i.fetcher.Fetch(gctx, p.url, p.dest); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil && util.GetErrorCode(err) == util.ErrUnknown {
		return util.WrapError(err, util.ErrFetch, "download aborted")
	}
	return err
}
