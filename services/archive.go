package services

import (
	"context"
	"os"
	"strings"

	"github.com/mrnavastar/modman-agent/logging"
	"github.com/mrnavastar/modman-agent/util"
	"github.com/mrnavastar/modman-agent/util/fileutils"
)

// InstallArchive is the legacy modpack path: download one zip into the base directory,
// reset if full, extract over the base directory and delete the zip.
func (i *Installer) InstallArchive(ctx context.Context, req util.ArchiveRequest) error {
	if strings.TrimSpace(req.Url) == "" {
		return util.NewError(util.ErrValidation, "url must not be empty")
	}
	if !util.UsableUrl(req.Url) {
		return util.Errorf(util.ErrValidation, "url must be http or https, got %q", req.Url)
	}

	base, err := i.locator.BaseDir()
	if err != nil {
		return err
	}

	logger := i.logger.With().Str("root", base).Str("mode", string(req.Mode)).Logger()
	defer logging.LogOperationStart(logger, "install-archive")()

	unlock := i.locks.lock(i.lockKey(base))
	defer unlock()

	if err := fileutils.EnsureDir(base); err != nil {
		return util.WrapError(err, util.ErrFilesystem, "failed to create %s", base)
	}

	tmp, err := os.CreateTemp(base, ".modman-pack-*.zip")
	if err != nil {
		return util.WrapError(err, util.ErrFilesystem, "failed to create temporary archive")
	}
	archive := tmp.Name()
	_ = tmp.Close()
	defer fileutils.RemoveQuietly(logger, archive)

	if err := i.fetcher.Fetch(ctx, strings.TrimSpace(req.Url), archive); err != nil {
		return err
	}

	if err := ApplyResetPolicy(base, req.Mode, logger); err != nil {
		return err
	}

	n, err := fileutils.ExtractZip(archive, base)
	if err != nil {
		if req.Mode == util.ModeFull {
			logger.Warn().Msg("Instance directories were reset before the failure and are not restored")
		}
		return util.WrapError(err, util.ErrFilesystem, "failed to extract archive")
	}

	logger.Info().Int("files", n).Msg("Archive installed")
	return nil
}
