package services

import (
	"path/filepath"

	"github.com/mrnavastar/modman-agent/util"
	"github.com/mrnavastar/modman-agent/util/fileutils"
	"github.com/rs/zerolog"
)

// ApplyResetPolicy wipes mods, config and resourcepacks under root when mode is full.
// Removal failures are logged and skipped. Nothing is ever rolled back, so root must
// already be the resolved target.
func ApplyResetPolicy(root string, mode util.Mode, logger zerolog.Logger) error {
	if mode != util.ModeFull {
		return nil
	}
	if root == "" || !filepath.IsAbs(root) {
		return util.Errorf(util.ErrValidation, "refusing to reset non-absolute root %q", root)
	}

	for _, dir := range util.ResetDirs {
		fileutils.RemoveQuietly(logger, filepath.Join(root, dir))
	}
	logger.Info().Str("root", root).Strs("dirs", util.ResetDirs).Msg("Reset instance directories")
	return nil
}
