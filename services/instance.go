package services

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/mrnavastar/modman-agent/util"
	"github.com/mrnavastar/modman-agent/util/fileutils"
	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"
)

var unixLike = []string{"linux", "freebsd", "openbsd", "netbsd", "dragonfly"}

// PlatformMinecraftDir returns where the vanilla launcher keeps .minecraft on goos.
func PlatformMinecraftDir(goos string, home string, appData string) (string, error) {
	switch {
	case goos == "windows":
		if appData != "" {
			return filepath.Join(appData, ".minecraft"), nil
		}
		if home == "" {
			return "", util.NewError(util.ErrUnsupportedPlatform, "cannot locate %APPDATA%")
		}
		return filepath.Join(home, "AppData", "Roaming", ".minecraft"), nil
	case goos == "darwin":
		if home == "" {
			return "", util.NewError(util.ErrUnsupportedPlatform, "cannot locate home directory")
		}
		return filepath.Join(home, "Library", "Application Support", "minecraft"), nil
	case util.Contains(unixLike, goos):
		if home == "" {
			return "", util.NewError(util.ErrUnsupportedPlatform, "cannot locate home directory")
		}
		return filepath.Join(home, ".minecraft"), nil
	}
	return "", util.Errorf(util.ErrUnsupportedPlatform, "unsupported platform %q", goos)
}

// DefaultBaseDir resolves .minecraft from, in order: the configured override,
// the location saved by `init` in the keyring, and the platform rule.
func DefaultBaseDir(configured string, logger zerolog.Logger) func() (string, error) {
	return func() (string, error) {
		if configured != "" {
			return configured, nil
		}

		saved, err := fileutils.DotMinecraftOverride()
		if err != nil {
			logger.Debug().Err(err).Msg("Keyring unavailable, using platform default")
		} else if saved != "" {
			return saved, nil
		}

		home, _ := os.UserHomeDir()
		return PlatformMinecraftDir(runtime.GOOS, home, os.Getenv("APPDATA"))
	}
}

type Locator struct {
	baseDir func() (string, error)
	logger  zerolog.Logger
}

func NewLocator(baseDir func() (string, error), logger zerolog.Logger) *Locator {
	return &Locator{baseDir: baseDir, logger: logger}
}

// BaseDir returns the platform-standard installation path, which may not exist yet.
func (l *Locator) BaseDir() (string, error) {
	return l.baseDir()
}

// BasePath is BaseDir with failures reported as "".
func (l *Locator) BasePath() string {
	base, err := l.baseDir()
	if err != nil {
		return ""
	}
	return base
}

// ListInstances discovers instances afresh. The default instance comes first whenever the
// base path can be determined; every folder under <base>/versions follows, newest release first.
// Failures shrink the list instead of failing the call.
func (l *Locator) ListInstances() []util.Instance {
	base, err := l.baseDir()
	if err != nil {
		l.logger.Debug().Err(err).Msg("No base directory, no instances")
		return []util.Instance{}
	}

	instances := []util.Instance{{
		Id:   util.DefaultInstanceId,
		Name: "Default (.minecraft)",
		Path: base,
		Kind: util.KindDefault,
	}}

	entries, err := os.ReadDir(filepath.Join(base, "versions"))
	if err != nil {
		l.logger.Debug().Err(err).Str("base", base).Msg("No versions folder")
		return instances
	}

	profiles := fileutils.LauncherProfileNames(base)
	var versioned []util.Instance
	for _, entry := range entries {
		path := filepath.Join(base, "versions", entry.Name())
		if !entry.IsDir() && !fileutils.DirExists(path) {
			continue
		}

		name := entry.Name()
		if label, ok := profiles[filepath.Clean(path)]; ok {
			name = label
		}
		versioned = append(versioned, util.Instance{
			Id:     util.SanitizeInstanceId(entry.Name()),
			Name:   name,
			Path:   path,
			Kind:   util.KindVersioned,
			Folder: entry.Name(),
		})
	}
	sortVersioned(versioned)

	return append(instances, versioned...)
}

// sortVersioned puts folders named like releases first, newest to oldest, then the rest by name.
func sortVersioned(instances []util.Instance) {
	sort.SliceStable(instances, func(i, j int) bool {
		a, b := "v"+instances[i].Folder, "v"+instances[j].Folder
		av, bv := semver.IsValid(a), semver.IsValid(b)
		switch {
		case av && bv:
			if c := semver.Compare(a, b); c != 0 {
				return c > 0
			}
		case av != bv:
			return av
		}
		return instances[i].Folder < instances[j].Folder
	})
}

// Resolve picks the root an install targets: the instance with the given id, else the
// default instance, else the first one found, else the bare base path.
func (l *Locator) Resolve(id string) (string, error) {
	instances := l.ListInstances()

	if id != "" {
		for _, instance := range instances {
			if instance.Id == id {
				return instance.Path, nil
			}
		}
		l.logger.Warn().Str("instanceId", id).Msg("Unknown instance, falling back to default")
	}

	for _, instance := range instances {
		if instance.Id == util.DefaultInstanceId {
			return instance.Path, nil
		}
	}
	if len(instances) > 0 {
		return instances[0].Path, nil
	}

	base, err := l.baseDir()
	if err != nil {
		if util.GetErrorCode(err) == util.ErrUnknown {
			return "", util.WrapError(err, util.ErrUnsupportedPlatform, "cannot resolve minecraft directory")
		}
		return "", err
	}
	return base, nil
}
