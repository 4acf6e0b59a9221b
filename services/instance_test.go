package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrnavastar/modman-agent/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedBase(dir string) func() (string, error) {
	return func() (string, error) { return dir, nil }
}

func noBase() (string, error) {
	return "", util.NewError(util.ErrUnsupportedPlatform, "unsupported platform \"plan9\"")
}

func TestPlatformMinecraftDir(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		home    string
		appData string
		want    string
		wantErr bool
	}{
		{"windows appdata", "windows", `C:\Users\steve`, `C:\Users\steve\AppData\Roaming`, filepath.Join(`C:\Users\steve\AppData\Roaming`, ".minecraft"), false},
		{"windows no appdata", "windows", "/home/steve", "", filepath.Join("/home/steve", "AppData", "Roaming", ".minecraft"), false},
		{"darwin", "darwin", "/Users/steve", "", filepath.Join("/Users/steve", "Library", "Application Support", "minecraft"), false},
		{"linux", "linux", "/home/steve", "", filepath.Join("/home/steve", ".minecraft"), false},
		{"freebsd", "freebsd", "/home/steve", "", filepath.Join("/home/steve", ".minecraft"), false},
		{"linux without home", "linux", "", "", "", true},
		{"unknown os", "plan9", "/usr/glenda", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlatformMinecraftDir(tt.goos, tt.home, tt.appData)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, util.IsErrorCode(err, util.ErrUnsupportedPlatform))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultBaseDirPrefersConfigured(t *testing.T) {
	dir, err := DefaultBaseDir("/srv/minecraft", zerolog.Nop())()
	require.NoError(t, err)
	assert.Equal(t, "/srv/minecraft", dir)
}

func makeVersions(t *testing.T, base string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(base, "versions", name), 0755))
	}
}

func TestListInstances(t *testing.T) {
	base := t.TempDir()
	makeVersions(t, base, "1.19.2", "fabric-loader-0.15.7-1.20.1", "1.20.1", "1.8.9")
	require.NoError(t, os.WriteFile(filepath.Join(base, "versions", "notes.txt"), []byte("x"), 0644))

	profiles := `{"profiles": {"p1": {"name": "Modded 1.20.1", "gameDir": "` +
		filepath.ToSlash(filepath.Join(base, "versions", "1.20.1")) + `"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(base, "launcher_profiles.json"), []byte(profiles), 0644))

	instances := NewLocator(fixedBase(base), zerolog.Nop()).ListInstances()
	require.Len(t, instances, 5)

	assert.Equal(t, util.Instance{Id: "default", Name: "Default (.minecraft)", Path: base, Kind: util.KindDefault}, instances[0])

	var ids []string
	for _, instance := range instances[1:] {
		ids = append(ids, instance.Id)
		assert.Equal(t, util.KindVersioned, instance.Kind)
		assert.Equal(t, filepath.Join(base, "versions", instance.Folder), instance.Path)
	}
	assert.Equal(t, []string{"ver_1_20_1", "ver_1_19_2", "ver_1_8_9", "ver_fabric-loader-0_15_7-1_20_1"}, ids)

	assert.Equal(t, "Modded 1.20.1", instances[1].Name)
	assert.Equal(t, "1.20.1", instances[1].Folder)
	assert.Equal(t, "1.19.2", instances[2].Name)
}

func TestListInstancesUniqueIds(t *testing.T) {
	base := t.TempDir()
	makeVersions(t, base, "1.20.1", "1.20.2", "snapshot 24w14a", "forge-47.2.0")

	seen := make(map[string]bool)
	for _, instance := range NewLocator(fixedBase(base), zerolog.Nop()).ListInstances() {
		assert.False(t, seen[instance.Id], instance.Id)
		seen[instance.Id] = true
	}
}

func TestListInstancesDegrades(t *testing.T) {
	t.Run("no versions folder", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), ".minecraft")
		instances := NewLocator(fixedBase(base), zerolog.Nop()).ListInstances()
		require.Len(t, instances, 1)
		assert.Equal(t, util.DefaultInstanceId, instances[0].Id)
	})

	t.Run("unsupported platform", func(t *testing.T) {
		l := NewLocator(noBase, zerolog.Nop())
		assert.Empty(t, l.ListInstances())
		assert.Equal(t, "", l.BasePath())
	})
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	makeVersions(t, base, "1.20.1")
	l := NewLocator(fixedBase(base), zerolog.Nop())

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"no selector", "", base},
		{"default", "default", base},
		{"versioned", "ver_1_20_1", filepath.Join(base, "versions", "1.20.1")},
		{"unknown falls back to default", "ver_9_9_9", base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := l.Resolve(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, root)
		})
	}
}

func TestResolveWithoutPlatform(t *testing.T) {
	_, err := NewLocator(noBase, zerolog.Nop()).Resolve("")
	require.Error(t, err)
	assert.True(t, util.IsErrorCode(err, util.ErrUnsupportedPlatform))

	_, err = NewLocator(func() (string, error) { return "", errors.New("boom") }, zerolog.Nop()).Resolve("default")
	assert.True(t, util.IsErrorCode(err, util.ErrUnsupportedPlatform))
}
