package fileutils

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/mrnavastar/modman-agent/logging"
	"github.com/zalando/go-keyring"
)

const (
	keyringService     = "modman"
	keyringUser        = "dot_minecraft"
	keyringIdentityKey = "device_identity"
)

// Identity is the token the web app uses to recognise this machine across restarts.
type Identity struct {
	DeviceId  string    `json:"deviceId"`
	CreatedAt time.Time `json:"createdAt"`
}

// IdentityPath is $XDG_CONFIG_HOME/modman-agent/device.json.
func IdentityPath() string {
	return filepath.Join(xdg.ConfigHome, logging.AppDirName, "device.json")
}

// LoadOrCreateIdentity reads the identity stored at path. When the file is missing,
// unreadable or holds no id, the copy backed up in the OS keyring is restored, and only
// when that is gone too a new identity is generated. When storing fails the identity is
// still returned alongside the error so the process can keep running.
func LoadOrCreateIdentity(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if id, err := parseIdentity(data); err == nil {
			return id, nil
		}
	}

	if backup, err := keyring.Get(keyringService, keyringIdentityKey); err == nil {
		if id, err := parseIdentity([]byte(backup)); err == nil {
			return id, writeIdentity(path, id)
		}
	}

	id := Identity{DeviceId: uuid.NewString(), CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if data, err := json.Marshal(id); err == nil {
		// no keyring on headless systems; the file alone still works
		_ = keyring.Set(keyringService, keyringIdentityKey, string(data))
	}
	return id, writeIdentity(path, id)
}

func parseIdentity(data []byte) (Identity, error) {
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(id.DeviceId) == "" {
		return Identity{}, errors.New("identity has no device id")
	}
	return id, nil
}

func writeIdentity(path string, id Identity) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(id, "", " ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SetDotMinecraft remembers a custom .minecraft location in the OS keyring.
func SetDotMinecraft(dotMinecraft string) error {
	return keyring.Set(keyringService, keyringUser, dotMinecraft)
}

// DotMinecraftOverride returns the location saved by SetDotMinecraft, or "" when none was saved.
func DotMinecraftOverride() (string, error) {
	dir, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return dir, nil
}
