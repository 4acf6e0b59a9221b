package util

import "strings"

type InstanceKind string

const (
	KindDefault   InstanceKind = "default"
	KindVersioned InstanceKind = "versioned"
)

// DefaultInstanceId marks the platform-standard .minecraft installation.
const DefaultInstanceId = "default"

// Instance is a game directory that mods, configs and resource packs can be placed into.
// Instances are discovered on every call and never stored.
type Instance struct {
	Id     string       `json:"id"`
	Name   string       `json:"name"`
	Path   string       `json:"path"`
	Kind   InstanceKind `json:"type"`
	Folder string       `json:"folder,omitempty"`
}

type Mode string

const (
	ModePatch Mode = "patch"
	ModeFull  Mode = "full"
)

// ParseMode maps anything but "full" to patch, so a typo never wipes a directory.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeFull)) {
		return ModeFull
	}
	return ModePatch
}

type ItemType string

const (
	ItemMod          ItemType = "mod"
	ItemResourcePack ItemType = "resourcepack"
	ItemConfig       ItemType = "config"
)

// Subdirectories wiped by a full install, in the order they are cleared.
var ResetDirs = []string{"mods", "config", "resourcepacks"}

// Dir returns the instance subdirectory an item of this type lands in.
func (t ItemType) Dir() string {
	switch ItemType(strings.ToLower(string(t))) {
	case ItemResourcePack:
		return "resourcepacks"
	case ItemConfig:
		return "config"
	default:
		return "mods"
	}
}

type InstallItem struct {
	Type     ItemType `json:"type"`
	Url      string   `json:"url"`
	FileName string   `json:"fileName"`
}

type InstallRequest struct {
	Mode       Mode          `json:"mode"`
	AutoClose  bool          `json:"autoClose"`
	InstanceId string        `json:"instanceId,omitempty"`
	TargetPath string        `json:"targetPath,omitempty"`
	Items      []InstallItem `json:"items"`
}

// ArchiveRequest is the legacy whole-modpack install: one zip extracted over the base directory.
type ArchiveRequest struct {
	Url       string `json:"url"`
	Mode      Mode   `json:"mode"`
	AutoClose bool   `json:"autoClose"`
}

type Status struct {
	Ok        bool       `json:"ok"`
	Version   string     `json:"version"`
	DeviceId  string     `json:"deviceId"`
	OS        string     `json:"os"`
	BasePath  string     `json:"basePath"`
	Instances []Instance `json:"instances"`
}
