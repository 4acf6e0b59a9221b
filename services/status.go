package services

import (
	"runtime"

	"github.com/mrnavastar/modman-agent/util"
)

// Status is the read-only report served to the web app. Instances are rediscovered each time.
func (i *Installer) Status(version string, deviceId string) util.Status {
	return util.Status{
		Ok:        true,
		Version:   version,
		DeviceId:  deviceId,
		OS:        runtime.GOOS,
		BasePath:  i.locator.BasePath(),
		Instances: i.locator.ListInstances(),
	}
}
