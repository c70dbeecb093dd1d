// Package platform infers the deployment environment from process
// environment variables and derives database tuning settings from it.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Platform identifies the hosting platform the process runs on.
type Platform string

const (
	PlatformLocal             Platform = "local"
	PlatformRailway           Platform = "railway"
	PlatformFly               Platform = "fly"
	PlatformRender            Platform = "render"
	PlatformHeroku            Platform = "heroku"
	PlatformCloudRun          Platform = "cloud-run"
	PlatformUnknownProduction Platform = "unknown-production"
)

// Environment describes the deployment environment for this process.
// It is computed once at startup by Detect and passed by value to every
// component that needs it; it is never mutated afterward.
type Environment struct {
	Platform             Platform
	IsPersistent         bool
	Mount                string // persistent-disk mount point, when the platform offers one
	RecommendedDB        string
	RecommendedBackupDir string
	Warnings             []string
}

// Detect infers the deployment environment from process environment
// variables. dbPath is the configured database path; when it does not match
// the platform's persistent-storage convention a warning is appended and
// IsPersistent is false. Detect never fails.
func Detect(dbPath string) Environment {
	if mount := os.Getenv("RAILWAY_VOLUME_MOUNT_PATH"); os.Getenv("RAILWAY_ENVIRONMENT") != "" || mount != "" {
		return detectMounted(PlatformRailway, mount, dbPath)
	}

	if os.Getenv("FLY_APP_NAME") != "" {
		return detectMounted(PlatformFly, "/data", dbPath)
	}

	if os.Getenv("RENDER") != "" {
		mount := os.Getenv("RENDER_DISK_PATH")
		if mount == "" {
			mount = "/var/data"
		}
		return detectMounted(PlatformRender, mount, dbPath)
	}

	if os.Getenv("DYNO") != "" {
		return detectEphemeral(PlatformHeroku)
	}

	if os.Getenv("K_SERVICE") != "" {
		return detectEphemeral(PlatformCloudRun)
	}

	if isProductionEnv() {
		env := detectEphemeral(PlatformUnknownProduction)
		env.Warnings = append(env.Warnings,
			"production run mode on an unrecognized platform; assuming the local disk does not survive a redeploy")
		return env
	}

	// Local development: full filesystem support, assume persistent.
	return Environment{
		Platform:             PlatformLocal,
		IsPersistent:         true,
		RecommendedDB:        filepath.Join("data", "fitrank.db"),
		RecommendedBackupDir: filepath.Join("data", "backups"),
	}
}

// detectMounted handles platforms that offer a dedicated persistent-disk
// mount. The environment counts as persistent only when the mount exists
// and the configured database path points into it.
func detectMounted(p Platform, mount, dbPath string) Environment {
	env := Environment{
		Platform: p,
	}

	if mount == "" {
		env.IsPersistent = false
		env.RecommendedDB = filepath.Join("/data", "fitrank.db")
		env.RecommendedBackupDir = filepath.Join("/data", "backups")
		env.Warnings = append(env.Warnings,
			fmt.Sprintf("%s detected without a persistent volume; data will not survive a redeploy", p))
		return env
	}

	env.Mount = filepath.Clean(mount)
	env.RecommendedDB = filepath.Join(mount, "fitrank.db")
	env.RecommendedBackupDir = filepath.Join(mount, "backups")

	if pathInside(dbPath, mount) {
		env.IsPersistent = true
	} else {
		env.IsPersistent = false
		env.Warnings = append(env.Warnings,
			fmt.Sprintf("database path %q is outside the persistent mount %q; data will not survive a redeploy (move it to %s)",
				dbPath, mount, env.RecommendedDB))
	}

	return env
}

// detectEphemeral handles platforms whose local disk never survives a
// redeploy. Backups still go to the local disk so the in-process failsafe
// can use them after an application restart within the same instance.
func detectEphemeral(p Platform) Environment {
	return Environment{
		Platform:             p,
		IsPersistent:         false,
		RecommendedDB:        filepath.Join("/tmp", "fitrank.db"),
		RecommendedBackupDir: filepath.Join("/tmp", "fitrank-backups"),
		Warnings: []string{
			fmt.Sprintf("%s provides ephemeral disk only; committed data is lost on every redeploy", p),
		},
	}
}

// pathInside reports whether path is mount itself or located under it.
func pathInside(path, mount string) bool {
	if path == "" || mount == "" {
		return false
	}
	path = filepath.Clean(path)
	mount = filepath.Clean(mount)
	if path == mount {
		return true
	}
	return strings.HasPrefix(path, mount+string(filepath.Separator))
}

func isProductionEnv() bool {
	for _, key := range []string{"GO_ENV", "APP_ENV"} {
		if strings.EqualFold(os.Getenv(key), "production") {
			return true
		}
	}
	return false
}
