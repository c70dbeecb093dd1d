package platform

import (
	"strings"
	"testing"
)

// clearPlatformEnv blanks every signal Detect reads so tests are isolated
// from the machine they run on.
func clearPlatformEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RAILWAY_ENVIRONMENT", "RAILWAY_VOLUME_MOUNT_PATH",
		"FLY_APP_NAME", "RENDER", "RENDER_DISK_PATH",
		"DYNO", "K_SERVICE", "GO_ENV", "APP_ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestDetectLocal(t *testing.T) {
	clearPlatformEnv(t)

	env := Detect("data/fitrank.db")

	if env.Platform != PlatformLocal {
		t.Errorf("Expected platform %s, got %s", PlatformLocal, env.Platform)
	}
	if !env.IsPersistent {
		t.Error("Expected local environment to be persistent")
	}
	if len(env.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", env.Warnings)
	}
	if env.RecommendedDB == "" || env.RecommendedBackupDir == "" {
		t.Error("Expected recommended paths to be set")
	}
}

func TestDetectRailway(t *testing.T) {
	t.Run("PathInsideMount", func(t *testing.T) {
		clearPlatformEnv(t)
		t.Setenv("RAILWAY_ENVIRONMENT", "production")
		t.Setenv("RAILWAY_VOLUME_MOUNT_PATH", "/data")

		env := Detect("/data/fitrank.db")

		if env.Platform != PlatformRailway {
			t.Errorf("Expected platform %s, got %s", PlatformRailway, env.Platform)
		}
		if !env.IsPersistent {
			t.Error("Expected persistent when path is inside the mount")
		}
		if len(env.Warnings) != 0 {
			t.Errorf("Expected no warnings, got %v", env.Warnings)
		}
		if env.Mount != "/data" {
			t.Errorf("Expected mount /data, got %s", env.Mount)
		}
	})

	t.Run("PathOutsideMount", func(t *testing.T) {
		clearPlatformEnv(t)
		t.Setenv("RAILWAY_ENVIRONMENT", "production")
		t.Setenv("RAILWAY_VOLUME_MOUNT_PATH", "/data")

		env := Detect("/app/fitrank.db")

		if env.IsPersistent {
			t.Error("Expected not persistent when path is outside the mount")
		}
		if len(env.Warnings) == 0 {
			t.Error("Expected a warning for a path outside the mount")
		}
		if env.RecommendedDB != "/data/fitrank.db" {
			t.Errorf("Expected recommendation under the mount, got %s", env.RecommendedDB)
		}
	})

	t.Run("NoVolume", func(t *testing.T) {
		clearPlatformEnv(t)
		t.Setenv("RAILWAY_ENVIRONMENT", "production")

		env := Detect("/app/fitrank.db")

		if env.Platform != PlatformRailway {
			t.Errorf("Expected platform %s, got %s", PlatformRailway, env.Platform)
		}
		if env.IsPersistent {
			t.Error("Expected not persistent without a volume")
		}
		if len(env.Warnings) == 0 {
			t.Error("Expected a warning without a volume")
		}
	})
}

func TestDetectFly(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("FLY_APP_NAME", "fitrank")

	env := Detect("/data/fitrank.db")

	if env.Platform != PlatformFly {
		t.Errorf("Expected platform %s, got %s", PlatformFly, env.Platform)
	}
	if !env.IsPersistent {
		t.Error("Expected persistent with the fly volume convention")
	}
}

func TestDetectRender(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("RENDER", "true")
	t.Setenv("RENDER_DISK_PATH", "/var/data")

	env := Detect("/srv/fitrank.db")

	if env.Platform != PlatformRender {
		t.Errorf("Expected platform %s, got %s", PlatformRender, env.Platform)
	}
	if env.IsPersistent {
		t.Error("Expected not persistent outside the disk path")
	}
	if len(env.Warnings) == 0 {
		t.Error("Expected a warning outside the disk path")
	}
}

func TestDetectEphemeralPlatforms(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		platform Platform
	}{
		{"Heroku", "DYNO", "web.1", PlatformHeroku},
		{"CloudRun", "K_SERVICE", "fitrank", PlatformCloudRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPlatformEnv(t)
			t.Setenv(tt.envKey, tt.envValue)

			env := Detect("/tmp/fitrank.db")

			if env.Platform != tt.platform {
				t.Errorf("Expected platform %s, got %s", tt.platform, env.Platform)
			}
			if env.IsPersistent {
				t.Error("Expected ephemeral platform to not be persistent")
			}
			if len(env.Warnings) == 0 {
				t.Error("Expected an ephemeral-disk warning")
			}
		})
	}
}

func TestDetectUnknownProduction(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("GO_ENV", "production")

	env := Detect("/srv/fitrank.db")

	if env.Platform != PlatformUnknownProduction {
		t.Errorf("Expected platform %s, got %s", PlatformUnknownProduction, env.Platform)
	}
	if env.IsPersistent {
		t.Error("Expected unknown production to assume ephemeral disk")
	}
	found := false
	for _, w := range env.Warnings {
		if strings.Contains(w, "unrecognized platform") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an unrecognized-platform warning, got %v", env.Warnings)
	}
}

func TestPathInside(t *testing.T) {
	tests := []struct {
		path  string
		mount string
		want  bool
	}{
		{"/data/fitrank.db", "/data", true},
		{"/data", "/data", true},
		{"/data/sub/fitrank.db", "/data", true},
		{"/database/fitrank.db", "/data", false},
		{"/app/fitrank.db", "/data", false},
		{"", "/data", false},
		{"/data/fitrank.db", "", false},
	}

	for _, tt := range tests {
		if got := pathInside(tt.path, tt.mount); got != tt.want {
			t.Errorf("pathInside(%q, %q) = %v, want %v", tt.path, tt.mount, got, tt.want)
		}
	}
}
