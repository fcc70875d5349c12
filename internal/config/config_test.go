package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "mongodb" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "mongodb")
	}
	if cfg.Hackathon.SweepInterval() != time.Minute {
		t.Errorf("SweepInterval() = %v, expected %v", cfg.Hackathon.SweepInterval(), time.Minute)
	}
	if GlobalConfig != cfg {
		t.Error("GlobalConfig should point at the loaded config")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "database:\n  driver: sqlite\n  dsn: test.db\nhackathon:\n  max_teams_per_problem: 3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Hackathon.MaxTeamsPerProblem != 3 {
		t.Errorf("MaxTeamsPerProblem = %d, expected 3", cfg.Hackathon.MaxTeamsPerProblem)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected default %q", cfg.Server.Port, "8080")
	}
	if cfg.Hackathon.StartConcurrency != 8 {
		t.Errorf("StartConcurrency = %d, expected default 8", cfg.Hackathon.StartConcurrency)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "postgres")
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("JWT.Secret = %q, expected %q", cfg.JWT.Secret, "from-env")
	}
	if !cfg.Email.Enabled || cfg.Email.Host != "smtp.example.com" || cfg.Email.Port != 2525 {
		t.Errorf("Email = %+v, expected enabled smtp.example.com:2525", cfg.Email)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://localhost:6379", "localhost:6379", "", 0},
		{"redis://:secret@redis:6380/2", "redis:6380", "secret", 2},
		{"redis://user:pw@10.0.0.1:6379/0", "10.0.0.1:6379", "pw", 0},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.parseRedisURL(tt.url)
			if cfg.Redis.Addr != tt.addr {
				t.Errorf("Addr = %q, expected %q", cfg.Redis.Addr, tt.addr)
			}
			if cfg.Redis.Password != tt.password {
				t.Errorf("Password = %q, expected %q", cfg.Redis.Password, tt.password)
			}
			if cfg.Redis.DB != tt.db {
				t.Errorf("DB = %d, expected %d", cfg.Redis.DB, tt.db)
			}
		})
	}
}

func TestHackathonConfig_Location(t *testing.T) {
	h := HackathonConfig{Timezone: "Not/AZone"}
	if h.Location() != time.UTC {
		t.Error("unknown timezone should fall back to UTC")
	}

	h.Timezone = "Asia/Kolkata"
	if got := h.Location().String(); got != "Asia/Kolkata" {
		t.Errorf("Location() = %q, expected %q", got, "Asia/Kolkata")
	}
}

func TestDatabaseConfig_Timeout(t *testing.T) {
	d := DatabaseConfig{}
	if d.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v, expected 5s", d.Timeout())
	}
	d.TimeoutSeconds = 2
	if d.Timeout() != 2*time.Second {
		t.Errorf("Timeout() = %v, expected 2s", d.Timeout())
	}
}
