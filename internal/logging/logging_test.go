package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLogDir(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		exeDir string
		want   string
	}{
		{"env wins", "/var/log/sprint", "/opt/bin", "/var/log/sprint"},
		{"next to binary", "", "/opt/bin", filepath.Join("/opt/bin", "logs")},
		{"relative fallback", "", "", "logs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOGS_FOLDER", tt.env)
			if got := resolveLogDir(tt.exeDir); got != tt.want {
				t.Errorf("resolveLogDir(%q) = %q, want %q", tt.exeDir, got, tt.want)
			}
		})
	}
}

func TestEnsureWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	if err := ensureWritable(dir); err != nil {
		t.Fatalf("ensureWritable() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Errorf("probe file should be removed, stat err = %v", err)
	}
}
