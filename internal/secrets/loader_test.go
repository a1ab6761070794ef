package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	secretFile := filepath.Join(dir, "token")
	if err := os.WriteFile(secretFile, []byte("  file-secret\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		expect  string
		wantErr bool
	}{
		{
			name:   "inline value",
			src:    Source{Name: "api token", Value: " inline-secret "},
			expect: "inline-secret",
		},
		{
			name:   "file takes precedence",
			src:    Source{Name: "api token", Value: "inline", File: secretFile},
			expect: "file-secret",
		},
		{
			name:    "empty file",
			src:     Source{Name: "api token", File: emptyFile},
			wantErr: true,
		},
		{
			name:    "missing file",
			src:     Source{Name: "api token", File: filepath.Join(dir, "nope")},
			wantErr: true,
		},
		{
			name:    "nothing configured",
			src:     Source{Name: "api token"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Load(tt.src)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
