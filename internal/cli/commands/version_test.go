package commands

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand_BuildInfo(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want []string
	}{
		{
			name: "stamped build",
			info: BuildInfo{Version: "1.2.3", BuildDate: "2026-01-31", GitCommit: "a1b2c3d"},
			want: []string{"supermatrix v1.2.3\n", "commit:      a1b2c3d\n", "built:       2026-01-31\n"},
		},
		{
			name: "unstamped build",
			info: BuildInfo{Version: "dev"},
			want: []string{"supermatrix vdev\n", "commit:      unknown\n", "built:       unknown\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewVersionCommand(tt.info))
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			assert.Contains(t, out, runtime.Version())
			assert.Contains(t, out, "6dso")
		})
	}
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	_, err := execute(t, NewVersionCommand(BuildInfo{Version: "1.0.0"}), "extra")
	assert.Error(t, err)
}
