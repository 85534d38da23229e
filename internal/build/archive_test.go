package build

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/harshul/phpack/internal/apperr"
	"github.com/harshul/phpack/internal/blueprint"
)

// readArchive returns entry name to contents (empty for directories).
func readArchive(t *testing.T, path string, format ArchiveFormat) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var r io.Reader
	switch format {
	case ArchiveXZ:
		r, err = xz.NewReader(f)
		require.NoError(t, err)
	default:
		dec, err := zstd.NewReader(f)
		require.NoError(t, err)
		defer dec.Close()
		r = dec
	}

	entries := map[string]string{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(body)
	}
	return entries
}

func TestArchive(t *testing.T) {
	for _, format := range []ArchiveFormat{ArchiveZstd, ArchiveXZ} {
		t.Run(string(format), func(t *testing.T) {
			p, base := fixture(t, nil, nil)
			cfg := config(blueprint.LinuxX64, blueprint.WindowsX64)
			cfg.OutputDir = filepath.Join(base, "dist")

			res, err := p.Build(context.Background(), "demo", cfg)
			require.NoError(t, err)

			archives, err := p.Archive(context.Background(), res, cfg, format)
			require.NoError(t, err)
			require.Len(t, archives, 2)

			path := archives[blueprint.LinuxX64]
			assert.Equal(t, filepath.Join(base, "dist", "Shop-2.1.0-linux-x64.tar."+string(format)), path)

			entries := readArchive(t, path, format)
			assert.Contains(t, entries["Shop"], "php -S localhost:8080 -t app")
			assert.Equal(t, "<?php echo 'hi';", entries["app/public/index.php"])
			assert.Contains(t, entries, "app/storage/logs/")
			assert.Contains(t, entries["runtime/php.conf"], "version = 8.3.4")
			assert.NotContains(t, entries, "Shop.exe")

			win := readArchive(t, archives[blueprint.WindowsX64], format)
			assert.Contains(t, win, "Shop.exe")
		})
	}
}

func TestArchiveMissingLauncher(t *testing.T) {
	p, base := fixture(t, nil, nil)
	cfg := config(blueprint.LinuxX64)
	cfg.OutputDir = filepath.Join(base, "dist")

	res, err := p.Build(context.Background(), "demo", cfg)
	require.NoError(t, err)

	cfg.TargetPlatforms = append(cfg.TargetPlatforms, blueprint.MacOSArm64)
	_, err = p.Archive(context.Background(), res, cfg, ArchiveZstd)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "err = %v", err)
}

func TestParseArchiveFormat(t *testing.T) {
	f, err := ParseArchiveFormat("xz")
	require.NoError(t, err)
	assert.Equal(t, ArchiveXZ, f)

	_, err = ParseArchiveFormat("zip")
	assert.True(t, errors.Is(err, apperr.ErrInvalidConfig))
}
