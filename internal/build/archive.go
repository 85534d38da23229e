package build

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/harshul/phpack/internal/apperr"
	"github.com/harshul/phpack/internal/blueprint"
)

// ArchiveFormat selects the compression of bundle archives.
type ArchiveFormat string

const (
	ArchiveZstd ArchiveFormat = "zst"
	ArchiveXZ   ArchiveFormat = "xz"
)

// ParseArchiveFormat accepts "zst" and "xz".
func ParseArchiveFormat(s string) (ArchiveFormat, error) {
	switch f := ArchiveFormat(s); f {
	case ArchiveZstd, ArchiveXZ:
		return f, nil
	}
	return "", apperr.New(apperr.InvalidConfig, "archive", "unknown archive format %q (want zst or xz)", s)
}

// ArchiveName is the file name of the bundle for platform.
func ArchiveName(cfg blueprint.BuildConfig, platform string, format ArchiveFormat) string {
	return fmt.Sprintf("%s-%s-%s.tar.%s", cfg.AppName, cfg.AppVersion, platform, format)
}

// Archive packs each platform's launcher next to app/ and runtime/ into
// <output_dir>/<name>-<version>-<platform>.tar.<format>, so the launcher's
// relative "-t app" resolves once the archive is unpacked. It returns the
// archive path per platform written so far.
func (p *Pipeline) Archive(ctx context.Context, res *Result, cfg blueprint.BuildConfig, format ArchiveFormat) (map[string]string, error) {
	const op = "archive"

	unlock := p.locks.Lock(res.ProjectID)
	defer unlock()

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = blueprint.Defaults().OutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.WriteFailed, op, err)
	}

	archives := make(map[string]string, len(cfg.TargetPlatforms))
	for _, platform := range cfg.TargetPlatforms {
		launcher, ok := res.Launchers[platform]
		if !ok {
			return archives, apperr.New(apperr.NotFound, op, "no launcher for %s", platform)
		}
		path := filepath.Join(outDir, ArchiveName(cfg, platform, format))
		if err := writeArchive(ctx, path, format, res.Root, launcher); err != nil {
			_ = os.Remove(path)
			return archives, apperr.Wrap(apperr.WriteFailed, op, err)
		}
		p.logger.Info("archive written", "project", res.ProjectID, "platform", platform, "path", path)
		archives[platform] = path
	}
	return archives, nil
}

func writeArchive(ctx context.Context, path string, format ArchiveFormat, root, launcher string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	cw, err := compressor(f, format)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)

	if err := addPath(ctx, tw, launcher, filepath.Base(launcher)); err != nil {
		return err
	}
	for _, dir := range []string{AppDir, RuntimeDir} {
		if err := addPath(ctx, tw, filepath.Join(root, dir), dir); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return cw.Close()
}

func compressor(w io.Writer, format ArchiveFormat) (io.WriteCloser, error) {
	if format == ArchiveXZ {
		return xz.NewWriter(w)
	}
	return zstd.NewWriter(w)
}

// addPath writes src (a file or a tree) into tw under name.
func addPath(ctx context.Context, tw *tar.Writer, src, name string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode()
		if !mode.IsRegular() && !mode.IsDir() && mode&fs.ModeSymlink == 0 {
			return nil
		}

		var link string
		if mode&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(name, rel))
		if mode.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !mode.IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}
