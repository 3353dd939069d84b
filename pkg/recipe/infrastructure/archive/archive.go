// Package archive exports package folders as lz4 compressed tarballs.
package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/recipes/pkg/recipe/application/service"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/packager"
)

const Extension = ".tar.lz4"

func NewArchiver(logger applogger.Logger) service.PackageArchiver {
	return &archiver{logger: logger}
}

type archiver struct {
	logger applogger.Logger
}

func (a archiver) Archive(ctx context.Context, packageFolder, out string) (int64, error) {
	info, err := packager.ReadInfo(packageFolder)
	if err != nil {
		return 0, err
	}
	if err = os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return 0, errors.Wrapf(err, "failed to create output folder for %v", out)
	}
	file, err := os.Create(out)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create %v", out)
	}
	err = write(ctx, file, packageFolder)
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(out)
		return 0, errors.Wrapf(err, "failed to archive %v", packageFolder)
	}
	if closeErr != nil {
		return 0, errors.Wrapf(closeErr, "failed to write %v", out)
	}
	stat, err := os.Stat(out)
	if err != nil {
		return 0, err
	}
	a.logger.Info(fmt.Sprintf("exported %v:%v to %v (%v)", info.Reference, info.PackageID, out, humanize.Bytes(uint64(stat.Size()))))
	return stat.Size(), nil
}

func write(ctx context.Context, w io.Writer, root string) error {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
		return err
	}
	tw := tar.NewWriter(zw)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			header.Name += "/"
		}
		if err = tw.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return err
	}
	if err = tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

// List returns the entry names of an exported archive.
func List(r io.Reader) ([]string, error) {
	tr := tar.NewReader(lz4.NewReader(r))
	var names []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		names = append(names, header.Name)
	}
}
