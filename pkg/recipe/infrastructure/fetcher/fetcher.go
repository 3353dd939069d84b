package fetcher

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/application/service"
)

func NewSourceFetcher(
	logger applogger.Logger,
	downloadFolder string,
	timeout time.Duration,
) service.SourceFetcher {
	return &sourceFetcher{
		logger:         logger,
		downloadFolder: downloadFolder,
		client:         &http.Client{Timeout: timeout},
	}
}

type sourceFetcher struct {
	logger         applogger.Logger
	downloadFolder string
	client         *http.Client
}

func (f sourceFetcher) Fetch(ctx context.Context, archive model.SourceArchive, buildFolder string) error {
	archivePath := filepath.Join(f.downloadFolder, archive.FileName)
	exist, err := f.exist(archivePath)
	if err != nil {
		return err
	}
	if !exist {
		if err = f.download(ctx, archive.URL, archivePath); err != nil {
			return err
		}
	}
	if err = verifySHA256(archivePath, archive.SHA256); err != nil {
		if removeErr := os.Remove(archivePath); removeErr != nil && !os.IsNotExist(removeErr) {
			f.logger.Error(removeErr, fmt.Sprintf("failed to remove %v", archivePath))
		}
		return err
	}

	target := filepath.Join(buildFolder, archive.Subfolder)
	if err = os.RemoveAll(target); err != nil {
		return errors.Wrapf(err, "failed to clean %v", target)
	}
	if err = os.RemoveAll(filepath.Join(buildFolder, archive.RootDir)); err != nil {
		return errors.Wrapf(err, "failed to clean %v", archive.RootDir)
	}
	if err = os.MkdirAll(buildFolder, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create build folder %v", buildFolder)
	}
	switch archive.Kind {
	case model.ArchiveTarGz:
		err = extractTarGz(archivePath, buildFolder)
	case model.ArchiveZip:
		err = extractZip(archivePath, buildFolder)
	default:
		err = fmt.Errorf("unknown archive kind %v", archive.Kind)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to extract %v", archive.FileName)
	}
	if err = os.Rename(filepath.Join(buildFolder, archive.RootDir), target); err != nil {
		return errors.Wrapf(err, "failed to rename %v to %v", archive.RootDir, archive.Subfolder)
	}
	for _, export := range archive.Exports {
		if err = copyFile(export, filepath.Join(target, filepath.Base(export))); err != nil {
			return errors.Wrapf(err, "failed to export %v", export)
		}
	}
	return nil
}

func (f sourceFetcher) exist(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (f sourceFetcher) download(ctx context.Context, url, path string) error {
	f.logger.Info(fmt.Sprintf("download %v...", url))
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create request for %v", url)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to download %v", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %v: unexpected status %v", url, resp.Status)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create download folder")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return errors.Wrap(err, "failed to create download file")
	}
	defer os.Remove(tmp.Name())
	n, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		return errors.Wrapf(err, "failed to download %v", url)
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "failed to write download file")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "failed to store download")
	}
	f.logger.Info(fmt.Sprintf("downloaded %v in %v", humanize.Bytes(uint64(n)), time.Since(start).String()))
	return nil
}

func verifySHA256(path, expected string) error {
	if expected == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err = io.Copy(hash, file); err != nil {
		return errors.Wrapf(err, "failed to hash %v", path)
	}
	actual := hex.EncodeToString(hash.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("sha256 mismatch for %v: expected %v, got %v", filepath.Base(path), expected, actual)
	}
	return nil
}

func extractTarGz(archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err = writeFile(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err = checkLink(dest, target, header.Linkname); err != nil {
				return err
			}
			if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err = os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func extractZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()
	for _, entry := range reader.File {
		target, err := safeJoin(dest, entry.Name)
		if err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return err
		}
		err = writeFile(target, rc, entry.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// safeJoin resolves an archive entry below dest. Entries that would be
// written through a symlink extracted earlier are rejected.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !within(dest, target) {
		return "", fmt.Errorf("archive entry %v escapes destination", name)
	}
	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return "", err
	}
	current := dest
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "." {
			continue
		}
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("archive entry %v is written through symlink %v", name, current)
		}
	}
	return target, nil
}

// checkLink accepts relative link targets that stay below dest and do not
// pass through other symlinks.
func checkLink(dest, target, linkname string) error {
	if linkname == "" || filepath.IsAbs(linkname) || filepath.VolumeName(linkname) != "" {
		return fmt.Errorf("symlink %v has unsafe target %q", target, linkname)
	}
	current := filepath.Dir(target)
	for _, part := range strings.Split(filepath.ToSlash(linkname), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
		default:
			current = filepath.Join(current, part)
		}
		if !within(dest, current) {
			return fmt.Errorf("symlink %v points outside destination", target)
		}
		info, err := os.Lstat(current)
		if err == nil && info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("symlink %v points through symlink %v", target, current)
		}
	}
	return nil
}

func within(dest, path string) bool {
	rel, err := filepath.Rel(dest, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	// nolint:gosec
	if _, err = io.Copy(file, r); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func copyFile(src, dst string) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	return writeFile(dst, file, info.Mode().Perm())
}
