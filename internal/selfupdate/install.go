package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrDevBuild      = errors.New("cannot update a development build")
	ErrAlreadyLatest = errors.New("already running the latest version")
	ErrChecksum      = errors.New("checksum mismatch")
)

type UpdateInput struct {
	CurrentVersion string

	// TargetVersion pins a release tag; empty means the latest release.
	TargetVersion string
}

// UpdateProgress is reported once per stage: check, download, verify,
// unpack, install and done.
type UpdateProgress struct {
	Stage   string
	Message string
}

// Update downloads the release archive for this platform, verifies it
// against the release's checksums.txt and replaces the running binary.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, report func(UpdateProgress)) error {
	if report == nil {
		report = func(UpdateProgress) {}
	}
	if input.CurrentVersion == "" || input.CurrentVersion == "(devel)" {
		return ErrDevBuild
	}

	tag := input.TargetVersion
	if tag == "" {
		report(UpdateProgress{"check", "Looking for a newer release..."})
		res, err := c.Check(ctx, &CheckInput{Version: input.CurrentVersion})
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !res.UpdateAvailable {
			return ErrAlreadyLatest
		}
		tag = res.LatestVersion
	}

	a, err := platformAsset(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}
	download := func(file string) string {
		return strings.TrimRight(c.downloadBaseURL, "/") + "/" + path.Join(c.owner, c.repo, "releases/download", tag, file)
	}

	report(UpdateProgress{"download", "Downloading lessonplay " + tag + "..."})
	archive, err := c.get(ctx, download(a.Name))
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}

	report(UpdateProgress{"verify", "Verifying checksum..."})
	sums, err := c.get(ctx, download("checksums.txt"))
	if err != nil {
		return fmt.Errorf("download checksums: %w", err)
	}
	want, ok := checksums(sums)[a.Name]
	if !ok {
		return fmt.Errorf("%w: %s is not listed in checksums.txt", ErrChecksum, a.Name)
	}
	if err := matchSHA256(archive, want); err != nil {
		return err
	}

	report(UpdateProgress{"unpack", "Unpacking..."})
	bin, err := a.unpack(archive)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", a.Name, err)
	}

	report(UpdateProgress{"install", "Installing..."})
	target, err := c.execPath()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if err := replaceExecutable(target, bin); err != nil {
		return fmt.Errorf("install: %w", err)
	}

	report(UpdateProgress{"done", "Updated to " + tag})
	return nil
}

// asset is the release archive built for one platform.
type asset struct {
	Name   string
	Binary string
	Zip    bool
}

var releaseArch = map[string]string{
	"amd64": "x86_64",
	"arm64": "arm64",
	"386":   "i386",
}

// platformAsset names the archive goreleaser publishes for goos/goarch.
// macOS ships a single universal archive.
func platformAsset(goos, goarch string) (asset, error) {
	if goos == "darwin" {
		return asset{Name: "lessonplay_Darwin_all.tar.gz", Binary: "lessonplay"}, nil
	}
	arch, ok := releaseArch[goarch]
	if !ok {
		return asset{}, fmt.Errorf("no release for architecture %s", goarch)
	}
	switch goos {
	case "linux":
		return asset{Name: "lessonplay_Linux_" + arch + ".tar.gz", Binary: "lessonplay"}, nil
	case "windows":
		return asset{Name: "lessonplay_Windows_" + arch + ".zip", Binary: "lessonplay.exe", Zip: true}, nil
	}
	return asset{}, fmt.Errorf("no release for operating system %s", goos)
}

// unpack returns the executable from the archive.
func (a asset) unpack(data []byte) ([]byte, error) {
	if a.Zip {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		for _, f := range zr.File {
			if path.Base(f.Name) != a.Binary {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
		return nil, fmt.Errorf("%s not found in archive", a.Binary)
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s not found in archive", a.Binary)
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag == tar.TypeReg && path.Base(hdr.Name) == a.Binary {
			return io.ReadAll(tr)
		}
	}
}

// checksums parses goreleaser's "<sha256>  <file>" lines.
func checksums(data []byte) map[string]string {
	out := make(map[string]string)
	for line := range strings.Lines(string(data)) {
		if f := strings.Fields(line); len(f) == 2 {
			out[f[1]] = f[0]
		}
	}
	return out
}

func matchSHA256(data []byte, wantHex string) error {
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, wantHex) {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksum, wantHex, got)
	}
	return nil
}

// replaceExecutable writes bin next to target and renames it over target,
// keeping target's permissions.
func replaceExecutable(target string, bin []byte) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".lessonplay-update-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(bin); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (c *Checker) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
