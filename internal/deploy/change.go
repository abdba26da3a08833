package deploy

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"
)

// Change is the verdict of comparing a source with its live copy.
type Change int

const (
	Unchanged Change = iota
	// Created means the live copy does not exist.
	Created
	// Resized means the sizes differ.
	Resized
	// Modified means the contents differ.
	Modified
)

func (c Change) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Created:
		return "new"
	case Resized:
		return "resized"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Compare decides whether src must be copied over dst. A missing or
// differently sized copy is always replaced; otherwise the contents are
// hashed. With trustMTime set, equal-size files whose modification times
// agree within tolerance are taken as unchanged without hashing.
func Compare(src, dst string, tolerance time.Duration, trustMTime bool) (Change, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return Unchanged, err
	}
	dstInfo, err := os.Stat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return Created, nil
	}
	if err != nil {
		return Unchanged, err
	}

	if srcInfo.Size() != dstInfo.Size() {
		return Resized, nil
	}

	if trustMTime {
		drift := srcInfo.ModTime().Sub(dstInfo.ModTime())
		if drift < 0 {
			drift = -drift
		}
		if drift <= tolerance {
			return Unchanged, nil
		}
	}

	srcSum, err := FileMD5(src)
	if err != nil {
		return Modified, nil
	}
	dstSum, err := FileMD5(dst)
	if err != nil || srcSum != dstSum {
		return Modified, nil
	}
	return Unchanged, nil
}

// FileMD5 returns the hex MD5 digest of a file.
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
