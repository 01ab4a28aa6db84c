package object

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/multierr"
)

// VerifySummary reports the outcome of Store.Verify.
type VerifySummary struct {
	LooseObjects int
	Blobs        int
	Trees        int
	Commits      int
}

// Verify re-reads every loose object, checks that its payload length
// matches its header and that it still hashes to its file name.
func (s *Store) Verify() (*VerifySummary, error) {
	report := &VerifySummary{}

	hashes, err := s.ListObjects()
	if err != nil {
		return nil, err
	}
	for _, h := range hashes {
		objType, err := s.verifyObject(h)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		switch objType {
		case TypeBlob:
			report.Blobs++
		case TypeTree:
			report.Trees++
		case TypeCommit:
			report.Commits++
		}
		report.LooseObjects++
	}
	return report, nil
}

func (s *Store) verifyObject(h Hash) (objType ObjectType, err error) {
	obj, err := s.Open(h)
	if err != nil {
		return "", err
	}
	defer func() {
		err = multierr.Append(err, obj.Close())
	}()

	hasher := newHasher()
	fmt.Fprintf(hasher, "%s %d\x00", obj.Type, obj.Size)
	if _, err := io.Copy(hasher, obj); err != nil {
		return "", err
	}
	extra, err := obj.hasTrailingData()
	if err != nil {
		return "", err
	}
	if extra {
		return "", &SizeMismatchError{Declared: obj.Size, Actual: obj.Size + 1}
	}
	actual, err := sumHasher(hasher)
	if err != nil {
		return "", err
	}
	if actual != h {
		return "", fmt.Errorf("hash mismatch (computed %s)", actual)
	}
	return obj.Type, nil
}

// ListObjects returns the hashes of all loose objects in sorted order.
func (s *Store) ListObjects() ([]Hash, error) {
	fanoutDirs, err := os.ReadDir(s.objectsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read objects dir: %w", err)
	}

	hashes := make([]Hash, 0)
	for _, fanoutDir := range fanoutDirs {
		if !fanoutDir.IsDir() {
			continue
		}
		prefix := fanoutDir.Name()
		if !isHexHashComponent(prefix, 2) {
			continue
		}

		objectEntries, err := os.ReadDir(filepath.Join(s.objectsDir(), prefix))
		if err != nil {
			return nil, fmt.Errorf("read objects fanout %s: %w", prefix, err)
		}
		for _, objectEntry := range objectEntries {
			if objectEntry.IsDir() {
				continue
			}
			suffix := objectEntry.Name()
			if !isHexHashComponent(suffix, 2*HashSize-2) {
				continue
			}
			h, err := ParseHash(prefix + suffix)
			if err != nil {
				continue
			}
			hashes = append(hashes, h)
		}
	}

	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].String() < hashes[j].String()
	})
	return hashes, nil
}

func isHexHashComponent(s string, expectedLen int) bool {
	if len(s) != expectedLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
