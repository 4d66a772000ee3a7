package internal

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// fingerprintLimit bounds how much of a file is hashed. Hashing a prefix is
// enough for an equality check between two specific files and avoids reading
// multi-gigabyte videos end to end.
const fingerprintLimit = 1 << 20 // 1 MiB

// Fingerprint computes a SHA-256 digest over at most the first
// fingerprintLimit bytes of the file.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(f, fingerprintLimit)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// SameContent reports whether two files hold identical content. Sizes are
// compared first: a mismatch proves inequality without any hashing.
func SameContent(a, b string) (bool, error) {
	ia, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}

	ha, err := Fingerprint(a)
	if err != nil {
		return false, err
	}
	hb, err := Fingerprint(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
