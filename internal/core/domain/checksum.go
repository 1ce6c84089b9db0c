package domain

import (
	"crypto/md5"  //nolint:gosec // md5 is what CurseForge publishes; used for integrity matching, not security
	"crypto/sha1" //nolint:gosec // sha1 is published by both hubs; same rationale
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"go.trai.ch/zerr"
)

// Checksum strings carry their algorithm as a prefix: "algo:hex". Supported
// algorithms follow what the platforms publish: sha512 and sha1 (Modrinth),
// md5 and sha1 (CurseForge), and sha256 for first-use-trust hashes the engine
// computes itself.
const (
	AlgoSHA512 = "sha512"
	AlgoSHA256 = "sha256"
	AlgoSHA1   = "sha1"
	AlgoMD5    = "md5"
)

// FormatChecksum builds an "algo:hex" checksum string.
func FormatChecksum(algo string, sum []byte) string {
	return algo + ":" + hex.EncodeToString(sum)
}

// ParseChecksum splits an "algo:hex" checksum string and validates the
// algorithm.
func ParseChecksum(checksum string) (algo, hexSum string, err error) {
	algo, hexSum, ok := strings.Cut(checksum, ":")
	if !ok || hexSum == "" {
		return "", "", zerr.With(zerr.Wrap(ErrInvalidChecksum, "missing algo prefix"), "checksum", checksum)
	}
	if _, err := NewChecksumHash(algo); err != nil {
		return "", "", err
	}
	return algo, strings.ToLower(hexSum), nil
}

// NewChecksumHash returns a fresh hash.Hash for the named algorithm.
func NewChecksumHash(algo string) (hash.Hash, error) {
	switch algo {
	case AlgoSHA512:
		return sha512.New(), nil
	case AlgoSHA256:
		return sha256.New(), nil
	case AlgoSHA1:
		return sha1.New(), nil //nolint:gosec // see package comment above
	case AlgoMD5:
		return md5.New(), nil //nolint:gosec // see package comment above
	default:
		return nil, zerr.With(zerr.Wrap(ErrInvalidChecksum, "unsupported algorithm"), "algorithm", algo)
	}
}

// ComputeChecksum hashes r with the named algorithm and returns an
// "algo:hex" string.
func ComputeChecksum(r io.Reader, algo string) (string, error) {
	h, err := NewChecksumHash(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", zerr.Wrap(err, "failed to hash content")
	}
	return FormatChecksum(algo, h.Sum(nil)), nil
}

// ComputeFileChecksum hashes the file at path with the named algorithm.
func ComputeFileChecksum(path, algo string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is controlled by caller
	if err != nil {
		return "", zerr.Wrap(err, "failed to open file for hashing")
	}
	defer f.Close() //nolint:errcheck // best effort close in defer

	return ComputeChecksum(f, algo)
}

// VerifyFile recomputes the file's checksum and compares it against the
// expected "algo:hex" value. A mismatch is ErrIntegrityViolation.
func VerifyFile(path, expected string) error {
	algo, hexSum, err := ParseChecksum(expected)
	if err != nil {
		return err
	}

	actual, err := ComputeFileChecksum(path, algo)
	if err != nil {
		return err
	}

	if actual != algo+":"+hexSum {
		violation := zerr.With(zerr.Wrap(ErrIntegrityViolation, "checksum mismatch"), "path", path)
		violation = zerr.With(violation, "expected", expected)
		return zerr.With(violation, "actual", actual)
	}
	return nil
}
