package domain

import (
	"strings"
	"unicode/utf8"
)

// HashAlgorithm is the STIX hash property label, e.g. 'SHA-256'.
type HashAlgorithm string

const (
	HashUnknown HashAlgorithm = ""
	HashMD5     HashAlgorithm = "MD5"
	HashSHA1    HashAlgorithm = "SHA-1"
	HashSHA256  HashAlgorithm = "SHA-256"
	HashSHA512  HashAlgorithm = "SHA-512"
)

type HashDescriptor struct {
	Algorithm HashAlgorithm
	Digest    string
}

// Usable reports whether the descriptor can back a hash pattern.
func (h HashDescriptor) Usable() bool {
	return h.Algorithm != HashUnknown && h.Digest != ""
}

// labelRules are checked in order; the first substring hit wins.
var labelRules = []struct {
	needles   []string
	algorithm HashAlgorithm
}{
	{[]string{"md5"}, HashMD5},
	{[]string{"sha1"}, HashSHA1},
	{[]string{"sha256", "sha-256"}, HashSHA256},
	{[]string{"sha512", "sha-512"}, HashSHA512},
}

// HashAlgorithmFromLabel classifies a free-form type label such as "SHA256"
// or "File hash (md5)".
func HashAlgorithmFromLabel(label string) HashAlgorithm {
	l := strings.ToLower(label)
	for _, rule := range labelRules {
		for _, needle := range rule.needles {
			if strings.Contains(l, needle) {
				return rule.algorithm
			}
		}
	}
	return HashUnknown
}

// HashAlgorithmFromLength guesses the algorithm from digest length alone.
// 128-character digests are not classified: the label is the only way to
// reach SHA-512.
func HashAlgorithmFromLength(digest string) HashAlgorithm {
	switch utf8.RuneCountInString(digest) {
	case 32:
		return HashMD5
	case 40:
		return HashSHA1
	case 64:
		return HashSHA256
	default:
		return HashUnknown
	}
}

// InferHash applies the label first and falls back to the digest length.
func InferHash(typeLabel, digest string) HashDescriptor {
	algo := HashAlgorithmFromLabel(typeLabel)
	if algo == HashUnknown && digest != "" {
		algo = HashAlgorithmFromLength(digest)
	}
	return HashDescriptor{Algorithm: algo, Digest: digest}
}
