package nixstore

import "strings"

// hashLength is the length of the nix base32 hash prefixing store object names.
const hashLength = 32

const nixBase32 = "0123456789abcdfghijklmnpqrsvwxyz"

// SplitObjectName splits a store object name into its hash and name parts.
// Names without a valid hash prefix are returned whole with an empty hash.
func SplitObjectName(object string) (hash string, name string) {
	if len(object) <= hashLength || object[hashLength] != '-' {
		return "", object
	}

	for _, c := range object[:hashLength] {
		if !strings.ContainsRune(nixBase32, c) {
			return "", object
		}
	}

	return object[:hashLength], object[hashLength+1:]
}
