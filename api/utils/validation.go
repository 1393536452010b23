package utils

import (
	"regexp"
	"strings"
)

var walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidWallet reports whether s looks like an EVM wallet address.
func ValidWallet(s string) bool {
	return walletPattern.MatchString(strings.TrimSpace(s))
}
