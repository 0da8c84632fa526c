package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

var avatarColors = []string{
	"4ECDC4", "45B7D1", "96CEB4", "FFEAA7", "DDA0DD",
	"98D8C8", "F7DC6F", "BB8FCE", "85C1E9", "82E0AA",
}

// GenerateAvatarWithInitials builds a DiceBear initials avatar URL with
// a random background color.
func GenerateAvatarWithInitials(initials string) string {
	idx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(avatarColors))))
	color := avatarColors[idx.Int64()]
	return fmt.Sprintf("https://api.dicebear.com/7.x/initials/svg?seed=%s&backgroundColor=%s",
		url.QueryEscape(initials), color)
}

// GetInitialsFromName extracts up to two initials from a full name.
func GetInitialsFromName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "U"
	}
	first := []rune(fields[0])
	initials := strings.ToUpper(string(first[0]))
	if len(fields) > 1 {
		last := []rune(fields[len(fields)-1])
		initials += strings.ToUpper(string(last[0]))
	} else {
		initials += initials
	}
	return initials
}
