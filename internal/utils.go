package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GenerateGameID creates an ID for a game based on timestamp and draw order
// Format: epochMillis_md5(order)[:8]
func GenerateGameID(order []int) string {
	// Get current timestamp in milliseconds
	epochMillis := time.Now().UnixMilli()

	// Hash the order so two games with the same start time still differ
	parts := make([]string, len(order))
	for i, n := range order {
		parts[i] = strconv.Itoa(n)
	}
	hash := md5.Sum([]byte(strings.Join(parts, ",")))
	hashStr := hex.EncodeToString(hash[:])[:8]

	return fmt.Sprintf("%d_%s", epochMillis, hashStr)
}

// ClipFileName returns the file name of the pre-recorded clip for a number
func ClipFileName(n int, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "mp3"
	}
	return fmt.Sprintf("%d.%s", n, ext)
}
