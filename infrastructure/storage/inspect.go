package storage

import (
	"fmt"
	"strings"
	"time"
)

// Record is a human readable view of one raw Badger entry.
type Record struct {
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// Inspect decodes a raw entry written by the repositories of this package.
// Unknown keys and undecodable values are reported as RAW.
func Inspect(key string, val []byte) Record {
	raw := Record{Kind: "RAW", Detail: fmt.Sprintf("Size: %d bytes", len(val))}
	switch {
	case strings.HasPrefix(key, messagePrefix):
		var disk diskMessage
		if err := unmarshal(val, &disk); err != nil {
			return raw
		}
		read := ""
		if disk.Read {
			read = " (read)"
		}
		return Record{
			Kind:      "MESSAGE",
			Detail:    fmt.Sprintf("%s -> %s: %s%s", disk.SenderID, disk.RecipientID, disk.Content, read),
			CreatedAt: time.Unix(0, disk.CreatedAt).UTC(),
		}
	case strings.HasPrefix(key, userPrefix):
		var disk diskUser
		if err := unmarshal(val, &disk); err != nil {
			return raw
		}
		return Record{
			Kind:      "USER",
			Detail:    fmt.Sprintf("%s <%s> %s", disk.Username, disk.Email, disk.Role),
			CreatedAt: time.Unix(0, disk.CreatedAt).UTC(),
		}
	case strings.HasPrefix(key, postPrefix):
		var disk diskPost
		if err := unmarshal(val, &disk); err != nil {
			return raw
		}
		return Record{
			Kind:      "POST",
			Detail:    fmt.Sprintf("%s by %s, %d likes", disk.Title, disk.AuthorID, len(disk.Likes)),
			CreatedAt: time.Unix(0, disk.CreatedAt).UTC(),
		}
	case strings.HasPrefix(key, userEmailIndex), strings.HasPrefix(key, userUsernameIndex),
		strings.HasPrefix(key, postTimeIndex):
		return Record{Kind: "INDEX", Detail: string(val)}
	default:
		return raw
	}
}
