package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// Hasher computes a digest over the stored fields of an event so later
// tampering with a row can be detected.
type Hasher interface {
	Hash(event Event) string
}

type sha256Hasher struct{}

func NewSHA256Hasher() Hasher {
	return sha256Hasher{}
}

func (sha256Hasher) Hash(e Event) string {
	// json.Marshal sorts map keys, so equal metadata hashes equally.
	metadata, _ := json.Marshal(e.Metadata)

	data := strings.Join([]string{
		e.ID,
		e.OrganizationID,
		e.ActorID,
		e.Action,
		e.Resource,
		e.ResourceID,
		string(e.Result),
		e.Error,
		e.RequestID,
		e.IP,
		strconv.FormatInt(e.CreatedAt.UnixNano(), 10),
		string(metadata),
	}, "|")

	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
