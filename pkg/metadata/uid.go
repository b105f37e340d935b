package metadata

import (
	"crypto/md5"
	"encoding/json"
	"math/big"

	"github.com/google/uuid"
)

// NewUID returns a fresh DICOM UID under the 2.25 UUID-derived root, for
// objects created in the client rather than received from a server.
func NewUID() string {
	return uidFromUUID(uuid.New())
}

// DeriveUID returns a deterministic 2.25-root DICOM UID for value, so that
// re-deriving the same client-side object yields the same identity.
func DeriveUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	hash := md5.Sum(raw)
	id, err := uuid.FromBytes(hash[:])
	if err != nil {
		return ""
	}
	return uidFromUUID(id)
}

func uidFromUUID(id uuid.UUID) string {
	var n big.Int
	n.SetBytes(id[:])
	return "2.25." + n.String()
}
