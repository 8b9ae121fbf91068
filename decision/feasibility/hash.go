package feasibility

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// resultHash digests everything that determines a verdict: the site, the
// three sub-results, the weighting surface and the snapshot. The Hash field
// itself is zeroed first so the digest is stable. JSON encoding of the
// result is canonical here: every collection in Result is an ordered slice
// and decimals marshal as fixed strings.
func resultHash(r Result) (string, error) {
	r.Hash = ""
	payload, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
