package service

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// NewRaceRNG builds the deterministic generator for one race. The seed
// depends only on the race's identity and a server secret, so a crash
// recovery re-run reproduces the same lottery draw and the same noise
// sequence. Bet contents never feed the seed.
func NewRaceRNG(raceDate time.Time, scheduleID int64, secret string) *rand.Rand {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s", raceDate.Format("2006-01-02"), scheduleID, secret)
	sum := h.Sum(nil)

	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	return rand.New(rand.NewSource(seed))
}
