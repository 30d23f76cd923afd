// Package sessionstore holds the transient session stores of the portal.
// Sessions are JSON encoded and expire with their ExpiresAt.
package sessionstore

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

func encode(session portal.Session) ([]byte, error) {
	raw, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: encode %s: %w", session.ID, err)
	}
	return raw, nil
}

func decode(id string, raw []byte) (portal.Session, error) {
	var session portal.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return portal.Session{}, fmt.Errorf("sessionstore: decode %s: %w", id, err)
	}
	return session, nil
}

// remaining is the time left until expiresAt rounded up to whole seconds.
// Zero means the session is already expired.
func remaining(expiresAt, now time.Time) time.Duration {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(left.Seconds())) * time.Second
}
