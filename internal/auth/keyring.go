package auth

import (
	"crypto/subtle"
	"sync"
)

// KeyEntry describes one provisioned static API key.
type KeyEntry struct {
	// Key is the secret key material.
	Key string
	// Subject identifies the key's owner in audit logs and session info.
	Subject string
	// Scopes are the scope strings granted to this key.
	Scopes []string
}

// KeyRegistry holds provisioned API keys. Lookups are read-mostly and safe
// for concurrent use; administrative adds and removals take the write lock.
//
// Key comparison is constant-time over every provisioned entry so lookup
// duration does not depend on how much of a candidate key matches.
type KeyRegistry struct {
	mu      sync.RWMutex
	entries []KeyEntry
}

// NewKeyRegistry builds a registry from the provisioned entries. Entries
// with an empty key are dropped.
func NewKeyRegistry(entries []KeyEntry) *KeyRegistry {
	r := &KeyRegistry{}
	for _, e := range entries {
		if e.Key != "" {
			r.entries = append(r.entries, e)
		}
	}
	return r
}

// Lookup finds the identity for a candidate key, comparing against every
// entry in constant time.
func (r *KeyRegistry) Lookup(candidate string) (*Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var match *KeyEntry
	for i := range r.entries {
		e := &r.entries[i]
		if subtle.ConstantTimeCompare([]byte(e.Key), []byte(candidate)) == 1 {
			match = e
		}
	}
	if match == nil {
		return nil, false
	}

	subject := match.Subject
	if subject == "" {
		subject = "api-key"
	}
	return &Identity{
		Subject:     subject,
		Kind:        CredentialStaticKey,
		ScopeClaims: append([]string(nil), match.Scopes...),
	}, true
}

// Add provisions a new key at runtime. An entry with an empty key is ignored.
func (r *KeyRegistry) Add(entry KeyEntry) {
	if entry.Key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].Key == entry.Key {
			r.entries[i] = entry
			return
		}
	}
	r.entries = append(r.entries, entry)
}

// Remove deletes a key. Removing an unknown key is a no-op.
func (r *KeyRegistry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].Key == key {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of provisioned keys.
func (r *KeyRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
