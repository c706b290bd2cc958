package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"satbridge/internal/models"
)

// Registry is the durable store of webhook subscriptions, keyed by sender
// msisdn and lowercased subscription name. The backing file is shared by two
// execution contexts (the poll loop and the provisioning HTTP handlers), so
// every operation takes one mutex around the whole load-modify-save cycle
// and saves go through an atomic write-temp-then-rename.
type Registry struct {
	path      string
	encryptor *encryptor

	mu sync.Mutex
}

// store is the on-disk shape: msisdn -> name_lower -> record.
type store map[string]map[string]models.Subscription

func New(path string) (*Registry, error) {
	enc, err := newEncryptor()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize subscription encryption: %w", err)
	}
	return &Registry{path: path, encryptor: enc}, nil
}

// Get returns all subscriptions for a sender, keyed by normalized name. The
// result is a copy; mutating it does not touch the store.
func (r *Registry) Get(msisdn string) (map[string]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.Subscription, len(subs[msisdn]))
	for k, v := range subs[msisdn] {
		token, err := r.encryptor.decrypt(v.BearerToken)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt token for %s/%s: %w", msisdn, k, err)
		}
		v.BearerToken = token
		out[k] = v
	}
	return out, nil
}

// ActiveTargets returns the sender's active subscriptions.
func (r *Registry) ActiveTargets(msisdn string) ([]models.Subscription, error) {
	subs, err := r.Get(msisdn)
	if err != nil {
		return nil, err
	}
	var targets []models.Subscription
	for _, s := range subs {
		if s.IsActive() {
			targets = append(targets, s)
		}
	}
	return targets, nil
}

// Upsert creates or updates the (msisdn, name) subscription. Name uniqueness
// is case-insensitive; an update preserves identity (CreatedAt and display
// name) while rotating code, URL, token and status. Returns true when the
// pair already existed.
func (r *Registry) Upsert(msisdn, name string, status models.SubscriptionStatus, code, url, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return false, err
	}

	encToken, err := r.encryptor.encrypt(token)
	if err != nil {
		return false, fmt.Errorf("failed to encrypt token: %w", err)
	}

	now := time.Now().Unix()
	key := models.SubscriptionKey(name)
	ms := subs[msisdn]
	if ms == nil {
		ms = make(map[string]models.Subscription)
		subs[msisdn] = ms
	}

	existing, existed := ms[key]
	if existed {
		existing.Status = status
		existing.VerifyCode = code
		existing.WebhookURL = url
		existing.BearerToken = encToken
		existing.UpdatedAt = now
		ms[key] = existing
	} else {
		ms[key] = models.Subscription{
			Name:        name,
			Status:      status,
			VerifyCode:  code,
			WebhookURL:  url,
			BearerToken: encToken,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	if err := r.save(subs); err != nil {
		return false, err
	}
	return existed, nil
}

// Activate flips the (msisdn, name) subscription to active iff it exists and
// its stored verify code matches. A mismatch or missing entry is a false
// return, not an error; Activate never creates entries.
func (r *Registry) Activate(msisdn, name, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return false, err
	}

	key := models.SubscriptionKey(name)
	sub, ok := subs[msisdn][key]
	if !ok {
		return false, nil
	}
	if sub.VerifyCode != code {
		return false, nil
	}

	sub.Status = models.SubscriptionActive
	sub.UpdatedAt = time.Now().Unix()
	subs[msisdn][key] = sub

	if err := r.save(subs); err != nil {
		return false, err
	}
	return true, nil
}

// Deactivate marks one named subscription inactive. Unknown names are a
// no-op.
func (r *Registry) Deactivate(msisdn, name string) error {
	return r.deactivate(msisdn, models.SubscriptionKey(name))
}

// DeactivateAll marks every subscription of the sender inactive.
func (r *Registry) DeactivateAll(msisdn string) error {
	return r.deactivate(msisdn, "")
}

func (r *Registry) deactivate(msisdn, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return err
	}

	ms := subs[msisdn]
	changed := false
	now := time.Now().Unix()
	for k, sub := range ms {
		if key != "" && k != key {
			continue
		}
		if sub.Status != models.SubscriptionInactive {
			sub.Status = models.SubscriptionInactive
			sub.UpdatedAt = now
			ms[k] = sub
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return r.save(subs)
}

func (r *Registry) load() (store, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return store{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	var subs store
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions file: %w", err)
	}
	if subs == nil {
		subs = store{}
	}
	return subs, nil
}

// save writes the store atomically so a crash mid-write cannot leave readers
// with a partial file.
func (r *Registry) save(subs store) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subscriptions: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write subscriptions temp file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace subscriptions file: %w", err)
	}
	return nil
}
