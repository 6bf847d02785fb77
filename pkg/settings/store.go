package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// defaultOpTimeout bounds a single backend call so a stalled network
// backend cannot freeze a setter.
const defaultOpTimeout = 2 * time.Second

// Store reads and writes typed values on top of a Backend. Reads never
// fail: a missing key, a backend error, or an unparsable value all yield
// the caller's default.
type Store struct {
	backend Backend
	logger  *slog.Logger
	timeout time.Duration
}

// NewStore wraps backend. A nil logger uses slog.Default().
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger, timeout: defaultOpTimeout}
}

// Backend returns the wrapped backend.
func (s *Store) Backend() Backend { return s.backend }

// Close closes the backend.
func (s *Store) Close() error { return s.backend.Close() }

// raw fetches the stored text for key.
func (s *Store) raw(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("settings read failed, using default", "key", key, "err", err)
		return "", false
	}
	return v, ok
}

func (s *Store) put(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.backend.Set(ctx, key, value)
}

// GetTyped decodes the JSON value stored under key into T, returning def
// when the key is missing or the value does not decode.
func GetTyped[T any](s *Store, key string, def T) T {
	data, ok := s.raw(key)
	if !ok {
		return def
	}
	if strings.TrimSpace(data) == "null" {
		return def
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		s.logger.Debug("malformed setting, using default", "key", key, "value", data, "err", err)
		return def
	}
	return v
}

// PutTyped stores value under key as JSON.
func PutTyped[T any](s *Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("settings: marshal %q: %w", key, err)
	}
	return s.put(key, string(data))
}

// Bool returns the boolean stored under key, or def.
func (s *Store) Bool(key string, def bool) bool {
	return GetTyped(s, key, def)
}

// SetBool stores v under key.
func (s *Store) SetBool(key string, v bool) error {
	return PutTyped(s, key, v)
}

// String returns the raw text stored under key, or def when missing or
// empty.
func (s *Store) String(key, def string) string {
	v, ok := s.raw(key)
	if !ok || v == "" {
		return def
	}
	return v
}

// SetString stores v verbatim under key.
func (s *Store) SetString(key, v string) error {
	return s.put(key, v)
}

// enum reads a string-typed enumeration, rejecting unknown values.
func enum[T ~string](s *Store, key string, def T, valid func(T) bool) T {
	v := T(s.String(key, string(def)))
	if !valid(v) {
		s.logger.Debug("unknown setting value, using default", "key", key, "value", string(v))
		return def
	}
	return v
}

// Language returns the stored language or def.
func (s *Store) Language(def Language) Language {
	return enum(s, KeyLanguage, def, Language.Valid)
}

// Currency returns the stored currency or def.
func (s *Store) Currency(def Currency) Currency {
	return enum(s, KeyCurrency, def, Currency.Valid)
}

// Timezone returns the stored timezone or def.
func (s *Store) Timezone(def Timezone) Timezone {
	return enum(s, KeyTimezone, def, Timezone.Valid)
}

// Load reads the full record, filling absent or corrupt fields from
// DefaultRecord.
func (s *Store) Load() Record {
	d := DefaultRecord()
	return Record{
		DarkMode:             s.Bool(KeyDarkMode, d.DarkMode),
		NotificationsEnabled: s.Bool(KeyNotificationsEnabled, d.NotificationsEnabled),
		Language:             s.Language(d.Language),
		Currency:             s.Currency(d.Currency),
		Timezone:             s.Timezone(d.Timezone),
		AutoRefresh:          s.Bool(KeyAutoRefresh, d.AutoRefresh),
	}
}

// Save writes every field of r. Keys are independent; the first failure
// is returned after attempting the rest.
func (s *Store) Save(r Record) error {
	var first error
	record := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	record(s.SetBool(KeyDarkMode, r.DarkMode))
	record(s.SetBool(KeyNotificationsEnabled, r.NotificationsEnabled))
	record(s.SetString(KeyLanguage, string(r.Language)))
	record(s.SetString(KeyCurrency, string(r.Currency)))
	record(s.SetString(KeyTimezone, string(r.Timezone)))
	record(s.SetBool(KeyAutoRefresh, r.AutoRefresh))
	return first
}
