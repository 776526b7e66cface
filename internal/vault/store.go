package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	_ "modernc.org/sqlite"
)

// =============================================================================
// OBSERVER CONTRACT
// =============================================================================

// Operation names reported to the Observer.
const (
	OpUpsert = "upsert"
	OpGet    = "get"
	OpDelete = "delete"
)

// Outcome names reported to the Observer.
const (
	OutcomeOK             = "ok"
	OutcomeNotFound       = "not_found"
	OutcomeUnknownService = "unknown_service"
	OutcomeSchemaRejected = "schema_rejected"
	OutcomeDecryptFailed  = "decrypt_failed"
	OutcomeError          = "error"
)

// Observer receives the outcome of every store operation. The store calls
// it inline, so implementations must not block.
type Observer interface {
	CredentialOp(op, service, userID, outcome string)
}

// noopObserver is installed when StoreConfig.Observer is nil.
type noopObserver struct{}

func (noopObserver) CredentialOp(string, string, string, string) {}

// =============================================================================
// STORE
// =============================================================================

// schemaSQL creates the credential table. Timestamps are UTC RFC3339Nano
// text; fields is a JSON document keyed by schema field name, with
// encrypted members holding base64 AEAD blobs.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS credential_records (
	service_name TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	fields       TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	PRIMARY KEY (service_name, user_id)
);`

// StoreConfig assembles a Store. Path, Registry, and Cipher are required.
type StoreConfig struct {
	// Path is the SQLite database file, created on first open.
	Path string

	// Registry supplies the schema for every operation.
	Registry *Registry

	// Cipher seals and opens the schema's encrypted fields.
	Cipher *Cipher

	// Observer receives per-operation outcomes. Nil means unobserved.
	Observer Observer
}

// StoredToken is one decrypted credential record. Fields carries only the
// fields that were actually stored; schema fields the user never supplied
// are absent from the map.
type StoredToken struct {
	ServiceName string
	UserID      string
	Fields      map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store persists credential records, one row per (service, user) pair.
//
// Every write is a single INSERT-or-UPDATE statement, so concurrent
// writers to the same pair serialize on the engine's write lock and the
// last full record wins. There is no lock in this package and no
// transaction ever spans more than one record.
type Store struct {
	db       *sql.DB
	registry *Registry
	cipher   *Cipher
	observer Observer

	// now is swapped out by tests that assert on timestamps.
	now func() time.Time
}

// Open opens or creates the backing database and prepares the schema.
func Open(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("store: registry is required")
	}
	if cfg.Cipher == nil {
		return nil, fmt.Errorf("store: cipher is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening credential database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating credential schema: %w", err)
	}

	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}

	return &Store{
		db:       db,
		registry: cfg.Registry,
		cipher:   cfg.Cipher,
		observer: observer,
		now:      time.Now,
	}, nil
}

// Upsert writes the full credential record for (service, user), replacing
// whatever was stored before. Fields named in the schema's EncryptedFields
// are sealed before the write. Supplying a field the schema does not know
// fails with a SchemaError and nothing is written.
func (s *Store) Upsert(ctx context.Context, service, userID string, fields map[string]string) error {
	cfg, err := s.registry.Lookup(service)
	if err != nil {
		s.observer.CredentialOp(OpUpsert, service, userID, OutcomeUnknownService)
		return err
	}
	if strings.TrimSpace(userID) == "" {
		s.observer.CredentialOp(OpUpsert, service, userID, OutcomeError)
		return fmt.Errorf("user id is required")
	}
	for name := range fields {
		if !cfg.HasField(name) {
			s.observer.CredentialOp(OpUpsert, service, userID, OutcomeSchemaRejected)
			return &SchemaError{Service: service, Field: name}
		}
	}

	doc := "{}"
	for _, name := range cfg.Fields {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if cfg.IsEncrypted(name) {
			value, err = s.cipher.EncryptString(value)
			if err != nil {
				s.observer.CredentialOp(OpUpsert, service, userID, OutcomeError)
				return fmt.Errorf("encrypting field %q: %w", name, err)
			}
		}
		doc, err = sjson.Set(doc, name, value)
		if err != nil {
			s.observer.CredentialOp(OpUpsert, service, userID, OutcomeError)
			return fmt.Errorf("building field document: %w", err)
		}
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credential_records (service_name, user_id, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(service_name, user_id) DO UPDATE SET
			fields     = excluded.fields,
			updated_at = excluded.updated_at`,
		service, userID, doc, now, now)
	if err != nil {
		s.observer.CredentialOp(OpUpsert, service, userID, OutcomeError)
		return fmt.Errorf("writing credential record: %w", err)
	}

	s.observer.CredentialOp(OpUpsert, service, userID, OutcomeOK)
	return nil
}

// Get reads and decrypts the record for (service, user). A missing record
// fails with ErrNotFound. A record whose encrypted fields cannot all be
// opened fails as a whole with a DecryptionError; no partially decrypted
// record is ever returned.
func (s *Store) Get(ctx context.Context, service, userID string) (StoredToken, error) {
	cfg, err := s.registry.Lookup(service)
	if err != nil {
		s.observer.CredentialOp(OpGet, service, userID, OutcomeUnknownService)
		return StoredToken{}, err
	}

	var doc, createdAt, updatedAt string
	row := s.db.QueryRowContext(ctx, `
		SELECT fields, created_at, updated_at
		FROM credential_records
		WHERE service_name = ? AND user_id = ?`,
		service, userID)
	if err := row.Scan(&doc, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.observer.CredentialOp(OpGet, service, userID, OutcomeNotFound)
			return StoredToken{}, ErrNotFound
		}
		s.observer.CredentialOp(OpGet, service, userID, OutcomeError)
		return StoredToken{}, fmt.Errorf("reading credential record: %w", err)
	}

	out := make(map[string]string, len(cfg.Fields))
	for _, name := range cfg.Fields {
		v := gjson.Get(doc, name)
		if !v.Exists() {
			continue
		}
		value := v.String()
		if cfg.IsEncrypted(name) {
			value, err = s.cipher.DecryptString(value)
			if err != nil {
				s.observer.CredentialOp(OpGet, service, userID, OutcomeDecryptFailed)
				return StoredToken{}, &DecryptionError{Service: service, UserID: userID, Field: name, Err: err}
			}
		}
		out[name] = value
	}

	token := StoredToken{
		ServiceName: service,
		UserID:      userID,
		Fields:      out,
		CreatedAt:   parseStoredTime(createdAt),
		UpdatedAt:   parseStoredTime(updatedAt),
	}
	s.observer.CredentialOp(OpGet, service, userID, OutcomeOK)
	return token, nil
}

// Delete removes the record for (service, user). Removing a record that
// does not exist is not an error.
func (s *Store) Delete(ctx context.Context, service, userID string) error {
	if _, err := s.registry.Lookup(service); err != nil {
		s.observer.CredentialOp(OpDelete, service, userID, OutcomeUnknownService)
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM credential_records
		WHERE service_name = ? AND user_id = ?`,
		service, userID)
	if err != nil {
		s.observer.CredentialOp(OpDelete, service, userID, OutcomeError)
		return fmt.Errorf("deleting credential record: %w", err)
	}

	s.observer.CredentialOp(OpDelete, service, userID, OutcomeOK)
	return nil
}

// ServicesForUser lists the services the user has credentials stored for,
// sorted by name.
func (s *Store) ServicesForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT service_name FROM credential_records
		WHERE user_id = ?
		ORDER BY service_name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing credential records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var services []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning credential record: %w", err)
		}
		services = append(services, name)
	}
	return services, rows.Err()
}

// Ping verifies the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the backing database.
func (s *Store) Close() error {
	return s.db.Close()
}

// parseStoredTime reads a stored timestamp. Records always carry one, so a
// parse failure just yields the zero time rather than failing the read.
func parseStoredTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
