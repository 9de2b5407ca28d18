package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/crypto/bcrypt"

	"github.com/solward/accountd/internal/common"
	"github.com/solward/accountd/internal/logging"
	"github.com/solward/accountd/internal/server/blob"
)

const retryBaseDelay = 50 * time.Millisecond

// Store reads and mutates the shared directory object. It holds no state
// between calls; every operation loads a fresh snapshot. Mutations that
// lose the conditional write are retried with exponential backoff up to
// maxAttempts before surfacing ErrConcurrentModification.
type Store struct {
	bucket      blob.Bucket
	key         string
	bcryptCost  int
	maxAttempts int
	log         logging.Logger
}

// Options configures a Store.
type Options struct {
	Key         string
	BcryptCost  int
	MaxAttempts int
}

func NewStore(bucket blob.Bucket, opts Options, log logging.Logger) *Store {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Store{
		bucket:      bucket,
		key:         opts.Key,
		bcryptCost:  opts.BcryptCost,
		maxAttempts: opts.MaxAttempts,
		log:         log,
	}
}

// Load reads the current snapshot. An absent object yields an empty
// snapshot whose version tag demands create-only semantics on write.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	data, version, err := s.bucket.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return &Snapshot{}, nil
		}
		return nil, err
	}

	users, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Users: users, Version: version}, nil
}

// FindByEmail scans a fresh snapshot for the email, case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if u := findByEmail(snap.Users, email); u != nil {
		return u, nil
	}
	return nil, common.ErrUserNotFound
}

// Create hashes the password and appends a new record with the next
// sequential ID. Fails with ErrDuplicateEmail when the email is already
// present; the directory object is left untouched in that case.
func (s *Store) Create(ctx context.Context, email, firstName, lastName, organization, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var created User
	err = s.mutate(ctx, "create", func(users []User) ([]User, error) {
		if findByEmail(users, email) != nil {
			return nil, common.ErrDuplicateEmail
		}
		created = User{
			ID:           nextID(users),
			Email:        email,
			FirstName:    firstName,
			LastName:     lastName,
			Organization: organization,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC().Truncate(time.Second),
		}
		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePassword replaces the password hash for every record matching the
// email. The match is expected to be unique; updating all matches corrects
// any historical duplicate.
func (s *Store) UpdatePassword(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.mutate(ctx, "update_password", func(users []User) ([]User, error) {
		updated := false
		now := time.Now().UTC().Truncate(time.Second)
		for i := range users {
			if strings.EqualFold(users[i].Email, email) {
				users[i].PasswordHash = string(hash)
				users[i].UpdatedAt = now
				updated = true
			}
		}
		if !updated {
			return nil, common.ErrUserNotFound
		}
		return users, nil
	})
}

// mutate runs one read-modify-write cycle per attempt: load a fresh
// snapshot, apply the logical change, write conditionally on the snapshot's
// version. Only a lost conditional write is retried; every other failure is
// final.
func (s *Store) mutate(ctx context.Context, op string, apply func([]User) ([]User, error)) error {
	backoff := retry.WithMaxRetries(uint64(s.maxAttempts-1), retry.NewExponential(retryBaseDelay))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		snap, err := s.Load(ctx)
		if err != nil {
			return err
		}

		users, err := apply(snap.Users)
		if err != nil {
			return err
		}

		data, err := encodeSnapshot(users)
		if err != nil {
			return fmt.Errorf("encoding directory snapshot: %w", err)
		}

		if _, err := s.bucket.Put(ctx, s.key, data, snap.Version); err != nil {
			if errors.Is(err, blob.ErrVersionMismatch) {
				s.log.Warn(ctx, "conditional write lost the race",
					"op", op, "attempt", attempt, "max_attempts", s.maxAttempts)
				return retry.RetryableError(common.ErrConcurrentModification)
			}
			return err
		}
		return nil
	})
}

func findByEmail(users []User, email string) *User {
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i]
		}
	}
	return nil
}

func nextID(users []User) int {
	max := 0
	for i := range users {
		if users[i].ID > max {
			max = users[i].ID
		}
	}
	return max + 1
}
