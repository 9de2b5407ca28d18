// Package directory maintains the user directory as a single versioned CSV
// object in blob storage. Every mutation is a full read-modify-write of the
// object guarded by the version tag captured at read time, so concurrent
// writers cannot silently lose each other's updates even across process
// instances.
package directory

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/solward/accountd/internal/common"
)

// User is one registered account in the directory.
type User struct {
	ID           int
	Email        string
	FirstName    string
	LastName     string
	Organization string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time // zero until the first password update
}

// Snapshot is the full directory at one point in time plus the opaque
// version tag it was read under. The tag must be presented on the next
// conditional write.
type Snapshot struct {
	Users   []User
	Version string
}

// Legacy column set; "Updated At" was added later and older objects may
// lack it.
var columns = []string{"ID", "User Email", "User Fname", "User Lname", "Company", "Passhash", "Created At", "Updated At"}

const timeLayout = "2006-01-02 15:04:05"

func encodeSnapshot(users []User) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for _, u := range users {
		updated := ""
		if !u.UpdatedAt.IsZero() {
			updated = u.UpdatedAt.UTC().Format(timeLayout)
		}
		row := []string{
			strconv.Itoa(u.ID),
			u.Email,
			u.FirstName,
			u.LastName,
			u.Organization,
			u.PasswordHash,
			u.CreatedAt.UTC().Format(timeLayout),
			updated,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) ([]User, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parsing directory object: %v", common.ErrStorageUnavailable, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Resolve column positions from the header so older objects without the
	// trailing "Updated At" column still load.
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		if _, dup := idx[name]; dup {
			return nil, fmt.Errorf("%w: directory object has duplicate column %q", common.ErrStorageUnavailable, name)
		}
		idx[name] = i
	}
	for _, name := range columns[:7] {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: directory object missing column %q", common.ErrStorageUnavailable, name)
		}
	}

	users := make([]User, 0, len(records)-1)
	for _, row := range records[1:] {
		u, err := decodeRow(row, idx)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func decodeRow(row []string, idx map[string]int) (User, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	id, err := strconv.Atoi(field("ID"))
	if err != nil {
		return User{}, fmt.Errorf("%w: corrupt directory row: bad id %q", common.ErrStorageUnavailable, field("ID"))
	}

	u := User{
		ID:           id,
		Email:        field("User Email"),
		FirstName:    field("User Fname"),
		LastName:     field("User Lname"),
		Organization: field("Company"),
		PasswordHash: field("Passhash"),
	}

	if v := field("Created At"); v != "" {
		t, err := time.Parse(timeLayout, v)
		if err != nil {
			return User{}, fmt.Errorf("%w: corrupt directory row %d: bad created-at %q", common.ErrStorageUnavailable, id, v)
		}
		u.CreatedAt = t
	}
	if v := field("Updated At"); v != "" {
		t, err := time.Parse(timeLayout, v)
		if err != nil {
			return User{}, fmt.Errorf("%w: corrupt directory row %d: bad updated-at %q", common.ErrStorageUnavailable, id, v)
		}
		u.UpdatedAt = t
	}
	return u, nil
}
