package directory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solward/accountd/internal/common"
)

func TestSnapshotCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	updated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := []User{
		{ID: 1, Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace", Organization: "Acme", PasswordHash: "$2a$10$hash1", CreatedAt: created},
		{ID: 2, Email: "b@x.com", FirstName: "Bob", LastName: "Builder", Organization: "Globex", PasswordHash: "$2a$10$hash2", CreatedAt: created, UpdatedAt: updated},
	}

	data, err := encodeSnapshot(users)
	require.NoError(t, err)

	got, err := decodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, users, got)
}

func TestDecodeSnapshot_LegacyHeaderWithoutUpdatedAt(t *testing.T) {
	t.Parallel()

	legacy := strings.Join([]string{
		"ID,User Email,User Fname,User Lname,Company,Passhash,Created At",
		"1,a@x.com,Ada,Lovelace,Acme,$2a$10$hash1,2025-03-14 09:26:53",
	}, "\n")

	users, err := decodeSnapshot([]byte(legacy))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 1, users[0].ID)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.True(t, users[0].UpdatedAt.IsZero())
}

func TestDecodeSnapshot_CorruptRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{
			name: "non-numeric id",
			data: "ID,User Email,User Fname,User Lname,Company,Passhash,Created At,Updated At\nabc,a@x.com,A,B,Acme,h,2025-03-14 09:26:53,",
		},
		{
			name: "bad created-at",
			data: "ID,User Email,User Fname,User Lname,Company,Passhash,Created At,Updated At\n1,a@x.com,A,B,Acme,h,yesterday,",
		},
		{
			name: "missing required column",
			data: "ID,User Email\n1,a@x.com",
		},
		{
			name: "duplicate header column",
			data: "ID,User Email,User Fname,User Lname,Company,Passhash,Created At,User Email\n1,a@x.com,A,B,Acme,h,2025-03-14 09:26:53,b@x.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := decodeSnapshot([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrStorageUnavailable), "want storage-class error, got %v", err)
		})
	}
}

func TestDecodeSnapshot_Empty(t *testing.T) {
	t.Parallel()

	users, err := decodeSnapshot(nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
