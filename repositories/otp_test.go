package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOTPRepository_Check_Consumes_Code(t *testing.T) {
	req := require.New(t)
	repo := NewOTPRepository(newTestDB(t), 10*time.Minute)
	req.NoError(repo.Store("+33612345678", "123456"))

	ok, err := repo.Check("+33612345678", "123456")
	req.NoError(err)
	req.True(ok)

	// A code can only be used once
	ok, err = repo.Check("+33612345678", "123456")
	req.NoError(err)
	req.False(ok)
}

func TestOTPRepository_Wrong_Code_Is_Not_Consumed(t *testing.T) {
	req := require.New(t)
	repo := NewOTPRepository(newTestDB(t), 10*time.Minute)
	req.NoError(repo.Store("+33612345678", "123456"))

	ok, err := repo.Check("+33612345678", "000000")
	req.NoError(err)
	req.False(ok)

	// The right code still works after a failed guess
	ok, err = repo.Check("+33612345678", "123456")
	req.NoError(err)
	req.True(ok)
}

func TestOTPRepository_Unknown_Phone(t *testing.T) {
	req := require.New(t)
	repo := NewOTPRepository(newTestDB(t), 10*time.Minute)

	ok, err := repo.Check("+33699999999", "123456")
	req.NoError(err)
	req.False(ok)
}

func TestOTPRepository_Store_Replaces_Pending_Code(t *testing.T) {
	req := require.New(t)
	repo := NewOTPRepository(newTestDB(t), 10*time.Minute)
	req.NoError(repo.Store("+33612345678", "111111"))
	req.NoError(repo.Store("+33612345678", "222222"))

	ok, err := repo.Check("+33612345678", "111111")
	req.NoError(err)
	req.False(ok)

	ok, err = repo.Check("+33612345678", "222222")
	req.NoError(err)
	req.True(ok)
}
