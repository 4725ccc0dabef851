package decrypt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"wrong password", errors.New("pdfcpu: please provide the correct password"), ErrWrongPassword},
		{"invalid password", errors.New("Invalid password supplied"), ErrWrongPassword},
		{"not encrypted", errors.New("this file is not encrypted"), ErrNotEncrypted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tc.err), tc.want)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		corrupt := errors.New("xref table corrupt")
		got := classify(corrupt)
		assert.NotErrorIs(t, got, ErrWrongPassword)
		assert.NotErrorIs(t, got, ErrNotEncrypted)
		assert.Equal(t, corrupt, got)
	})
}

func TestPDFDecryptorHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFDecryptor().Decrypt(ctx, []byte("%PDF-"), "pw")
	require.ErrorIs(t, err, context.Canceled)
}

func TestPDFDecryptorRejectsGarbage(t *testing.T) {
	_, err := NewPDFDecryptor().Decrypt(context.Background(), []byte("not a pdf at all"), "pw")
	require.Error(t, err)
}
