package decrypt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFDecryptor decrypts password-protected PDFs with pdfcpu.
type PDFDecryptor struct{}

// NewPDFDecryptor returns the default PDF decryption primitive.
func NewPDFDecryptor() *PDFDecryptor {
	return &PDFDecryptor{}
}

// Decrypt attempts to open the PDF with the given user password and returns
// the decrypted bytes. The error contract follows the Decryptor interface:
// a rejected password maps to ErrWrongPassword, plaintext input maps to
// ErrNotEncrypted, anything else is fatal.
func (d *PDFDecryptor) Decrypt(ctx context.Context, encrypted []byte, pw string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.DECRYPT
	conf.UserPW = pw
	conf.OwnerPW = pw
	// Statements from some issuers fail strict validation while still being
	// perfectly readable.
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(encrypted), &out, conf); err != nil {
		return nil, classify(err)
	}
	return out.Bytes(), nil
}

// classify maps pdfcpu errors onto the Decryptor error contract. pdfcpu does
// not export a stable sentinel across versions, so the password case is
// recognized by message.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not encrypted"):
		return fmt.Errorf("%w: %v", ErrNotEncrypted, err)
	case strings.Contains(msg, "password"):
		return fmt.Errorf("%w: %v", ErrWrongPassword, err)
	default:
		return err
	}
}
