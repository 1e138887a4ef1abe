package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidatorOnce sync.Once
	structValidator     *validator.Validate
)

func getStructValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return structValidator
}

// GenerateInto runs req against p and decodes the structured output into out,
// which must be a pointer to a struct. Decoding is strict: unknown fields are
// rejected, and the result must satisfy its `validate` struct tags. Any shape
// mismatch is reported as *ErrInvalidResponse.
func GenerateInto(ctx context.Context, p Provider, req Request, out any) error {
	if p == nil {
		return &ErrProviderUnavailable{}
	}
	resp, err := p.Generate(ctx, req)
	if err != nil {
		return err
	}
	return DecodeStrict(resp.Content, out)
}

// DecodeStrict unmarshals raw into out and validates it.
func DecodeStrict(raw json.RawMessage, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := getStructValidator().Struct(out); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("validate: %w", err)}
	}
	return nil
}
