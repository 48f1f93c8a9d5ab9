// Package deletion guards item deletion: it resolves the primary key of a
// result, gates the request behind an explicit confirmation, and derives the
// confirmation token the server re-verifies.
package deletion

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// ConfirmPhrase must be typed (in any case) to enable deletion.
const ConfirmPhrase = "DELETE"

var (
	// ErrPrimaryKeyNotFound is returned when a result has no usable primary key.
	ErrPrimaryKeyNotFound = errors.New("primary key not found")
	// ErrNotConfirmed is returned when the phrase or acknowledgement is missing.
	ErrNotConfirmed = errors.New("deletion not confirmed")
	// ErrInvalidToken is returned when a confirmation token does not match.
	ErrInvalidToken = errors.New("invalid confirmation token, please confirm the deletion properly")
)

// Key identifies the item to delete.
type Key struct {
	Field string
	Value string
}

// ResolveKey extracts the primary key of r. It fails when the attribute is
// absent, null or an empty string. A zero number is a valid key.
func ResolveKey(r record.Record, primaryKey string) (Key, bool) {
	if primaryKey == "" {
		return Key{}, false
	}
	v, ok := r[primaryKey]
	if !ok {
		return Key{}, false
	}
	switch record.KindOf(v) {
	case record.KindNull, record.KindList, record.KindMap:
		return Key{}, false
	case record.KindBool, record.KindNumber, record.KindString:
	}
	value := record.ScalarText(v)
	if value == "" {
		return Key{}, false
	}
	return Key{Field: primaryKey, Value: value}, true
}

// Token is the hex SHA-256 digest of "DELETE:<env>:<table>:<value>". It is a
// tamper-evident echo of intent, not a secret.
func Token(env, table, primaryValue string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("DELETE:%s:%s:%s", env, table, primaryValue)))
	return hex.EncodeToString(sum[:])
}

// Verify checks token against the expected digest.
func Verify(env, table, primaryValue, token string) error {
	if token != Token(env, table, primaryValue) {
		return ErrInvalidToken
	}
	return nil
}

// Warning selects how strongly the dialog warns.
type Warning int

const (
	WarningStandard Warning = iota
	// WarningProduction is shown for production environments.
	WarningProduction
)

// Confirmation is the state of an open delete dialog.
type Confirmation struct {
	Index       int
	Environment string
	Table       string
	Key         Key
	Production  bool

	Phrase       string
	Acknowledged bool
}

// Open builds a confirmation for the result at index, or fails with
// ErrPrimaryKeyNotFound.
func Open(index int, r record.Record, env, table, primaryKey string, production bool) (Confirmation, error) {
	key, ok := ResolveKey(r, primaryKey)
	if !ok {
		return Confirmation{}, ErrPrimaryKeyNotFound
	}
	return Confirmation{
		Index:       index,
		Environment: env,
		Table:       table,
		Key:         key,
		Production:  production,
	}, nil
}

// PhraseValid reports whether the typed phrase matches ConfirmPhrase.
func (c Confirmation) PhraseValid() bool {
	return strings.EqualFold(c.Phrase, ConfirmPhrase)
}

// Ready reports whether the delete button may be enabled. The rule is the
// same in every environment.
func (c Confirmation) Ready() bool {
	return c.PhraseValid() && c.Acknowledged
}

// Warning returns the warning level for the dialog.
func (c Confirmation) Warning() Warning {
	if c.Production {
		return WarningProduction
	}
	return WarningStandard
}

// WarningText is the banner shown in the dialog.
func (c Confirmation) WarningText() string {
	if c.Warning() == WarningProduction {
		return "PRODUCTION ENVIRONMENT: this will permanently delete data from the PRODUCTION database!"
	}
	return fmt.Sprintf("You are deleting from the %s environment.", strings.ToUpper(c.Environment))
}

// Request is the delete request sent to the server.
type Request struct {
	Environment       string `json:"environment"`
	Table             string `json:"table"`
	PrimaryKey        string `json:"primaryKey"`
	PrimaryValue      string `json:"primaryValue"`
	ConfirmationToken string `json:"confirmationToken"`
}

// Request returns the request to dispatch, or ErrNotConfirmed.
func (c Confirmation) Request() (Request, error) {
	if !c.Ready() {
		return Request{}, ErrNotConfirmed
	}
	return Request{
		Environment:       c.Environment,
		Table:             c.Table,
		PrimaryKey:        c.Key.Field,
		PrimaryValue:      c.Key.Value,
		ConfirmationToken: Token(c.Environment, c.Table, c.Key.Value),
	}, nil
}
