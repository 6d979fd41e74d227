package auth

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

// PasswordSymbols is the set of symbols a password may (and must, at least
// once) contain.
const PasswordSymbols = `@!"#$%&/()¿¡?_`

const (
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
	// MaxIdentifierLength matches the accounts.identifier column.
	MaxIdentifierLength = 320
)

var (
	identifierPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	passwordCharset = regexp.MustCompile(`^[A-Za-z\d` + regexp.QuoteMeta(PasswordSymbols) + `]{8,}$`)
	passwordLower   = regexp.MustCompile(`[a-z]`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`\d`)
	passwordSymbol  = regexp.MustCompile(`[` + regexp.QuoteMeta(PasswordSymbols) + `]`)
)

const (
	msgCredentialsRequired = "identifier and password are required"
	msgIdentifierFormat    = "identifier must be a valid email address"
	msgIdentifierLength    = "identifier must be at most 320 characters long"
	msgPasswordLength      = "password must be at most 72 bytes long"
	msgPasswordPolicy      = "password must be at least 8 characters long and contain an uppercase letter, " +
		"a lowercase letter, a digit and a symbol (" + PasswordSymbols + ")"
)

// passwordRules are checked in order; RE2 has no lookahead, so the policy is
// split into a charset/length rule and one rule per required class.
var passwordRules = []validation.Rule{
	validation.Match(passwordCharset),
	validation.Match(passwordLower),
	validation.Match(passwordUpper),
	validation.Match(passwordDigit),
	validation.Match(passwordSymbol),
}

// ValidateRegistration applies the registration rules in order and reports
// the first one violated.
func ValidateRegistration(identifier, password string) error {
	if err := requireAll(msgCredentialsRequired, identifier, password); err != nil {
		return err
	}
	if err := ValidateIdentifier(identifier); err != nil {
		return err
	}
	return ValidatePassword(password)
}

func ValidateIdentifier(identifier string) error {
	if err := validation.Validate(identifier, validation.RuneLength(0, MaxIdentifierLength)); err != nil {
		return &Error{Kind: KindValidation, Message: msgIdentifierLength, Err: err}
	}
	if err := validation.Validate(identifier, validation.Required, validation.Match(identifierPattern)); err != nil {
		return &Error{Kind: KindValidation, Message: msgIdentifierFormat, Err: err}
	}
	return nil
}

// ValidatePassword checks the byte length before the policy, since multi-byte
// symbols reach bcrypt's limit in fewer characters.
func ValidatePassword(password string) error {
	if err := validation.Validate(password, validation.Length(0, MaxPasswordBytes)); err != nil {
		return &Error{Kind: KindValidation, Message: msgPasswordLength, Err: err}
	}
	if err := validation.Validate(password, append([]validation.Rule{validation.Required}, passwordRules...)...); err != nil {
		return &Error{Kind: KindValidation, Message: msgPasswordPolicy, Err: err}
	}
	return nil
}

// requireAll reports message as a validation error when any value is empty.
func requireAll(message string, values ...string) error {
	for _, v := range values {
		if err := validation.Validate(v, validation.Required); err != nil {
			return &Error{Kind: KindValidation, Message: message, Err: err}
		}
	}
	return nil
}
