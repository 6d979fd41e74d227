// Package notify delivers verification tokens to account owners.
package notify

import (
	"context"
	"fmt"
)

// Gateway sends a verification token to an address. Implementations must
// respect ctx's deadline.
type Gateway interface {
	SendVerification(ctx context.Context, address, token string) error
}

const verificationSubject = "Account verification code"

func verificationBody(token string) string {
	return fmt.Sprintf("Your verification code is: %s\r\n", token)
}
