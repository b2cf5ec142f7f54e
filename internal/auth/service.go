package auth

import "context"

// Authenticate verifies a username/password pair against the operator
// store. Unknown username and wrong password return the same error so
// a caller cannot probe for valid accounts.
func Authenticate(ctx context.Context, repo OperatorRepository, username, password string) (*Operator, error) {
	op, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, op.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if !op.IsActive {
		return nil, ErrOperatorInactive
	}
	return op, nil
}
