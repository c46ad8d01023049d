package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/skyplay/internal/shared"
)

// AuthSignup creates an account. The username defaults to the local part of the email.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")

	user, err := r.catalog.Signup(ctx, email, cmd.String("password"), cmd.String("username"))
	if err != nil {
		return err
	}

	r.logger.Info("account created", "email", email)
	r.writePlain("✓ Account created: %s (%s)\n", user.Username, user.Email)
	return r.writePlainln("Run '%s auth login' to sign in", shared.AppName)
}

// AuthLogin signs in and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	session, err := r.catalog.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s\n", session.Username)
}

// AuthLogout removes the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.catalog.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus prints the signed-in user and when the access token expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("refresh") {
		if _, err := r.catalog.RefreshToken(ctx); err != nil {
			return err
		}
	}

	session, err := r.catalog.Session(ctx)
	if err != nil {
		return err
	}
	if !session.Authenticated() {
		r.writePlain("✗ Not signed in\n")
		return fmt.Errorf("%w: run '%s auth login'", shared.ErrNotAuthenticated, shared.AppName)
	}

	r.writePlain("✓ Signed in\n")
	r.writePlain("User: %s (id %s)\n", session.Username, session.UserID)
	if session.Email != "" {
		r.writePlain("Email: %s\n", session.Email)
	}

	switch expiry := session.Token.Expiry; {
	case expiry.IsZero():
		r.writePlain("Access token: no expiry claim\n")
	case session.ExpiresIn(time.Now()) == 0:
		r.writePlain("Access token: expired %s\n", humanize.Time(expiry))
	default:
		r.writePlain("Access token: expires %s\n", humanize.Time(expiry))
	}

	if session.Token.RefreshToken == "" {
		r.logger.Warn("no refresh token stored", "error", shared.ErrNoRefreshToken)
	}
	return nil
}
