// Package admincli implements the operator commands of cmd/admin:
// bootstrapping an ADMIN account and hashing a password for manual seeding.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bizledger/internal/flagx"
	"github.com/dmitrijs2005/bizledger/internal/server/models"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
	"github.com/dmitrijs2005/bizledger/internal/server/services"
)

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("usage: admin <create-admin|hash-password> [flags]")

// AccountCreator is implemented by services.AuthService.
type AccountCreator interface {
	CreateAccount(ctx context.Context, in services.RegisterInput) (*models.Account, error)
}

// Hasher is implemented by auth.Hasher.
type Hasher interface {
	Hash(secret string) (string, error)
}

// Opener connects to storage on demand. The returned func releases it.
type Opener func(ctx context.Context) (AccountCreator, func(), error)

type App struct {
	in     *bufio.Reader
	out    io.Writer
	hasher Hasher
	open   Opener
}

func NewApp(in io.Reader, out io.Writer, hasher Hasher, open Opener) *App {
	return &App{in: bufio.NewReader(in), out: out, hasher: hasher, open: open}
}

// Run executes the command named by args[0]. Flags not belonging to the
// command (such as server config flags) are ignored.
func (a *App) Run(ctx context.Context, args []string) error {
	command, rest := "", []string(nil)
	for i, arg := range args {
		if arg == "create-admin" || arg == "hash-password" {
			command, rest = arg, args[i+1:]
			break
		}
	}

	switch command {
	case "create-admin":
		return a.createAdmin(ctx, rest)
	case "hash-password":
		return a.hashPassword()
	default:
		return ErrUsage
	}
}

func (a *App) createAdmin(ctx context.Context, args []string) error {
	in := services.RegisterInput{Role: string(rbac.Admin)}

	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&in.Username, "username", "", "admin username")
	fs.StringVar(&in.Email, "email", "", "admin email")
	fs.StringVar(&in.FirstName, "first-name", "", "first name")
	fs.StringVar(&in.LastName, "last-name", "", "last name")
	allowed := []string{"-username", "-email", "-first-name", "-last-name"}
	if err := fs.Parse(flagx.FilterArgs(args, allowed)); err != nil {
		return err
	}

	prompts := []struct {
		label string
		dst   *string
	}{
		{"Username", &in.Username},
		{"Email", &in.Email},
		{"First name", &in.FirstName},
		{"Last name", &in.LastName},
	}
	for _, p := range prompts {
		if *p.dst != "" {
			continue
		}
		v, err := GetSimpleText(a.in, p.label, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	password, err := GetPassword(a.out, true)
	if err != nil {
		return err
	}
	in.Password = password

	creator, release, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer release()

	account, err := creator.CreateAccount(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "created %s account %q (%s)\n", account.Role, account.Username, account.ID)
	return nil
}

func (a *App) hashPassword() error {
	password, err := GetPassword(a.out, true)
	if err != nil {
		return err
	}
	digest, err := a.hasher.Hash(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, digest)
	return nil
}
