// Command chatctl is a terminal client for the relay: log in, read a
// conversation, send a message or follow live events.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
)

const usage = `usage: chatctl <command> [flags]

commands:
  login    --email <email> --password <password>
  users
  history  <userId>
  send     <userId> <content...>
  listen   [--as <userId>]

environment: CHATCTL_SERVER, CHATCTL_TOKEN, CHATCTL_COLOURS`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "chatctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(out, usage)
		return nil
	}
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	client := NewClient(cfg.Server, cfg.Token)
	p := printer{out: out, colours: cfg.Colours}

	command, rest := args[0], args[1:]
	switch command {
	case "login":
		return cmdLogin(ctx, client, p, rest)
	case "users":
		return cmdUsers(ctx, client, p)
	case "history":
		return cmdHistory(ctx, client, p, rest)
	case "send":
		return cmdSend(ctx, client, p, rest)
	case "listen":
		return cmdListen(ctx, client, p, rest)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func cmdLogin(ctx context.Context, client *Client, p printer, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("--email and --password are required")
	}

	result, err := client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	p.header("Logged in as " + result.Username)
	fmt.Fprintf(p.out, "user id: %s\n", result.ID)
	fmt.Fprintf(p.out, "export CHATCTL_TOKEN=%s\n", result.Token)
	return nil
}

func cmdUsers(ctx context.Context, client *Client, p printer) error {
	users, err := client.Users(ctx)
	if err != nil {
		return err
	}
	p.header(fmt.Sprintf("%d users", len(users)))
	p.users(users)
	return nil
}

func cmdHistory(ctx context.Context, client *Client, p printer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("history takes exactly one user id")
	}
	messages, err := client.History(ctx, args[0])
	if err != nil {
		return err
	}
	p.header("Conversation with " + args[0])
	p.messages(messages)
	return nil
}

func cmdSend(ctx context.Context, client *Client, p printer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("send takes a user id and a message")
	}
	message, err := client.Send(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "sent %s at %s\n", message.ID, message.CreatedAt.Local().Format("15:04:05"))
	return nil
}

func cmdListen(ctx context.Context, client *Client, p printer, args []string) error {
	fs := pflag.NewFlagSet("listen", pflag.ContinueOnError)
	as := fs.String("as", "", "user id to join as, defaults to the token owner")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userID := *as
	if userID == "" {
		me, err := client.Me(ctx)
		if err != nil {
			return fmt.Errorf("resolving the token owner: %w", err)
		}
		userID = me.ID
	}

	p.header("Listening as " + userID)
	return client.Listen(ctx, userID, p.frame)
}
