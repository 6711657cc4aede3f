package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	gw := cli.NewGateway(cfg, logger)
	kv, kvCloser, err := cli.OpenSessionKV(cfg, logger)
	if err != nil {
		logger.Error("Failed to open session store", log.FieldError, err)
		os.Exit(1)
	}
	defer kvCloser.Close()

	store := session.New(kv, cfg.SessionKey, gw,
		session.WithLogger(logger),
		session.WithTokenSink(gw))

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.APITimeout)
	defer cancel()

	switch os.Args[1] {
	case "signin":
		err = runSignIn(ctx, store)
	case "signup":
		err = runSignUp(ctx, store)
	case "signout":
		err = store.SignOut(ctx)
	case "whoami":
		err = runWhoAmI(ctx, store)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		kvCloser.Close()
		logger.Error("Command failed", "command", os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("fintrack session management")
	fmt.Println("\nUsage:")
	fmt.Println("  fintrack-login <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  signin    Sign in and store the session")
	fmt.Println("  signup    Create an account and sign in")
	fmt.Println("  signout   Forget the stored session")
	fmt.Println("  whoami    Show the stored session user")
	fmt.Println("\nThe password is read from FINTRACK_PASSWORD or, if unset, from stdin.")
}

func runSignIn(ctx context.Context, store *session.Store) error {
	fs := flag.NewFlagSet("signin", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	fs.Parse(os.Args[2:])

	if *email == "" {
		return fmt.Errorf("-email is required")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	user, err := store.SignIn(ctx, *email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runSignUp(ctx context.Context, store *session.Store) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	fs.Parse(os.Args[2:])

	if *name == "" || *email == "" {
		return fmt.Errorf("-name and -email are required")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	user, err := store.SignUp(ctx, *name, *email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Registered and signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runWhoAmI(ctx context.Context, store *session.Store) error {
	if err := store.Restore(ctx); err != nil {
		return err
	}
	user := store.User()
	if user == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	return nil
}

func readPassword() (string, error) {
	if p := os.Getenv("FINTRACK_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	p := strings.TrimRight(line, "\r\n")
	if p == "" {
		return "", fmt.Errorf("empty password")
	}
	return p, nil
}
