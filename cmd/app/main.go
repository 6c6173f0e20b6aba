package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/mcpserver"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")
	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// quietRuntime builds a Runtime whose logs go to stderr so command output
// stays clean on stdout.
func quietRuntime(cmd *cli.Command) (*internal.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	return internal.NewRuntime(cfg, logger)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func login(ctx context.Context, cmd *cli.Command) error {
	rt, err := quietRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	username := cmd.String("username")
	password := cmd.String("password")
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	cred, err := rt.Client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("Signed in as %s (%s)\n", cred.User.Username, cred.User.Role)
	return nil
}

func logout(ctx context.Context, cmd *cli.Command) error {
	rt, err := quietRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Session.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Println("Signed out")
	return nil
}

func status(ctx context.Context, cmd *cli.Command) error {
	rt, err := quietRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	cred, ok := rt.Session.Current()
	if !ok {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("Signed in as %s (%s)\n", cred.User.Username, cred.User.Role)

	// The token is opaque to this client; validity is only ever learned
	// from server responses. Claims are decoded without verification purely
	// for display.
	token, _, err := jwt.NewParser().ParseUnverified(cred.Token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		if time.Now().After(exp.Time) {
			fmt.Printf("Token expired %s (server may already have rejected it)\n", exp.Time.Format(time.RFC3339))
		} else {
			fmt.Printf("Token expires %s\n", exp.Time.Format(time.RFC3339))
		}
	}
	return nil
}

func mcpServe(ctx context.Context, cmd *cli.Command) error {
	rt, err := quietRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return mcpserver.New(rt.Service).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Content gateway and admin CLI for the company website CMS",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the caching content gateway",
				Action: serve,
			},
			{
				Name:   "login",
				Usage:  "Authenticate against the CMS and store the credential",
				Action: login,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Admin username",
						Sources: cli.EnvVars("ANSUZ_USERNAME"),
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Admin password (prompted when omitted)",
						Sources: cli.EnvVars("ANSUZ_PASSWORD"),
					},
				},
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored credential",
				Action: logout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in user and token expiry",
				Action: status,
			},
			{
				Name:   "mcp",
				Usage:  "Serve read-only content tools over MCP stdio",
				Action: mcpServe,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
