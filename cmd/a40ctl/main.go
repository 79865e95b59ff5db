// a40ctl drives the anniversary40 game API from the command line:
// encode/decode signed scores, check eligibility, play a full
// can-start/start-game/finish-game round, manage stored credentials,
// and run the local intercept proxy.
//
// Credentials resolve flag > environment > keyring. Environment keys
// (optionally from a .env file): A40_BASE_URL, A40_TOKEN, A40_SESSION,
// A40_SECRET, A40_PROXY, A40_UA.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/mofidlab/anniversary40-go/internal/anniversary"
	"github.com/mofidlab/anniversary40-go/internal/authstore"
	"github.com/mofidlab/anniversary40-go/internal/intercept"
	"github.com/mofidlab/anniversary40-go/internal/scorecodec"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "can-start":
		err = runCanStart(os.Args[2:])
	case "play":
		err = runPlay(os.Args[2:])
	case "auth":
		err = runAuth(os.Args[2:])
	case "intercept":
		err = runIntercept(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: a40ctl <command> [flags]

commands:
  encode      sign and encode a score
  decode      decode and verify an encoded score
  can-start   check play eligibility
  play        run a full round: can-start, start-game, finish-game
  auth        manage stored credentials (set | show | delete)
  intercept   run the local intercept proxy`)
}

func secret() string {
	if s := os.Getenv("A40_SECRET"); s != "" {
		return s
	}
	return anniversary.DefaultSecret
}

func credStore() *authstore.Store {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return authstore.NewStore("a40ctl", filepath.Join(dir, "a40ctl", "credentials.json"))
}

// newClient builds an API client from flags, environment and the
// credential store, in that order of precedence.
func newClient(profile, token, session string) (*anniversary.Client, error) {
	store := credStore()

	if token == "" {
		token = os.Getenv("A40_TOKEN")
	}
	if token == "" {
		token, _ = store.GetToken(profile)
	}
	if session == "" {
		session = os.Getenv("A40_SESSION")
	}
	if session == "" {
		session, _ = store.GetCookie(profile)
	}
	if token == "" || session == "" {
		return nil, fmt.Errorf("missing credentials: provide -token/-session, set A40_TOKEN/A40_SESSION, or run 'a40ctl auth set'")
	}

	ua := os.Getenv("A40_UA")
	if ua == "" {
		ua, _ = store.GetUserAgent(profile)
	}

	var proxy *url.URL
	if p := os.Getenv("A40_PROXY"); p != "" {
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid A40_PROXY: %w", err)
		}
		proxy = u
	}

	return anniversary.NewClient(anniversary.Config{
		BaseURL:       os.Getenv("A40_BASE_URL"),
		BearerToken:   token,
		SessionCookie: session,
		Secret:        secret(),
		Proxy:         proxy,
		UserAgent:     ua,
	}), nil
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	score := fs.Int64("score", 0, "score to sign and encode")
	fs.Parse(args)

	fmt.Println(scorecodec.New(secret()).Encode(*score))
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	value := fs.String("value", "", "encoded score to decode")
	fs.Parse(args)

	res := scorecodec.New(secret()).Decode(*value)
	if res.Err != nil {
		return fmt.Errorf("decode: %w", res.Err)
	}
	fmt.Printf("score:     %d\n", res.Score)
	fmt.Printf("timestamp: %d (%s)\n", res.Timestamp, res.Time.Format(time.RFC3339))
	fmt.Printf("signature: %s\n", res.Signature)
	fmt.Printf("valid:     %t\n", res.Valid)
	if !res.Valid {
		os.Exit(1)
	}
	return nil
}

func runCanStart(args []string) error {
	fs := flag.NewFlagSet("can-start", flag.ExitOnError)
	game := fs.String("game", "shooter", "game to check (shooter | rocket)")
	profile := fs.String("profile", "default", "credential profile")
	token := fs.String("token", "", "bearer token (overrides env and keyring)")
	session := fs.String("session", "", "session cookie (overrides env and keyring)")
	fs.Parse(args)

	client, err := newClient(*profile, *token, *session)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := client.CanStart(ctx, *game)
	if err != nil {
		return err
	}
	fmt.Printf("can start:         %t\n", res.Allowed())
	fmt.Printf("total points:      %d\n", res.TotalPoints)
	fmt.Printf("remaining chances: %d\n", res.RemainingChances)
	return nil
}

func runPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	game := fs.String("game", "shooter", "game to play (shooter | rocket)")
	mission := fs.String("mission", "", "mission name for the submission (defaults to the game name)")
	score := fs.Int64("score", 0, "score to submit")
	wait := fs.Bool("wait", false, "actually wait out the synthesized play time before submitting")
	force := fs.Bool("force", false, "submit even when can-start says no")
	profile := fs.String("profile", "default", "credential profile")
	token := fs.String("token", "", "bearer token (overrides env and keyring)")
	session := fs.String("session", "", "session cookie (overrides env and keyring)")
	fs.Parse(args)

	if *mission == "" {
		*mission = *game
	}

	client, err := newClient(*profile, *token, *session)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	eligibility, err := client.CanStart(ctx, *game)
	if err != nil {
		return err
	}
	log.Printf("can-start: allowed=%t total_points=%d remaining=%d",
		eligibility.Allowed(), eligibility.TotalPoints, eligibility.RemainingChances)
	if !eligibility.Allowed() && !*force {
		return fmt.Errorf("no plays left (use -force to submit anyway)")
	}

	if _, err := client.StartGame(ctx, *game); err != nil {
		return err
	}
	log.Printf("start-game: session opened for %s", *game)

	duration := anniversary.RealisticDuration(*score)
	if *wait {
		log.Printf("playing for %s...", duration)
		select {
		case <-time.After(duration):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	res, err := client.FinishGame(ctx, anniversary.FinishRequest{
		MissionName: *mission,
		Points:      *score,
		Duration:    duration,
	})
	if err != nil {
		return err
	}
	log.Printf("finish-game: success=%t message=%q", res.Success, res.Message)
	return nil
}

func runAuth(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: a40ctl auth <set|show|delete> [flags]")
	}

	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	profile := fs.String("profile", "default", "credential profile")
	token := fs.String("token", "", "bearer token to store")
	session := fs.String("session", "", "session cookie to store")
	ua := fs.String("ua", "", "user agent to store")
	fs.Parse(args[1:])

	store := credStore()

	switch args[0] {
	case "set":
		if *token == "" && *session == "" && *ua == "" {
			return fmt.Errorf("nothing to store: provide -token, -session or -ua")
		}
		if *token != "" {
			if err := store.SetToken(*profile, *token); err != nil {
				return err
			}
		}
		if *session != "" {
			if err := store.SetCookie(*profile, *session); err != nil {
				return err
			}
		}
		if *ua != "" {
			if err := store.SetUserAgent(*profile, *ua); err != nil {
				return err
			}
		}
		fmt.Println("stored")
		return nil
	case "show":
		// Availability only; secrets never print.
		_, tokenErr := store.GetToken(*profile)
		_, cookieErr := store.GetCookie(*profile)
		_, uaErr := store.GetUserAgent(*profile)
		fmt.Printf("profile:    %s\n", *profile)
		fmt.Printf("token:      %t\n", tokenErr == nil)
		fmt.Printf("session:    %t\n", cookieErr == nil)
		fmt.Printf("user-agent: %t\n", uaErr == nil)
		return nil
	case "delete":
		if err := store.DeleteAll(*profile); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	default:
		return fmt.Errorf("unknown auth subcommand %q", args[0])
	}
}

func runIntercept(args []string) error {
	fs := flag.NewFlagSet("intercept", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:8040", "address to listen on")
	upstream := fs.String("upstream", "https://landing.emofid.com", "real landing site")
	gameAPI := fs.Bool("game-api", true, "answer can-start/finish-game locally")
	texts := fs.Bool("texts", true, "annotate shooter quiz questions with answers")
	fs.Parse(args)

	u, err := url.Parse(*upstream)
	if err != nil {
		return fmt.Errorf("invalid upstream: %w", err)
	}

	srv := intercept.NewServer(intercept.Config{
		Upstream:         u,
		InterceptGameAPI: *gameAPI,
		AnnotateTexts:    *texts,
		Codec:            scorecodec.New(secret()),
	})

	log.Printf("intercept proxy listening on %s (upstream %s)", *listen, u)
	return http.ListenAndServe(*listen, srv.Routes())
}
