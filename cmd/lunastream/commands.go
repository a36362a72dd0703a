package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mmcdole/lunastream/internal/auth"
	"github.com/mmcdole/lunastream/internal/domain"
	"github.com/mmcdole/lunastream/internal/server"
)

// ServeCmd runs the HTTP server until interrupted
type ServeCmd struct {
	wired
	Host string `long:"host" description:"override server.host"`
	Port int    `short:"p" long:"port" description:"override server.port"`
}

func (c *ServeCmd) run(ctx context.Context, a *app, _ []string) error {
	if c.Host != "" {
		a.cfg.Server.Host = c.Host
	}
	if c.Port > 0 {
		a.cfg.Server.Port = c.Port
	}

	srv := server.New(a.cfg.Server, server.Deps{
		Metadata:        a.tmdb,
		Profile:         a.profile,
		Recommendations: a.recs,
		Search:          a.search,
		Genres:          a.genres,
		Issuer:          newIssuer(a),
		Credentials:     credentials(a),
	}, a.logger)

	err := srv.Run(ctx)
	a.logger.Info("shutting down")
	return err
}

// RecommendCmd prints the personalized sections
type RecommendCmd struct {
	wired
	JSON    bool `long:"json" description:"print JSON"`
	Refresh bool `long:"refresh" description:"bypass cached upstream responses"`
}

func (c *RecommendCmd) run(ctx context.Context, a *app, _ []string) error {
	if c.Refresh {
		a.tmdb.ClearCache()
		a.recs.ClearCache()
	}
	sections := a.recs.PersonalizedRecommendations(ctx)
	if c.JSON {
		return a.out.json(sections)
	}
	a.out.sections(sections)
	return nil
}

// SearchCmd runs an advanced search
type SearchCmd struct {
	wired
	Type      string  `short:"t" long:"type" choice:"all" choice:"movie" choice:"tv" default:"all" description:"media type"`
	Sort      string  `short:"s" long:"sort" choice:"popularity" choice:"rating" choice:"release_date" choice:"title" choice:"relevance" default:"popularity" description:"sort field"`
	Order     string  `short:"o" long:"order" choice:"asc" choice:"desc" default:"desc" description:"sort order"`
	Genre     int     `short:"g" long:"genre" description:"genre id"`
	Year      int     `short:"y" long:"year" description:"release year"`
	MinRating float64 `long:"min-rating" description:"minimum vote average"`
	Page      int     `long:"page" default:"1" description:"result page"`
	Episodes  bool    `short:"e" long:"episodes" description:"search episode titles and overviews instead"`
	JSON      bool    `long:"json" description:"print JSON"`

	Args struct {
		Query []string `positional-arg-name:"query" required:"1"`
	} `positional-args:"yes"`
}

func (c *SearchCmd) run(ctx context.Context, a *app, _ []string) error {
	query := strings.Join(c.Args.Query, " ")

	if c.Episodes {
		matches, err := a.search.SearchEpisodes(ctx, query)
		if err != nil {
			return err
		}
		if c.JSON {
			return a.out.json(matches)
		}
		a.out.episodes(matches)
		return nil
	}

	result, err := a.search.Search(ctx, domain.SearchFilters{
		Query:     query,
		Type:      domain.SearchType(c.Type),
		Genre:     c.Genre,
		Year:      c.Year,
		MinRating: c.MinRating,
		SortBy:    domain.SortField(c.Sort),
		SortOrder: domain.SortOrder(c.Order),
		Page:      c.Page,
	})
	if err != nil {
		return err
	}
	if c.JSON {
		return a.out.json(result)
	}
	a.out.hits(result)
	return nil
}

// HistoryCmd prints recent sessions, optionally fuzzy-filtered by title
type HistoryCmd struct {
	wired
	Limit  int    `short:"n" long:"limit" default:"20" description:"number of sessions"`
	Filter string `short:"f" long:"filter" description:"fuzzy title filter"`
	JSON   bool   `long:"json" description:"print JSON"`
}

func (c *HistoryCmd) run(_ context.Context, a *app, _ []string) error {
	matches := a.profile.FilterHistory(c.Filter, c.Limit)
	if c.JSON {
		sessions := make([]domain.ViewingSession, 0, len(matches))
		for _, m := range matches {
			sessions = append(sessions, m.Session)
		}
		return a.out.json(sessions)
	}
	a.out.history(matches)
	return nil
}

// ExportCmd writes the profile snapshot
type ExportCmd struct {
	wired
	Out string `short:"o" long:"out" description:"output file (default stdout)"`
}

func (c *ExportCmd) run(_ context.Context, a *app, _ []string) error {
	snapshot := a.profile.ExportData()
	if c.Out == "" {
		return a.out.json(snapshot)
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := newRenderer(f).json(snapshot); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	a.out.successf("Exported %d sessions to %s", len(snapshot.Sessions), c.Out)
	return nil
}

// ImportCmd loads a snapshot file into the profile
type ImportCmd struct {
	wired
	Args struct {
		File string `positional-arg-name:"file" required:"yes"`
	} `positional-args:"yes"`
}

func (c *ImportCmd) run(_ context.Context, a *app, _ []string) error {
	data, err := os.ReadFile(c.Args.File)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !a.profile.ImportData(data) {
		return errors.New("import incomplete: some fields were invalid or could not be saved")
	}
	a.out.successf("Imported %s", c.Args.File)
	return nil
}

// ResetCmd clears the profile
type ResetCmd struct {
	wired
	Yes bool `short:"y" long:"yes" description:"confirm deletion"`
}

func (c *ResetCmd) run(_ context.Context, a *app, _ []string) error {
	if !c.Yes {
		return errors.New("refusing to delete profile data without --yes")
	}
	if !a.profile.ClearAllData() {
		return errors.New("failed to clear profile data")
	}
	a.out.successf("Profile data cleared")
	return nil
}

// TokenCmd prompts for the admin password and prints a bearer token
type TokenCmd struct {
	wired
	Username string `short:"u" long:"username" description:"admin username (default admin.username)"`
}

func (c *TokenCmd) run(_ context.Context, a *app, _ []string) error {
	username := c.Username
	if username == "" {
		username = a.cfg.Admin.Username
	}

	password, err := readPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	if !credentials(a).Check(username, password) {
		return errors.New("invalid username or password")
	}

	token, err := newIssuer(a).Issue(username)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, token)
	return nil
}

// readPassword reads a hidden password from a terminal, or one line from a pipe
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newIssuer(a *app) *auth.Issuer {
	return auth.NewIssuer(a.cfg.Admin.JWTSecret, a.cfg.Admin.TokenTTL)
}

func credentials(a *app) auth.Credentials {
	return auth.Credentials{
		Username:     a.cfg.Admin.Username,
		Password:     a.cfg.Admin.Password,
		PasswordHash: a.cfg.Admin.PasswordHash,
	}
}
