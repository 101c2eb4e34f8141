package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/store"
	"golang.org/x/sync/errgroup"
)

// Defaults of a tournament provisioned on first access to its category.
const (
	DefaultBracketSize = 16
	DefaultGroupCount  = 2
	DefaultGroupSize   = 4
)

var categoryPattern = regexp.MustCompile(`^[a-z0-9-]{1,32}$`)

type TournamentService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	baseSlug string
	siteName string
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, baseSlug, siteName string) *TournamentService {
	return &TournamentService{db: db, store: store, baseSlug: baseSlug, siteName: siteName}
}

// Snapshot is everything a page needs about one tournament, read in one go
// after each change. Renderers receive it as a value.
type Snapshot struct {
	Tournament *bracket.Tournament
	Teams      []bracket.Team
	Matches    []bracket.Match
}

func (s *Snapshot) TeamByID() map[uuid.UUID]*bracket.Team {
	teams := make(map[uuid.UUID]*bracket.Team, len(s.Teams))
	for i := range s.Teams {
		teams[s.Teams[i].ID] = &s.Teams[i]
	}
	return teams
}

func (s *Snapshot) GroupTeams() []bracket.Team {
	var out []bracket.Team
	for _, t := range s.Teams {
		if t.IsGroupTeam() {
			out = append(out, t)
		}
	}
	return out
}

func (s *Snapshot) EliminationTeams() []bracket.Team {
	var out []bracket.Team
	for _, t := range s.Teams {
		if !t.IsGroupTeam() {
			out = append(out, t)
		}
	}
	return out
}

func normalizeCategory(category string) (string, error) {
	if category == "" {
		return "1", nil
	}
	if !categoryPattern.MatchString(category) {
		return "", invalid("invalid category %q", category)
	}
	return category, nil
}

func (s *TournamentService) Slug(category string) (string, error) {
	category, err := normalizeCategory(category)
	if err != nil {
		return "", err
	}
	return bracket.SlugForCategory(s.baseSlug, category), nil
}

// FindTournament looks a category up without creating it.
func (s *TournamentService) FindTournament(ctx context.Context, category string) (*bracket.Tournament, error) {
	slug, err := s.Slug(category)
	if err != nil {
		return nil, err
	}
	return s.FindBySlug(ctx, slug)
}

func (s *TournamentService) FindBySlug(ctx context.Context, slug string) (*bracket.Tournament, error) {
	tournament, err := s.store.GetTournamentBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "tournament "+slug)
	}
	return tournament, nil
}

// EnsureTournament returns the tournament of a category, creating it with the
// default settings when the category has never been opened.
func (s *TournamentService) EnsureTournament(ctx context.Context, category string) (*bracket.Tournament, error) {
	category, err := normalizeCategory(category)
	if err != nil {
		return nil, err
	}
	slug := bracket.SlugForCategory(s.baseSlug, category)

	tournament, err := s.store.GetTournamentBySlug(ctx, slug)
	if err == nil {
		return tournament, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}

	tournament = &bracket.Tournament{
		ID:          uuid.New(),
		Slug:        slug,
		Name:        fmt.Sprintf("%s — Category %s", s.siteName, category),
		Format:      bracket.EliminationFormat,
		BracketSize: DefaultBracketSize,
		GroupCount:  DefaultGroupCount,
		GroupSize:   DefaultGroupSize,
	}
	if err := s.store.CreateTournament(ctx, s.db, tournament); err != nil {
		// Another request may have provisioned it first
		if existing, getErr := s.store.GetTournamentBySlug(ctx, slug); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create tournament %s: %w", slug, err)
	}
	slog.Info("provisioned tournament", "slug", slug)

	return s.store.GetTournamentBySlug(ctx, slug)
}

type Settings struct {
	Format      bracket.Format
	BracketSize int
	GroupCount  int
	GroupSize   int
}

func (st Settings) Validate() error {
	if !st.Format.Valid() {
		return invalid("unknown format %q", st.Format)
	}
	if st.Format == bracket.EliminationFormat && (st.BracketSize < 2 || !bracket.IsPowerOfTwo(st.BracketSize)) {
		return invalid("bracket size must be a power of two (e.g. 4, 8, 16), got %d", st.BracketSize)
	}
	if st.Format == bracket.GroupsFormat && (st.GroupCount < 1 || st.GroupCount > maxGroups || st.GroupSize < 2) {
		return invalid("invalid group settings: need 1 to %d groups of at least 2 teams", maxGroups)
	}
	return nil
}

func (s *TournamentService) UpdateSettings(ctx context.Context, tournamentID uuid.UUID, settings Settings) (*bracket.Tournament, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	tournament, err := s.store.GetTournament(ctx, tournamentID.String())
	if err != nil {
		return nil, notFound(err, "tournament")
	}

	tournament.Format = settings.Format
	tournament.BracketSize = settings.BracketSize
	tournament.GroupCount = settings.GroupCount
	tournament.GroupSize = settings.GroupSize

	if err := s.store.UpdateTournamentSettings(ctx, tournament); err != nil {
		return nil, err
	}
	return tournament, nil
}

// LoadSnapshot reads the teams and matches of a tournament concurrently.
func (s *TournamentService) LoadSnapshot(ctx context.Context, tournament *bracket.Tournament) (*Snapshot, error) {
	snapshot := &Snapshot{Tournament: tournament}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.store.GetTeams(gCtx, tournament.ID)
		if err != nil {
			return fmt.Errorf("failed to read teams: %w", err)
		}
		snapshot.Teams = teams
		return nil
	})
	g.Go(func() error {
		matches, err := s.store.GetMatches(gCtx, tournament.ID)
		if err != nil {
			return fmt.Errorf("failed to read matches: %w", err)
		}
		snapshot.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ListTournaments returns the provisioned tournaments among the categories.
func (s *TournamentService) ListTournaments(ctx context.Context, categories []string) ([]bracket.Tournament, error) {
	slugs := make([]string, 0, len(categories))
	for _, c := range categories {
		slug, err := s.Slug(c)
		if err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return s.store.GetTournamentsBySlugs(ctx, slugs)
}

type ProgramEntry struct {
	Tournament *bracket.Tournament
	Match      bracket.Match
	Team1      *bracket.Team
	Team2      *bracket.Team
}

// Program lists the matches of all the categories by kickoff time, unscheduled
// matches first.
func (s *TournamentService) Program(ctx context.Context, categories []string) ([]ProgramEntry, error) {
	tournaments, err := s.ListTournaments(ctx, categories)
	if err != nil {
		return nil, err
	}
	if len(tournaments) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(tournaments))
	byID := make(map[uuid.UUID]*bracket.Tournament, len(tournaments))
	for i := range tournaments {
		ids = append(ids, tournaments[i].ID)
		byID[tournaments[i].ID] = &tournaments[i]
	}

	var teams []bracket.Team
	var matches []bracket.Match
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.store.GetTeamsForTournaments(gCtx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.store.GetMatchesForTournaments(gCtx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	teamByID := make(map[uuid.UUID]*bracket.Team, len(teams))
	for i := range teams {
		teamByID[teams[i].ID] = &teams[i]
	}

	entries := make([]ProgramEntry, 0, len(matches))
	for _, m := range matches {
		entry := ProgramEntry{Tournament: byID[m.TournamentID], Match: m}
		if m.Team1ID != nil {
			entry.Team1 = teamByID[*m.Team1ID]
		}
		if m.Team2ID != nil {
			entry.Team2 = teamByID[*m.Team2ID]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
