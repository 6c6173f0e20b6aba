package gateway

import (
	"context"
	"log/slog"

	"github.com/starford/ansuz/internal/apiclient"
	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/lkg"
	"github.com/starford/ansuz/internal/query"
)

// Source reports where a read was served from.
type Source int

const (
	SourceUpstream Source = iota
	SourceSnapshot
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceUpstream:
		return "upstream"
	case SourceSnapshot:
		return "snapshot"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Service coordinates the cache, the upstream client, and the degradation
// chain for gateway reads. All reads go through the shared cache; a fetch
// failure falls back to the last-known-good snapshot, then to bundled
// defaults for the resources that have them, and only then surfaces an
// error.
type Service struct {
	client   *apiclient.Client
	cache    *query.Cache
	snaps    lkg.Store // nil disables snapshots
	defaults *content.Defaults
	logger   *slog.Logger
}

// NewService creates a gateway service. snaps may be nil; defaults may be
// nil when bundled fallback content is not wanted.
func NewService(client *apiclient.Client, cache *query.Cache, snaps lkg.Store, defaults *content.Defaults, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		cache:    cache,
		snaps:    snaps,
		defaults: defaults,
		logger:   logger,
	}
}

// Cache exposes the shared cache for invalidation by the admin layer.
func (s *Service) Cache() *query.Cache { return s.cache }

// Client exposes the upstream client for admin proxying.
func (s *Service) Client() *apiclient.Client { return s.client }

// resolve runs a cached read with the degradation chain. On upstream
// success the snapshot store is refreshed; on failure a prior snapshot or
// the bundled default is served instead.
func resolve[T any](ctx context.Context, s *Service, key query.Key, opts query.Options, fetch func(context.Context) (T, error), fallback func(*content.Defaults) (T, bool)) (T, Source, error) {
	v, err := query.Fetch(ctx, s.cache, key, func(fctx context.Context) (T, error) {
		out, ferr := fetch(fctx)
		if ferr != nil {
			return out, ferr
		}
		if s.snaps != nil {
			if perr := s.snaps.Put(key.String(), out); perr != nil {
				s.logger.Warn("snapshot write failed",
					slog.String("key", key.String()),
					slog.String("error", perr.Error()))
			}
		}
		return out, nil
	}, opts)
	if err == nil {
		return v, SourceUpstream, nil
	}
	if ctx.Err() != nil {
		var zero T
		return zero, SourceUpstream, err
	}

	s.logger.Warn("upstream read failed, degrading",
		slog.String("key", key.String()),
		slog.String("error", err.Error()))

	if s.snaps != nil {
		var snap T
		if _, serr := s.snaps.Get(key.String(), &snap); serr == nil {
			return snap, SourceSnapshot, nil
		}
	}
	if s.defaults != nil && fallback != nil {
		if v, ok := fallback(s.defaults); ok {
			return v, SourceDefault, nil
		}
	}
	var zero T
	return zero, SourceUpstream, err
}

func noDefault[T any](*content.Defaults) (T, bool) {
	var zero T
	return zero, false
}

// Cache keys. Team detail and filtered article lists get composite keys so
// each variant is cached and invalidated independently.
var (
	keyHeroSlides  = query.K("hero-slides")
	keyAbout       = query.K("about")
	keyImpactStats = query.K("impact-stats")
	keyFooter      = query.K("footer")
	keyTeam        = query.K("team")
	keyProjects    = query.K("projects")
	keyServices    = query.K("services")
	keyClients     = query.K("clients")
	keyLocations   = query.K("locations")
)

func keyTeamMember(slug string) query.Key { return query.K("team", slug) }

func keyArticles(publishedOnly bool) query.Key {
	if publishedOnly {
		return query.K("articles", "published")
	}
	return query.K("articles")
}

func (s *Service) HeroSlides(ctx context.Context) ([]content.HeroSlide, Source, error) {
	return resolve(ctx, s, keyHeroSlides, query.Options{}, s.client.HeroSlides,
		func(d *content.Defaults) ([]content.HeroSlide, bool) { return d.HeroSlides, true })
}

func (s *Service) About(ctx context.Context) (content.AboutContent, Source, error) {
	return resolve(ctx, s, keyAbout, query.Options{}, s.client.AboutContent,
		func(d *content.Defaults) (content.AboutContent, bool) { return d.About, true })
}

func (s *Service) ImpactStats(ctx context.Context) ([]content.ImpactStat, Source, error) {
	return resolve(ctx, s, keyImpactStats, query.Options{}, s.client.ImpactStats,
		func(d *content.Defaults) ([]content.ImpactStat, bool) { return d.ImpactStats, true })
}

func (s *Service) Footer(ctx context.Context) (content.FooterSettings, Source, error) {
	return resolve(ctx, s, keyFooter, query.Options{}, s.client.FooterSettings,
		func(d *content.Defaults) (content.FooterSettings, bool) { return d.Footer, true })
}

func (s *Service) Team(ctx context.Context) ([]content.TeamMember, Source, error) {
	return resolve(ctx, s, keyTeam, query.Options{}, s.client.TeamMembers, noDefault[[]content.TeamMember])
}

func (s *Service) TeamMember(ctx context.Context, slug string) (content.TeamMember, Source, error) {
	return resolve(ctx, s, keyTeamMember(slug), query.Options{}, func(ctx context.Context) (content.TeamMember, error) {
		return s.client.TeamMember(ctx, slug)
	}, noDefault[content.TeamMember])
}

func (s *Service) Projects(ctx context.Context) ([]content.Project, Source, error) {
	return resolve(ctx, s, keyProjects, query.Options{}, s.client.Projects, noDefault[[]content.Project])
}

func (s *Service) Services(ctx context.Context) ([]content.Service, Source, error) {
	return resolve(ctx, s, keyServices, query.Options{}, s.client.Services, noDefault[[]content.Service])
}

func (s *Service) Clients(ctx context.Context) ([]content.Client, Source, error) {
	return resolve(ctx, s, keyClients, query.Options{}, s.client.Clients, noDefault[[]content.Client])
}

func (s *Service) Articles(ctx context.Context, publishedOnly bool) ([]content.Article, Source, error) {
	return resolve(ctx, s, keyArticles(publishedOnly), query.Options{}, func(ctx context.Context) ([]content.Article, error) {
		return s.client.Articles(ctx, publishedOnly)
	}, noDefault[[]content.Article])
}

func (s *Service) Locations(ctx context.Context) ([]content.Location, Source, error) {
	return resolve(ctx, s, keyLocations, query.Options{}, s.client.Locations, noDefault[[]content.Location])
}

// SubmitContact forwards a contact submission upstream. Submissions are
// never cached.
func (s *Service) SubmitContact(ctx context.Context, sub content.ContactSubmission) (content.ContactSubmission, error) {
	return s.client.SubmitContact(ctx, sub)
}
