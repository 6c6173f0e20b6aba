package gateway

import (
	"context"
	"io"

	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/query"
	"github.com/starford/ansuz/internal/retry"
)

// Admin write operations. Each runs as a mutation so a successful write
// invalidates the affected cache keys and the next public read observes the
// edit.

func (s *Service) CreateTeamMember(ctx context.Context, tm content.TeamMember) (content.TeamMember, error) {
	m := &query.Mutation[content.TeamMember, content.TeamMember]{
		Fn:          s.client.CreateTeamMember,
		Invalidates: []query.Key{keyTeam},
		OnSuccess: func(ctx context.Context, in, out content.TeamMember) {
			// The slug is upstream-assigned on create; invalidate the
			// detail key from the response.
			if out.Slug != "" {
				s.cache.Invalidate(keyTeamMember(out.Slug))
			}
		},
	}
	return m.Do(ctx, s.cache, tm)
}

func (s *Service) UpdateTeamMember(ctx context.Context, id int64, tm content.TeamMember) (content.TeamMember, error) {
	invalidates := []query.Key{keyTeam}
	if tm.Slug != "" {
		invalidates = append(invalidates, keyTeamMember(tm.Slug))
	}
	m := &query.Mutation[content.TeamMember, content.TeamMember]{
		Fn: func(ctx context.Context, in content.TeamMember) (content.TeamMember, error) {
			return s.client.UpdateTeamMember(ctx, id, in)
		},
		Invalidates: invalidates,
	}
	return m.Do(ctx, s.cache, tm)
}

func (s *Service) DeleteTeamMember(ctx context.Context, id int64) error {
	m := &query.Mutation[int64, struct{}]{
		Fn: func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, s.client.DeleteTeamMember(ctx, id)
		},
		Invalidates: []query.Key{keyTeam},
	}
	_, err := m.Do(ctx, s.cache, id)
	return err
}

func (s *Service) UpdateAbout(ctx context.Context, ac content.AboutContent) (content.AboutContent, error) {
	m := &query.Mutation[content.AboutContent, content.AboutContent]{
		Fn:          s.client.UpdateAboutContent,
		Invalidates: []query.Key{keyAbout},
	}
	return m.Do(ctx, s.cache, ac)
}

type photoUpload struct {
	id       int64
	filename string
	photo    io.Reader
}

func (s *Service) UploadTeamPhoto(ctx context.Context, id int64, filename string, photo io.Reader) (content.TeamMember, error) {
	m := &query.Mutation[photoUpload, content.TeamMember]{
		Fn: func(ctx context.Context, in photoUpload) (content.TeamMember, error) {
			return s.client.UploadTeamPhoto(ctx, in.id, in.filename, in.photo)
		},
		// The photo stream is consumed on the first attempt and cannot be
		// replayed, so this write never retries.
		Retry:       &retry.Policy{MaxAttempts: 1},
		Invalidates: []query.Key{keyTeam},
		OnSuccess: func(ctx context.Context, in photoUpload, out content.TeamMember) {
			if out.Slug != "" {
				s.cache.Invalidate(keyTeamMember(out.Slug))
			}
		},
	}
	return m.Do(ctx, s.cache, photoUpload{id: id, filename: filename, photo: photo})
}

func (s *Service) CreateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	m := &query.Mutation[content.Article, content.Article]{
		Fn:          s.client.CreateArticle,
		Invalidates: articleKeys,
	}
	return m.Do(ctx, s.cache, a)
}

func (s *Service) UpdateArticle(ctx context.Context, id int64, a content.Article) (content.Article, error) {
	m := &query.Mutation[content.Article, content.Article]{
		Fn: func(ctx context.Context, in content.Article) (content.Article, error) {
			return s.client.UpdateArticle(ctx, id, in)
		},
		Invalidates: articleKeys,
	}
	return m.Do(ctx, s.cache, a)
}

func (s *Service) DeleteArticle(ctx context.Context, id int64) error {
	m := &query.Mutation[int64, struct{}]{
		Fn: func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, s.client.DeleteArticle(ctx, id)
		},
		Invalidates: articleKeys,
	}
	_, err := m.Do(ctx, s.cache, id)
	return err
}

func (s *Service) CreateLocation(ctx context.Context, loc content.Location) (content.Location, error) {
	m := &query.Mutation[content.Location, content.Location]{
		Fn:          s.client.CreateLocation,
		Invalidates: []query.Key{keyLocations},
	}
	return m.Do(ctx, s.cache, loc)
}

func (s *Service) UpdateLocation(ctx context.Context, id int64, loc content.Location) (content.Location, error) {
	m := &query.Mutation[content.Location, content.Location]{
		Fn: func(ctx context.Context, in content.Location) (content.Location, error) {
			return s.client.UpdateLocation(ctx, id, in)
		},
		Invalidates: []query.Key{keyLocations},
	}
	return m.Do(ctx, s.cache, loc)
}

func (s *Service) DeleteLocation(ctx context.Context, id int64) error {
	m := &query.Mutation[int64, struct{}]{
		Fn: func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, s.client.DeleteLocation(ctx, id)
		},
		Invalidates: []query.Key{keyLocations},
	}
	_, err := m.Do(ctx, s.cache, id)
	return err
}

func (s *Service) CreateClient(ctx context.Context, cl content.Client) (content.Client, error) {
	m := &query.Mutation[content.Client, content.Client]{
		Fn:          s.client.CreateClient,
		Invalidates: []query.Key{keyClients},
	}
	return m.Do(ctx, s.cache, cl)
}

func (s *Service) UpdateClient(ctx context.Context, id int64, cl content.Client) (content.Client, error) {
	m := &query.Mutation[content.Client, content.Client]{
		Fn: func(ctx context.Context, in content.Client) (content.Client, error) {
			return s.client.UpdateClient(ctx, id, in)
		},
		Invalidates: []query.Key{keyClients},
	}
	return m.Do(ctx, s.cache, cl)
}

func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	m := &query.Mutation[int64, struct{}]{
		Fn: func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, s.client.DeleteClient(ctx, id)
		},
		Invalidates: []query.Key{keyClients},
	}
	_, err := m.Do(ctx, s.cache, id)
	return err
}

// ReplaceHeroSlides swaps the whole hero carousel; slides are edited as a
// set, not row by row.
func (s *Service) ReplaceHeroSlides(ctx context.Context, slides []content.HeroSlide) ([]content.HeroSlide, error) {
	m := &query.Mutation[[]content.HeroSlide, []content.HeroSlide]{
		Fn:          s.client.ReplaceHeroSlides,
		Invalidates: []query.Key{keyHeroSlides},
	}
	return m.Do(ctx, s.cache, slides)
}

// ReplaceImpactStats swaps the whole headline-figures set.
func (s *Service) ReplaceImpactStats(ctx context.Context, stats []content.ImpactStat) ([]content.ImpactStat, error) {
	m := &query.Mutation[[]content.ImpactStat, []content.ImpactStat]{
		Fn:          s.client.ReplaceImpactStats,
		Invalidates: []query.Key{keyImpactStats},
	}
	return m.Do(ctx, s.cache, stats)
}

func (s *Service) UpdateFooter(ctx context.Context, fs content.FooterSettings) (content.FooterSettings, error) {
	m := &query.Mutation[content.FooterSettings, content.FooterSettings]{
		Fn:          s.client.UpdateFooterSettings,
		Invalidates: []query.Key{keyFooter},
	}
	return m.Do(ctx, s.cache, fs)
}

// articleKeys are the list variants an article write touches; both the full
// and the published-only list go stale together.
var articleKeys = []query.Key{keyArticles(false), keyArticles(true)}

// ContactSubmissions lists inbound messages. Admin reads bypass the cache:
// the editor always sees live data.
func (s *Service) ContactSubmissions(ctx context.Context) ([]content.ContactSubmission, error) {
	return s.client.ContactSubmissions(ctx)
}
