package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/starford/ansuz/internal/content"
)

// Content read adapters: one function per resource, wrapping Do with the
// fixed upstream path and envelope shape. No caching lives here.

// HeroSlides returns the home-page hero carousel entries.
func (c *Client) HeroSlides(ctx context.Context) ([]content.HeroSlide, error) {
	return get[[]content.HeroSlide](ctx, c, "/api/hero-slides")
}

// AboutContent returns the single about-section record.
func (c *Client) AboutContent(ctx context.Context) (content.AboutContent, error) {
	return get[content.AboutContent](ctx, c, "/api/about-content")
}

// ImpactStats returns the home-page headline figures.
func (c *Client) ImpactStats(ctx context.Context) ([]content.ImpactStat, error) {
	return get[[]content.ImpactStat](ctx, c, "/api/impact-stats")
}

// FooterSettings returns the footer configuration record.
func (c *Client) FooterSettings(ctx context.Context) (content.FooterSettings, error) {
	return get[content.FooterSettings](ctx, c, "/api/footer")
}

// TeamMembers returns all staff profiles.
func (c *Client) TeamMembers(ctx context.Context) ([]content.TeamMember, error) {
	return get[[]content.TeamMember](ctx, c, "/api/team")
}

// TeamMember returns one staff profile by slug.
func (c *Client) TeamMember(ctx context.Context, slug string) (content.TeamMember, error) {
	return get[content.TeamMember](ctx, c, "/api/team/"+url.PathEscape(slug))
}

// Projects returns the reference projects.
func (c *Client) Projects(ctx context.Context) ([]content.Project, error) {
	return get[[]content.Project](ctx, c, "/api/content/projects")
}

// Services returns the service lines.
func (c *Client) Services(ctx context.Context) ([]content.Service, error) {
	return get[[]content.Service](ctx, c, "/api/content/services")
}

// Clients returns the client/partner entries.
func (c *Client) Clients(ctx context.Context) ([]content.Client, error) {
	return get[[]content.Client](ctx, c, "/api/content/clients")
}

// Articles returns news entries, optionally only published ones.
func (c *Client) Articles(ctx context.Context, publishedOnly bool) ([]content.Article, error) {
	path := "/api/articles"
	if publishedOnly {
		path += "?published=true"
	}
	return get[[]content.Article](ctx, c, path)
}

// Locations returns the office locations.
func (c *Client) Locations(ctx context.Context) ([]content.Location, error) {
	return get[[]content.Location](ctx, c, "/api/locations")
}

// SubmitContact posts a contact-form submission.
func (c *Client) SubmitContact(ctx context.Context, sub content.ContactSubmission) (content.ContactSubmission, error) {
	return post[content.ContactSubmission](ctx, c, "/api/contact", sub)
}

// Admin write adapters. These are admin-scoped: the wrapper attaches the
// bearer credential and any 401 runs the unauthorized side effect.

// ContactSubmissions lists inbound contact messages (admin).
func (c *Client) ContactSubmissions(ctx context.Context) ([]content.ContactSubmission, error) {
	return get[[]content.ContactSubmission](ctx, c, "/api/admin/contact")
}

// CreateTeamMember creates a staff profile (admin).
func (c *Client) CreateTeamMember(ctx context.Context, tm content.TeamMember) (content.TeamMember, error) {
	return post[content.TeamMember](ctx, c, "/api/admin/team", tm)
}

// UpdateTeamMember updates a staff profile (admin).
func (c *Client) UpdateTeamMember(ctx context.Context, id int64, tm content.TeamMember) (content.TeamMember, error) {
	return put[content.TeamMember](ctx, c, fmt.Sprintf("/api/admin/team/%d", id), tm)
}

// DeleteTeamMember removes a staff profile (admin).
func (c *Client) DeleteTeamMember(ctx context.Context, id int64) error {
	return del(ctx, c, fmt.Sprintf("/api/admin/team/%d", id))
}

// UpdateAboutContent replaces the about-section record (admin).
func (c *Client) UpdateAboutContent(ctx context.Context, ac content.AboutContent) (content.AboutContent, error) {
	return put[content.AboutContent](ctx, c, "/api/admin/about-content", ac)
}

// CreateArticle creates a news entry (admin).
func (c *Client) CreateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	return post[content.Article](ctx, c, "/api/admin/articles", a)
}

// UpdateArticle updates a news entry (admin).
func (c *Client) UpdateArticle(ctx context.Context, id int64, a content.Article) (content.Article, error) {
	return put[content.Article](ctx, c, fmt.Sprintf("/api/admin/articles/%d", id), a)
}

// DeleteArticle removes a news entry (admin).
func (c *Client) DeleteArticle(ctx context.Context, id int64) error {
	return del(ctx, c, fmt.Sprintf("/api/admin/articles/%d", id))
}

// CreateLocation creates an office location (admin).
func (c *Client) CreateLocation(ctx context.Context, loc content.Location) (content.Location, error) {
	return post[content.Location](ctx, c, "/api/admin/locations", loc)
}

// UpdateLocation updates an office location (admin).
func (c *Client) UpdateLocation(ctx context.Context, id int64, loc content.Location) (content.Location, error) {
	return put[content.Location](ctx, c, fmt.Sprintf("/api/admin/locations/%d", id), loc)
}

// DeleteLocation removes an office location (admin).
func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	return del(ctx, c, fmt.Sprintf("/api/admin/locations/%d", id))
}

// CreateClient creates a client/partner entry (admin).
func (c *Client) CreateClient(ctx context.Context, cl content.Client) (content.Client, error) {
	return post[content.Client](ctx, c, "/api/admin/clients", cl)
}

// UpdateClient updates a client/partner entry (admin).
func (c *Client) UpdateClient(ctx context.Context, id int64, cl content.Client) (content.Client, error) {
	return put[content.Client](ctx, c, fmt.Sprintf("/api/admin/clients/%d", id), cl)
}

// DeleteClient removes a client/partner entry (admin).
func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	return del(ctx, c, fmt.Sprintf("/api/admin/clients/%d", id))
}

// ReplaceHeroSlides replaces the hero carousel as a whole (admin).
func (c *Client) ReplaceHeroSlides(ctx context.Context, slides []content.HeroSlide) ([]content.HeroSlide, error) {
	return put[[]content.HeroSlide](ctx, c, "/api/admin/hero-slides", slides)
}

// ReplaceImpactStats replaces the headline figures as a whole (admin).
func (c *Client) ReplaceImpactStats(ctx context.Context, stats []content.ImpactStat) ([]content.ImpactStat, error) {
	return put[[]content.ImpactStat](ctx, c, "/api/admin/impact-stats", stats)
}

// UpdateFooterSettings replaces the footer configuration record (admin).
func (c *Client) UpdateFooterSettings(ctx context.Context, fs content.FooterSettings) (content.FooterSettings, error) {
	return put[content.FooterSettings](ctx, c, "/api/admin/footer", fs)
}

// UploadTeamPhoto uploads a staff photo as multipart/form-data (admin). The
// multipart writer supplies the content type so the boundary is generated
// automatically.
func (c *Client) UploadTeamPhoto(ctx context.Context, id int64, filename string, photo io.Reader) (content.TeamMember, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return content.TeamMember{}, fmt.Errorf("apiclient: build multipart: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return content.TeamMember{}, fmt.Errorf("apiclient: copy photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return content.TeamMember{}, fmt.Errorf("apiclient: close multipart: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/admin/team/%d/photo", id),
		Raw{ContentType: mw.FormDataContentType(), Body: &buf})
	if err != nil {
		return content.TeamMember{}, err
	}
	return decodeEnvelope[content.TeamMember](resp)
}
