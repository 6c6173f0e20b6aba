// Package content defines the consumer-side records returned by the
// upstream content API. The cache layer stores and invalidates these by key
// without interpreting their fields.
package content

// Provenance is the updated_at/updated_by pair every editable record carries.
type Provenance struct {
	UpdatedAt string `json:"updated_at,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
}

// Service is a consulting service line shown on the services page.
type Service struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	SortOrder   int    `json:"sort_order,omitempty"`
	Provenance
}

// Project is a reference project shown on the projects page.
type Project struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Client   string   `json:"client,omitempty"`
	Sector   string   `json:"sector,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Body     string   `json:"body,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Provenance
}

// TeamMember is a staff profile shown on the team pages.
type TeamMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Role      string `json:"role,omitempty"`
	Bio       string `json:"bio,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	Email     string `json:"email,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	SortOrder int    `json:"sort_order,omitempty"`
	Provenance
}

// Location is an office location with display coordinates.
type Location struct {
	ID      int64   `json:"id"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Address string  `json:"address,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
	Provenance
}

// Article is a news/insights entry.
type Article struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Excerpt     string `json:"excerpt,omitempty"`
	Body        string `json:"body,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	Published   bool   `json:"published"`
	PublishedAt string `json:"published_at,omitempty"`
	Provenance
}

// Client is a client/partner logo entry.
type Client struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	LogoURL   string `json:"logo_url,omitempty"`
	Website   string `json:"website,omitempty"`
	SortOrder int    `json:"sort_order,omitempty"`
	Provenance
}

// HeroSlide is a home-page hero carousel entry.
type HeroSlide struct {
	ID        int64  `json:"id"`
	Headline  string `json:"headline"`
	Subline   string `json:"subline,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	CTALabel  string `json:"cta_label,omitempty"`
	CTALink   string `json:"cta_link,omitempty"`
	SortOrder int    `json:"sort_order,omitempty"`
	Provenance
}

// ImpactStat is a headline figure ("120 projects delivered") on the home page.
type ImpactStat struct {
	ID        int64  `json:"id"`
	Label     string `json:"label"`
	Value     string `json:"value"`
	Suffix    string `json:"suffix,omitempty"`
	SortOrder int    `json:"sort_order,omitempty"`
	Provenance
}

// FooterSettings is the single footer configuration record.
type FooterSettings struct {
	ID        int64             `json:"id"`
	Tagline   string            `json:"tagline,omitempty"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Address   string            `json:"address,omitempty"`
	Social    map[string]string `json:"social,omitempty"`
	Copyright string            `json:"copyright,omitempty"`
	Provenance
}

// AboutContent is the single about-section record.
type AboutContent struct {
	ID       int64  `json:"id"`
	Heading  string `json:"heading"`
	Body     string `json:"body"`
	ImageURL string `json:"image_url,omitempty"`
	Provenance
}

// ContactSubmission is an inbound contact-form message.
type ContactSubmission struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at,omitempty"`
}

// User is the authenticated admin user attached to a credential.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}
