package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apiclient"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/session"
	"github.com/starford/ansuz/internal/testutil"
)

const testToken = "tok-123"

func newClient(t *testing.T, up *testutil.Upstream) (*apiclient.Client, *session.Manager) {
	t.Helper()
	sess := session.NewManager(session.NewMemoryStore())
	c, err := apiclient.New(up.URL(), sess, apiclient.WithHTTPClient(up.Server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return c, sess
}

func login(t *testing.T, c *apiclient.Client) {
	t.Helper()
	if _, err := c.Login(context.Background(), "editor", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestNewRejectsRelativeBase(t *testing.T) {
	sess := session.NewManager(session.NewMemoryStore())
	if _, err := apiclient.New("/api", sess); err == nil {
		t.Fatal("expected error for relative base url")
	}
}

func TestReadAdapterDecodesEnvelope(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	up.SetData("/api/content/services", []content.Service{
		{ID: 1, Title: "Advisory", Slug: "advisory"},
		{ID: 2, Title: "Delivery", Slug: "delivery"},
	})
	c, _ := newClient(t, up)

	got, err := c.Services(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Slug != "advisory" {
		t.Errorf("services = %+v", got)
	}
}

func TestPublishedFilterReachesUpstream(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	up.SetData("/api/articles?published=true", []content.Article{{ID: 7, Title: "Launch", Published: true}})
	up.SetData("/api/articles", []content.Article{{ID: 7}, {ID: 8}})
	c, _ := newClient(t, up)

	pub, err := c.Articles(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(pub) != 1 || !pub[0].Published {
		t.Errorf("published articles = %+v", pub)
	}

	all, err := c.Articles(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all articles = %+v", all)
	}
}

func TestNotFoundIsTyped(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	c, _ := newClient(t, up)

	_, err := c.Locations(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
	var st *apperr.Status
	if !errors.As(err, &st) || st.Code != http.StatusNotFound {
		t.Errorf("err = %v, want *apperr.Status 404", err)
	}
}

func TestServerErrorCarriesBody(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	up.SetStatus("/api/team", http.StatusBadGateway)
	c, _ := newClient(t, up)

	_, err := c.TeamMembers(context.Background())
	var st *apperr.Status
	if !errors.As(err, &st) {
		t.Fatalf("err = %v", err)
	}
	if st.Code != http.StatusBadGateway {
		t.Errorf("code = %d", st.Code)
	}
	if !strings.Contains(st.Body, "scripted failure") {
		t.Errorf("body = %q, want upstream message preserved", st.Body)
	}
}

func TestLoginEstablishesCredential(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	c, sess := newClient(t, up)

	cred, err := c.Login(context.Background(), "editor", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if cred.Token != testToken || cred.User.Username != "editor" {
		t.Errorf("cred = %+v", cred)
	}
	if got, ok := sess.Current(); !ok || got.Token != testToken {
		t.Errorf("session credential = %+v, ok = %v", got, ok)
	}
}

func TestRejectedLoginDoesNotPolluteReturnPath(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	c, sess := newClient(t, up)

	_, err := c.Login(context.Background(), "editor", "wrong")
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if rp := sess.ConsumeReturnPath(); rp != "" {
		t.Errorf("return path = %q, want empty after rejected login", rp)
	}
}

func TestLoginValidatesInput(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	c, _ := newClient(t, up)

	if _, err := c.Login(context.Background(), "", "hunter2"); err == nil {
		t.Fatal("expected validation error for empty username")
	}
	if n := up.Hits("/api/auth/login"); n != 0 {
		t.Errorf("login hits = %d, want 0 (rejected client-side)", n)
	}
}

func TestBearerAttachedToAdminRequests(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	up.SetData("/api/admin/contact", []content.ContactSubmission{{ID: 9, Name: "Prospect"}})
	c, _ := newClient(t, up)
	login(t, c)

	subs, err := c.ContactSubmissions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].ID != 9 {
		t.Errorf("submissions = %+v", subs)
	}
}

func TestUnauthorizedClearsSessionAndRemembersRoute(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	c, sess := newClient(t, up)
	login(t, c)

	// The session expires server-side; the next admin request is rejected.
	up.SetStatus("/api/admin/contact", http.StatusUnauthorized)

	ctx := apiclient.WithRoute(context.Background(), "/admin/messages")
	_, err := c.ContactSubmissions(ctx)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if _, ok := sess.Current(); ok {
		t.Error("credential not cleared after 401")
	}
	if rp := sess.ConsumeReturnPath(); rp != "/admin/messages" {
		t.Errorf("return path = %q, want /admin/messages", rp)
	}
}

func TestStaleTokenRejectedWithoutBlindRetry(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	c, sess := newClient(t, up)

	// A token the upstream no longer accepts.
	if err := sess.Establish(session.Credential{Token: "expired", User: content.User{Username: "editor"}}); err != nil {
		t.Fatal(err)
	}

	_, err := c.ContactSubmissions(context.Background())
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if n := up.Hits("/api/admin/contact"); n != 1 {
		t.Errorf("hits = %d, want exactly 1 (no automatic retry with a dead token)", n)
	}
	if tok := sess.Token(); tok != "" {
		t.Errorf("token = %q, want cleared", tok)
	}
}

func TestAdminTeamLifecycle(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	c, _ := newClient(t, up)
	login(t, c)

	created, err := c.CreateTeamMember(context.Background(), content.TeamMember{Name: "Anna Quist", Slug: "anna-quist", Role: "Partner"})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 {
		t.Fatal("created member has no id")
	}

	created.Role = "Managing Partner"
	updated, err := c.UpdateTeamMember(context.Background(), created.ID, created)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Role != "Managing Partner" {
		t.Errorf("role = %q", updated.Role)
	}

	if err := c.DeleteTeamMember(context.Background(), created.ID); err != nil {
		t.Fatal(err)
	}
	if team := up.Team(); len(team) != 0 {
		t.Errorf("team after delete = %+v", team)
	}
}

func TestAdminContentWriteAdapters(t *testing.T) {
	up := testutil.NewUpstream(t, testToken)
	c, _ := newClient(t, up)
	login(t, c)

	up.SetData("/api/admin/articles", content.Article{ID: 7, Title: "Launch", Slug: "launch"})
	article, err := c.CreateArticle(context.Background(), content.Article{Title: "Launch", Slug: "launch"})
	if err != nil {
		t.Fatal(err)
	}
	if article.ID != 7 {
		t.Errorf("article = %+v", article)
	}

	up.SetData("/api/admin/locations/4", content.Location{ID: 4, City: "Oslo", Country: "NO"})
	loc, err := c.UpdateLocation(context.Background(), 4, content.Location{City: "Oslo", Country: "NO"})
	if err != nil {
		t.Fatal(err)
	}
	if loc.ID != 4 || loc.City != "Oslo" {
		t.Errorf("location = %+v", loc)
	}

	up.SetData("/api/admin/hero-slides", []content.HeroSlide{{ID: 1, Headline: "Welcome"}})
	slides, err := c.ReplaceHeroSlides(context.Background(), []content.HeroSlide{{Headline: "Welcome"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(slides) != 1 || slides[0].Headline != "Welcome" {
		t.Errorf("slides = %+v", slides)
	}
	if n := up.Hits("/api/admin/hero-slides"); n != 1 {
		t.Errorf("hero-slides hits = %d, want 1", n)
	}
}

func TestUploadTeamPhotoSendsMultipart(t *testing.T) {
	var gotContentType string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("photo")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.Close()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"id":4,"photo_url":"/uploads/` + hdr.Filename + `"}}`))
	}))
	defer srv.Close()

	sess := session.NewManager(session.NewMemoryStore())
	if err := sess.Establish(session.Credential{Token: testToken}); err != nil {
		t.Fatal(err)
	}
	c, err := apiclient.New(srv.URL, sess)
	if err != nil {
		t.Fatal(err)
	}

	tm, err := c.UploadTeamPhoto(context.Background(), 4, "anna.jpg", strings.NewReader("jpegbytes"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data; boundary=") {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotAuth != "Bearer "+testToken {
		t.Errorf("authorization = %q", gotAuth)
	}
	if tm.PhotoURL != "/uploads/anna.jpg" {
		t.Errorf("photo url = %q", tm.PhotoURL)
	}
}

func TestEnvelopeSuccessFalseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"message":"maintenance window"}`))
	}))
	defer srv.Close()

	sess := session.NewManager(session.NewMemoryStore())
	c, err := apiclient.New(srv.URL, sess)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Services(context.Background())
	if err == nil || !strings.Contains(err.Error(), "maintenance window") {
		t.Errorf("err = %v, want upstream rejection message", err)
	}
}

func TestMalformedEnvelopeIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	sess := session.NewManager(session.NewMemoryStore())
	c, err := apiclient.New(srv.URL, sess)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.HeroSlides(context.Background()); err == nil {
		t.Error("expected decode error for non-JSON body")
	}
}
