package server

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/dukerupert/nacp/internal/archive"
	"github.com/dukerupert/nacp/internal/config"
	"github.com/dukerupert/nacp/internal/database"
	"github.com/dukerupert/nacp/internal/email"
	"github.com/dukerupert/nacp/internal/geo"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t      *testing.T
	db     *sql.DB
	server *httptest.Server
	client *http.Client
}

// fakeGeo answers ipinfo and Nominatim requests with a fixed Exuma address.
func fakeGeo(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/reverse" {
			w.Write([]byte(`{"display_name": "Queen's Highway, George Town, Exuma",
				"address": {"road": "Queen's Highway", "town": "George Town", "state": "Exuma", "country": "The Bahamas"}}`))
			return
		}
		w.Write([]byte(`{"loc": "23.5167,-75.7833", "city": "George Town", "region": "Exuma"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.DiscardHandler)
	geoSrv := fakeGeo(t)
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, BaseURL: "http://localhost:8080"},
		Admin:  config.AdminConfig{Credentials: map[string]string{"admin": "secret123"}},
		Survey: config.SurveyConfig{TotalSections: 5},
	}
	geoClient := geo.NewClient(geo.Config{IPInfoURL: geoSrv.URL, NominatimURL: geoSrv.URL}, logger)
	srv, err := New(db, cfg, geoClient, email.NewClient("", "", cfg.Server.BaseURL), archive.New(archive.Config{}, logger), logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{t: t, db: db, server: ts, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (e *testEnv) get(client *http.Client, path string) (int, string) {
	e.t.Helper()
	resp, err := client.Get(e.server.URL + path)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (e *testEnv) post(client *http.Client, path string, form url.Values) (int, string) {
	e.t.Helper()
	resp, err := client.PostForm(e.server.URL+path, form)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func registrationForm() url.Values {
	return url.Values{
		"consent":               {"I do wish to participate"},
		"first_name":            {"Marva"},
		"last_name":             {"Rolle"},
		"email":                 {"marva@example.bs"},
		"telephone":             {"(242) 456-4567"},
		"communication_methods": {"Email", "WhatsApp"},
		"interview_methods":     {"Phone Interview"},
		"island":                {"Exuma"},
		"settlement":            {"George Town"},
		"street_address":        {"Queen's Highway"},
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	code, body := e.get(e.client, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestWizardFlow(t *testing.T) {
	e := newTestEnv(t)
	c := e.client

	code, body := e.get(c, "/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Start registration")

	code, body = e.post(c, "/start", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `value="George Town"`, "settlement prefilled from the detected address")

	code, body = e.post(c, "/registration", registrationForm())
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "When are you available?")

	code, _ = e.post(c, "/availability", url.Values{"times": {"Morning (7-10am)"}})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body = e.post(c, "/availability", url.Values{"days": {"Friday", "Monday"}, "times": {"Morning (7-10am)"}})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Where is your holding?")

	code, body = e.post(c, "/location", url.Values{"action": {"save"}, "latitude": {"23.5167"}, "longitude": {"75.7833"}})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Please confirm your registration")
	assert.Contains(t, body, "-75.783300", "positive longitude flipped west")

	code, body = e.post(c, "/confirm", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Registration confirmed")

	regs, total, err := store.NewRegistrationStore(e.db).List(store.RegistrationFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	reg := regs[0]
	assert.True(t, reg.Confirmed)
	assert.Equal(t, []string{"Monday", "Friday"}, reg.AvailableDays)
	assert.Equal(t, "Exuma", reg.Island)
}

func TestWizardDeclineSavesNothing(t *testing.T) {
	e := newTestEnv(t)
	c := e.client
	e.post(c, "/start", nil)

	form := registrationForm()
	form.Set("consent", "I do not wish to participate")
	code, body := e.post(c, "/registration", form)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "You have chosen not to participate")

	_, total, err := store.NewRegistrationStore(e.db).List(store.RegistrationFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWizardRegistrationErrors(t *testing.T) {
	e := newTestEnv(t)
	c := e.client
	e.post(c, "/start", nil)

	form := registrationForm()
	form.Set("email", "not-an-email")
	code, body := e.post(c, "/registration", form)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body, "Enter a valid email address")
	assert.Contains(t, body, `value="Marva"`, "entered values are kept")

	// Posting to a later step redirects back to the current page.
	code, body = e.post(c, "/confirm", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "first_name")
}

func TestLocationReverse(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.get(e.client, "/api/location/reverse?lat=23.5167&lon=-75.7833")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "George Town")
	assert.Contains(t, body, `"warnings":[]`)

	code, _ = e.get(e.client, "/api/location/reverse?lat=abc&lon=1")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLocationLookupsRateLimited(t *testing.T) {
	e := newTestEnv(t)
	for i := 0; i < geoLookupsPerMinute; i++ {
		code, _ := e.get(e.client, "/api/location/reverse?lat=23.5167&lon=-75.7833")
		require.Equal(t, http.StatusOK, code, "lookup %d", i+1)
	}
	code, _ := e.get(e.client, "/api/location/detect")
	assert.Equal(t, http.StatusTooManyRequests, code)

	// Login keeps its own budget.
	code, _ = e.post(e.client, "/admin/login", url.Values{"username": {"admin"}, "password": {"secret123"}})
	assert.Equal(t, http.StatusOK, code)
}

func loginAdmin(t *testing.T, e *testEnv) *http.Client {
	t.Helper()
	c := newClient(t)
	code, body := e.post(c, "/admin/login", url.Values{"username": {"Admin"}, "password": {"secret123"}})
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "Registrations")
	return c
}

func TestAdminRequiresLogin(t *testing.T) {
	e := newTestEnv(t)
	code, body := e.get(e.client, "/admin/registrations")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `name="password"`, "redirected to the login page")

	code, _ = e.post(e.client, "/admin/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminExportAndDelete(t *testing.T) {
	e := newTestEnv(t)
	regStore := store.NewRegistrationStore(e.db)
	reg, err := regStore.Create(model.RegistrationInput{
		FirstName: "Kendrick", LastName: "Ferguson", Email: "k@example.bs", Telephone: "(242) 555-0101",
		CommunicationMethods: []string{"Email"}, InterviewMethods: []string{"Phone Interview"},
		Island: "Andros", Settlement: "Fresh Creek", StreetAddress: "Main Road",
	})
	require.NoError(t, err)

	admin := loginAdmin(t, e)

	code, body := e.get(admin, "/admin/tables/registration_form/export?format=csv")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Kendrick")

	code, _ = e.get(admin, "/admin/tables/sqlite_master/export?format=csv")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.post(admin, "/admin/tables/registration_form/archive", url.Values{"format": {"csv"}})
	assert.Equal(t, http.StatusServiceUnavailable, code)

	// Deleting needs an explicit confirmation.
	id := url.Values{"id": {strconv.FormatInt(reg.ID, 10)}}
	code, _ = e.post(admin, "/admin/tables/registration_form/delete", id)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	id.Set("confirm", "yes")
	code, _ = e.post(admin, "/admin/tables/registration_form/delete", id)
	assert.Equal(t, http.StatusOK, code)

	got, err := regStore.GetByID(reg.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
