package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/solarinfra/internal/domain/admin"
	"github.com/yanqian/solarinfra/internal/domain/auth"
	"github.com/yanqian/solarinfra/internal/domain/catalog"
	"github.com/yanqian/solarinfra/internal/domain/changefeed"
	"github.com/yanqian/solarinfra/internal/domain/estimator"
	"github.com/yanqian/solarinfra/internal/domain/lead"
	"github.com/yanqian/solarinfra/internal/domain/media"
	"github.com/yanqian/solarinfra/internal/domain/quote"
	"github.com/yanqian/solarinfra/internal/infra/blobstore"
	"github.com/yanqian/solarinfra/internal/infra/config"
	"github.com/yanqian/solarinfra/internal/infra/feedbus"
	"github.com/yanqian/solarinfra/internal/infra/leadrepo"
	"github.com/yanqian/solarinfra/internal/infra/productrepo"
	"github.com/yanqian/solarinfra/internal/infra/quoterepo"
	"github.com/yanqian/solarinfra/internal/infra/userrepo"
)

const adminEmail = "ops@solar.example"

type routerFixture struct {
	server  *http.Server
	catalog catalog.Service
}

func TestRouter_QuickEstimate(t *testing.T) {
	f := newRouterUnderTest(t, nil)

	rec := f.do(http.MethodPost, "/api/v1/estimator/quick", `{"monthlyBill":3000}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got estimator.BillEstimate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.InDelta(t, 28800, got.AnnualSavings, 1e-6)

	rec = f.do(http.MethodPost, "/api/v1/estimator/quick", `{"monthlyBill":-1}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_InvalidJSON(t *testing.T) {
	f := newRouterUnderTest(t, nil)

	rec := f.do(http.MethodPost, "/api/v1/estimator/size", `{"appliances":"fridge"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_SizeRejectsUnsupportedPanel(t *testing.T) {
	f := newRouterUnderTest(t, nil)

	body := `{"appliances":[{"name":"fan","wattageWatts":75,"quantity":4,"hoursPerDay":10}],"panelWattage":333}`
	rec := f.do(http.MethodPost, "/api/v1/estimator/size", body, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "unsupported_panel", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	body = `{"appliances":[{"name":"fan","wattageWatts":75,"quantity":4,"hoursPerDay":10}]}`
	rec = f.do(http.MethodPost, "/api/v1/estimator/size", body, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got estimator.SizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.InDelta(t, 3.0, got.Load.DailyEnergyKWh, 1e-9)

	body = `{"appliances":[],"monthlyUnitsKWh":3e21}`
	rec = f.do(http.MethodPost, "/api/v1/estimator/size", body, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_ProductProjection(t *testing.T) {
	f := newRouterUnderTest(t, nil)
	productID := f.firstProductID(t)

	rec := f.do(http.MethodGet, "/api/v1/products/"+productID+"/projection?bill=0", "", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "division_undefined", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = f.do(http.MethodGet, "/api/v1/products/"+productID+"/projection?bill=abc", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/products/missing", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AdminGating(t *testing.T) {
	f := newRouterUnderTest(t, nil)
	userToken := f.signUp(t, "asha@example.com")
	adminToken := f.signUp(t, adminEmail)

	rec := f.do(http.MethodGet, "/api/v1/admin/overview", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/admin/overview", "", userToken)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = f.do(http.MethodGet, "/api/v1/admin/overview", "", "not-a-jwt")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "invalid_token", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = f.do(http.MethodGet, "/api/v1/admin/overview", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var overview admin.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	require.Len(t, overview.Users, 2)
	require.Len(t, overview.Products, 4)
}

func TestRouter_QuoteLifecycle(t *testing.T) {
	f := newRouterUnderTest(t, nil)
	userToken := f.signUp(t, "asha@example.com")
	adminToken := f.signUp(t, adminEmail)
	productID := f.firstProductID(t)

	body := `{"productId":"` + productID + `","address":{"street":"12 MG Road","city":"Pune","pincode":"411001"},"phone":"+91 98765 43210"}`
	rec := f.do(http.MethodPost, "/api/v1/quotes", body, userToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var q quote.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	require.Equal(t, quote.StatusPending, q.Status)
	require.Equal(t, "asha", q.UserName)

	rec = f.do(http.MethodPost, "/api/v1/quotes/"+q.ID+"/accept", "", userToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_transition", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = f.do(http.MethodPost, "/api/v1/admin/quotes/"+q.ID+"/revise", `{"notes":"festival offer"}`, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/v1/quotes/"+q.ID+"/accept", "", userToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/quotes/"+q.ID+"/pay", "", userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	require.Equal(t, quote.StatusPaid, q.Status)
	require.True(t, strings.HasPrefix(q.PaymentRef, "SIM-"))

	otherToken := f.signUp(t, "ravi@example.com")
	rec = f.do(http.MethodPost, "/api/v1/quotes/"+q.ID+"/reject", "", otherToken)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_LeadCaptureIsAnonymousFriendly(t *testing.T) {
	f := newRouterUnderTest(t, nil)
	adminToken := f.signUp(t, adminEmail)

	rec := f.do(http.MethodPost, "/api/v1/leads", `{"monthlyBill":2500,"email":"visitor@example.com"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var l lead.DesignLead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	require.Empty(t, l.UserID)

	rec = f.do(http.MethodPatch, "/api/v1/admin/leads/"+l.ID, `{"status":"contacted"}`, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	require.Equal(t, lead.StatusContacted, l.Status)
}

func TestRouter_BillUploadAndAccess(t *testing.T) {
	f := newRouterUnderTest(t, nil)
	ownerToken := f.signUp(t, "asha@example.com")
	otherToken := f.signUp(t, "ravi@example.com")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="march bill.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := form.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake bill"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/me/bill", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploaded struct {
		Bill media.StoredObject `json:"bill"`
		User auth.UserView      `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	require.Equal(t, uploaded.Bill.URL, uploaded.User.LatestBillURL)
	path := "/api/v1/media/" + uploaded.Bill.Key

	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, path, "", "").Code)
	require.Equal(t, http.StatusForbidden, f.do(http.MethodGet, path, "", otherToken).Code)
	rec = f.do(http.MethodGet, path, "", ownerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "%PDF-1.4 fake bill", rec.Body.String())
}

func TestRouter_StreamChanges(t *testing.T) {
	events := []changefeed.Event{
		{Collection: changefeed.CollectionQuotes, Kind: changefeed.KindCreated, ID: "q1", At: time.Unix(1700000000, 0).UTC()},
		{Collection: changefeed.CollectionQuotes, Kind: changefeed.KindUpdated, ID: "q1", At: time.Unix(1700000060, 0).UTC()},
	}
	feed := &closedFeed{events: events}
	f := newRouterUnderTest(t, feed)
	adminToken := f.signUp(t, adminEmail)

	rec := f.do(http.MethodGet, "/api/v1/admin/stream?collection=payments", "", adminToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/admin/stream?collection=quotes", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, changefeed.CollectionQuotes, feed.subscribed)

	frames := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	require.Len(t, frames, len(events))
	for i, frame := range frames {
		lines := strings.Split(frame, "\n")
		require.Equal(t, "event: change", lines[0])
		var got changefeed.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &got))
		require.Equal(t, events[i], got)
	}
}

func (f *routerFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) signUp(t *testing.T, email string) string {
	t.Helper()
	creds := `{"email":"` + email + `","password":"sunshine-42"}`
	name, _, _ := strings.Cut(email, "@")
	register := `{"email":"` + email + `","password":"sunshine-42","displayName":"` + name + `"}`
	rec := f.do(http.MethodPost, "/api/v1/auth/register", register, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = f.do(http.MethodPost, "/api/v1/auth/login", creds, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (f *routerFixture) firstProductID(t *testing.T) string {
	t.Helper()
	products, err := f.catalog.List(context.Background(), catalog.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, products)
	return products[0].ID
}

func newRouterUnderTest(t *testing.T, sub changefeed.Subscriber) *routerFixture {
	t.Helper()
	logger := newTestLogger()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			Secret:          "router-test-secret",
			TokenTTL:        time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			AdminEmails:     []string{adminEmail},
		},
	}
	feed := feedbus.NewMemoryFeed()
	if sub == nil {
		sub = feed
	}

	estimatorSvc := estimator.NewService(estimator.StaticSource(estimator.DefaultConfig()), logger)
	authSvc := auth.NewService(auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		AdminEmails:     cfg.Auth.AdminEmails,
	}, userrepo.NewMemoryRepository(), feed, logger)
	mediaSvc := media.NewService(media.Config{}, blobstore.NewMemoryStorage(blobstore.DefaultPublicBase), nil, logger)
	catalogSvc := catalog.NewService(catalog.Config{EMIDivisor: 30, SavingsRate: 0.025, SeedOnEmpty: true},
		productrepo.NewMemoryRepository(), estimatorSvc, mediaSvc, feed, logger)
	_, err := catalogSvc.Seed(context.Background())
	require.NoError(t, err)
	quoteSvc := quote.NewService(quote.Config{RevisionDiscount: quote.DefaultRevisionDiscount},
		quoterepo.NewMemoryRepository(), catalogSvc, quote.SimulatedGateway{}, feed, logger)
	leadSvc := lead.NewService(leadrepo.NewMemoryRepository(), estimatorSvc, feed, logger)
	adminSvc := admin.NewService(authSvc, catalogSvc, quoteSvc, leadSvc, logger)

	handler := NewHandler(cfg, estimatorSvc, authSvc, catalogSvc, quoteSvc, leadSvc, adminSvc, mediaSvc, sub, logger)
	return &routerFixture{server: NewRouter(cfg, handler), catalog: catalogSvc}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

// closedFeed replays a fixed batch of events then ends the stream.
type closedFeed struct {
	events     []changefeed.Event
	subscribed changefeed.Collection
}

func (f *closedFeed) Subscribe(_ context.Context, collection changefeed.Collection) (<-chan changefeed.Event, error) {
	f.subscribed = collection
	ch := make(chan changefeed.Event, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
