package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodforall/internal/auth"
	"foodforall/internal/payments"
	"foodforall/internal/store/memstore"
	"foodforall/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	keys        []string
	deleted     []string
	contentType string
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImages) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, "https://cdn.example.com/")
	return key, ok && key != ""
}

func (f *fakeImages) Upload(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	f.keys = append(f.keys, key)
	f.contentType = contentType
	return key, nil
}

func (f *fakeImages) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakePayments struct{}

func (fakePayments) CreateDonationIntent(_ context.Context, req *types.FoodRequest) (*payments.Intent, error) {
	cents := req.DonationCents()
	if cents <= 0 {
		return nil, payments.ErrInvalidAmount
	}
	return &payments.Intent{ID: "pi_" + req.ID, ClientSecret: "secret_" + req.ID, Amount: cents, Currency: "usd"}, nil
}

type testServer struct {
	t      *testing.T
	svc    *Service
	store  *memstore.Store
	images *fakeImages
}

func testConfig() *types.Config {
	return &types.Config{
		Environment:         "development",
		TokenSecret:         "test-signing-secret",
		TokenTTL:            time.Hour,
		CookieName:          "Token",
		AllowedOrigins:      []string{"http://localhost:5173"},
		QuantitySortParam:   "quantity",
		ExpirySortParam:     "Sort",
		NameMatch:           "exact",
		ImageMaxUploadBytes: 1 << 20,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memstore.New()
	images := &fakeImages{}

	svc, err := New(testConfig(), logger, store, store, store, images, fakePayments{})
	require.NoError(t, err)

	return &testServer{t: t, svc: svc, store: store, images: images}
}

func (ts *testServer) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	ts.svc.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(email string) *http.Cookie {
	ts.t.Helper()

	rec := ts.do(http.MethodPost, "/jwt", map[string]string{"email": email, "name": "Test User"}, nil)
	require.Equal(ts.t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "Token" {
			return c
		}
	}
	ts.t.Fatal("identity cookie not set")
	return nil
}

func (ts *testServer) addFood(name string, quantity int, expiresIn time.Duration) string {
	ts.t.Helper()

	res, err := ts.store.InsertFood(context.Background(), &types.Food{
		Name:            name,
		Quantity:        quantity,
		ExpiredDateTime: time.Now().Add(expiresIn),
		Donator:         types.Donator{Name: "Donor", Email: "donor@example.com"},
	})
	require.NoError(ts.t, err)
	return res.InsertedID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHomeAndHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Food-for-all SERVER", rec.Body.String())

	rec = ts.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	id := ts.addFood("Rice", 3, time.Hour)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/availableFood"},
		{http.MethodGet, "/availableFood/" + id},
		{http.MethodPut, "/availableFood/" + id},
		{http.MethodDelete, "/availableFood/" + id},
		{http.MethodGet, "/foods/" + id},
		{http.MethodPut, "/food/update/status/" + id},
		{http.MethodPost, "/requestedFood"},
		{http.MethodGet, "/requestedFood"},
		{http.MethodPut, "/requestedFood/update"},
		{http.MethodDelete, "/requestedFood/abc"},
		{http.MethodGet, "/req-food/someone@example.com"},
		{http.MethodPost, "/images"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := ts.do(tt.method, tt.path, map[string]string{}, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unAuthorized", decode[errorResponse](t, rec).Message)
		})
	}
}

func TestRejectsTamperedAndForeignTokens(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/requestedFood", nil, &http.Cookie{Name: "Token", Value: "not-a-sealed-value"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := auth.NewIssuer([]byte("some-other-secret"), time.Hour)
	require.NoError(t, err)
	token, _, err := other.Issue(auth.Identity{Email: "mallory@example.com"})
	require.NoError(t, err)
	sealed, err := ts.svc.cookies.Encode(token)
	require.NoError(t, err)

	rec = ts.do(http.MethodGet, "/requestedFood", nil, &http.Cookie{Name: "Token", Value: sealed})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRequiresEmail(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/jwt", map[string]string{"name": "No Email"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogoutThenRetryIsUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.svc.Handler())
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Post(srv.URL+"/jwt", "application/json", strings.NewReader(`{"email":"ada@example.com"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/requestedFood?email=ada@example.com")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Post(srv.URL+"/logout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/requestedFood?email=ada@example.com")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutClearsSameCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/logout", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "Token", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestPublicListingOnlyReturnsAvailable(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	available := ts.addFood("Rice", 3, time.Hour)
	requested := ts.addFood("Bread", 5, time.Hour)
	delivered := ts.addFood("Soup", 7, time.Hour)

	_, err := ts.store.UpdateFoodStatus(ctx, requested, types.FoodStatusRequested)
	require.NoError(t, err)
	_, err = ts.store.UpdateFoodStatus(ctx, delivered, types.FoodStatusDelivered)
	require.NoError(t, err)

	for _, path := range []string{"/availableFood", "/foods", "/availableFood?status=delivered", "/foods?quantity=1"} {
		rec := ts.do(http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		foods := decode[[]*types.Food](t, rec)
		require.Len(t, foods, 1, path)
		assert.Equal(t, available, foods[0].ID)
		assert.Equal(t, types.FoodStatusAvailable, foods[0].Status)
	}
}

func TestListingFiltersAndSorts(t *testing.T) {
	ts := newTestServer(t)

	ts.addFood("Rice", 3, 3*time.Hour)
	ts.addFood("Bread", 9, 1*time.Hour)
	ts.addFood("Soup", 5, 2*time.Hour)

	names := func(rec *httptest.ResponseRecorder) []string {
		out := []string{}
		for _, f := range decode[[]*types.Food](t, rec) {
			out = append(out, f.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Rice", "Bread", "Soup"}, names(ts.do(http.MethodGet, "/availableFood", nil, nil)))
	assert.Equal(t, []string{"Bread", "Soup", "Rice"}, names(ts.do(http.MethodGet, "/availableFood?quantity=1", nil, nil)))
	assert.Equal(t, []string{"Bread", "Soup", "Rice"}, names(ts.do(http.MethodGet, "/availableFood?Sort=1", nil, nil)))
	assert.Equal(t, []string{"Soup"}, names(ts.do(http.MethodGet, "/availableFood?name=Soup", nil, nil)))
	assert.Equal(t, []string{}, names(ts.do(http.MethodGet, "/availableFood?name=soup", nil, nil)))
	assert.Len(t, names(ts.do(http.MethodGet, "/availableFood?email=donor@example.com", nil, nil)), 3)
	assert.Empty(t, names(ts.do(http.MethodGet, "/availableFood?email=nobody@example.com", nil, nil)))
}

func TestCreateAndFetchFood(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")

	rec := ts.do(http.MethodPost, "/availableFood", map[string]any{
		"foodName":       "Apples",
		"foodQuantity":   12,
		"pickupLocation": "Market St",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	inserted := decode[types.InsertResult](t, rec)
	assert.True(t, inserted.Acknowledged)
	require.NotEmpty(t, inserted.InsertedID)

	rec = ts.do(http.MethodGet, "/foods/"+inserted.InsertedID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	foods := decode[[]*types.Food](t, rec)
	require.Len(t, foods, 1)
	assert.Equal(t, "Apples", foods[0].Name)
	assert.Equal(t, types.FoodStatusAvailable, foods[0].Status)
	assert.Equal(t, "donor@example.com", foods[0].Donator.Email)

	rec = ts.do(http.MethodGet, "/availableFood/missing", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]*types.Food](t, rec))
}

func TestCreateFoodRejectsUnknownStatus(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")

	rec := ts.do(http.MethodPost, "/foods/insert", map[string]any{"foodName": "Apples", "foodStatus": "eaten"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateFoodUpsertsMissingID(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")

	rec := ts.do(http.MethodPut, "/availableFood/brand-new", map[string]any{"foodName": "Pasta", "foodQuantity": 2}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[types.UpdateResult](t, rec)
	assert.Equal(t, int64(1), result.UpsertedCount)
	assert.Equal(t, "brand-new", result.UpsertedID)

	rec = ts.do(http.MethodPut, "/food/update/brand-new", map[string]any{"foodName": "Pasta", "foodQuantity": 4}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	result = decode[types.UpdateResult](t, rec)
	assert.Equal(t, int64(1), result.MatchedCount)
	assert.Equal(t, int64(0), result.UpsertedCount)

	foods, err := ts.store.FoodsByID(context.Background(), "brand-new")
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, 4, foods[0].Quantity)
	assert.Equal(t, types.FoodStatusAvailable, foods[0].Status)
}

func TestUpdateFoodStatusQueryMarksDelivered(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")
	id := ts.addFood("Rice", 3, time.Hour)

	rec := ts.do(http.MethodPut, "/availableFood/"+id+"?status=1", map[string]any{"foodName": "Rice", "foodQuantity": 3}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	foods, err := ts.store.FoodsByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.FoodStatusDelivered, foods[0].Status)
}

func TestStatusOnlyUpdate(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")
	id := ts.addFood("Rice", 3, time.Hour)

	rec := ts.do(http.MethodPut, "/food/update/status/"+id+"?status=unknown", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/food/update/status/"+id+"?status=deliverd", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[types.UpdateResult](t, rec).MatchedCount)

	rec = ts.do(http.MethodPut, "/food/update/status/"+id, map[string]string{"foodStatus": "available"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	foods, err := ts.store.FoodsByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.FoodStatusAvailable, foods[0].Status)
}

func TestDeleteFoodTwice(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")
	id := ts.addFood("Rice", 3, time.Hour)

	rec := ts.do(http.MethodDelete, "/availableFood/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[types.DeleteResult](t, rec).DeletedCount)

	rec = ts.do(http.MethodDelete, "/foods/delete/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decode[types.DeleteResult](t, rec).DeletedCount)
}

func TestClaimIsExclusive(t *testing.T) {
	ts := newTestServer(t)
	id := ts.addFood("Rice", 3, time.Hour)

	first := ts.login("first@example.com")
	second := ts.login("second@example.com")

	rec := ts.do(http.MethodPost, "/requestedFood", map[string]any{"food": map[string]any{"_id": id}, "donationMoney": 5}, first)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[types.InsertResult](t, rec).InsertedID)

	rec = ts.do(http.MethodPost, "/req-food", map[string]any{"food": map[string]any{"_id": id}}, second)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodGet, "/availableFood", nil, nil)
	assert.Empty(t, decode[[]*types.Food](t, rec))

	rec = ts.do(http.MethodGet, "/requestedFood?email=first@example.com", nil, first)
	require.Equal(t, http.StatusOK, rec.Code)

	requests := decode[[]*types.FoodRequest](t, rec)
	require.Len(t, requests, 1)
	assert.Equal(t, "Rice", requests[0].Food.Name)
	assert.Equal(t, types.FoodStatusRequested, requests[0].Food.Status)
	assert.Equal(t, "first@example.com", requests[0].Requester.Email)
}

func TestClaimValidation(t *testing.T) {
	ts := newTestServer(t)
	id := ts.addFood("Rice", 3, time.Hour)
	cookie := ts.login("ada@example.com")

	rec := ts.do(http.MethodPost, "/requestedFood", map[string]any{"donationMoney": 5}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/requestedFood", map[string]any{
		"food":      map[string]any{"_id": id},
		"requester": map[string]any{"email": "someone-else@example.com"},
	}, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, "/requestedFood", map[string]any{"food": map[string]any{"_id": "missing"}}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListRequestsAuthorizesByEmail(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("ada@example.com")

	tests := []struct {
		path string
		want int
	}{
		{"/requestedFood?email=ada@example.com", http.StatusOK},
		{"/req-food/ada@example.com", http.StatusOK},
		{"/requestedFood", http.StatusOK},
		{"/requestedFood?email=bob@example.com", http.StatusForbidden},
		{"/req-food/bob@example.com", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := ts.do(http.MethodGet, tt.path, nil, cookie)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestUpdateAndDeleteRequest(t *testing.T) {
	ts := newTestServer(t)
	id := ts.addFood("Rice", 3, time.Hour)
	cookie := ts.login("ada@example.com")

	rec := ts.do(http.MethodPost, "/requestedFood", map[string]any{"food": map[string]any{"_id": id}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	requestID := decode[types.InsertResult](t, rec).InsertedID

	stored, err := ts.store.Request(context.Background(), requestID)
	require.NoError(t, err)

	body := map[string]any{
		"_id":            requestID,
		"food":           stored.Food,
		"requester":      stored.Requester,
		"donationMoney":  3.5,
		"AdditionlNotes": "after 5pm",
	}
	rec = ts.do(http.MethodPut, "/requestedFood/update?status=delivered", body, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[types.UpdateResult](t, rec).MatchedCount)

	updated, err := ts.store.Request(context.Background(), requestID)
	require.NoError(t, err)
	assert.Equal(t, types.FoodStatusDelivered, updated.Status)
	assert.Equal(t, types.FoodStatusDelivered, updated.Food.Status)
	assert.Equal(t, "after 5pm", updated.AdditionalNotes)
	assert.Equal(t, 3.5, updated.DonationMoney)

	rec = ts.do(http.MethodPut, "/req-food/update/"+requestID+"?status=bogus", body, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, "/requestedFood/"+requestID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[types.DeleteResult](t, rec).DeletedCount)

	rec = ts.do(http.MethodDelete, "/req-food/delete/"+requestID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decode[types.DeleteResult](t, rec).DeletedCount)
}

func TestDonation(t *testing.T) {
	ts := newTestServer(t)
	id := ts.addFood("Rice", 3, time.Hour)
	cookie := ts.login("ada@example.com")

	rec := ts.do(http.MethodPost, "/requestedFood", map[string]any{"food": map[string]any{"_id": id}, "donationMoney": 7.25}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	requestID := decode[types.InsertResult](t, rec).InsertedID

	rec = ts.do(http.MethodPost, "/requestedFood/"+requestID+"/donation", nil, ts.login("bob@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, "/requestedFood/missing/donation", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/requestedFood/"+requestID+"/donation", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	intent := decode[payments.Intent](t, rec)
	assert.Equal(t, "pi_"+requestID, intent.ID)
	assert.Equal(t, int64(725), intent.Amount)

	stored, err := ts.store.Request(context.Background(), requestID)
	require.NoError(t, err)
	assert.Equal(t, intent.ID, stored.PaymentIntentID)
}

func TestDonationRequiresPositiveAmount(t *testing.T) {
	ts := newTestServer(t)
	id := ts.addFood("Rice", 3, time.Hour)
	cookie := ts.login("ada@example.com")

	rec := ts.do(http.MethodPost, "/requestedFood", map[string]any{"food": map[string]any{"_id": id}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	requestID := decode[types.InsertResult](t, rec).InsertedID

	rec = ts.do(http.MethodPost, "/requestedFood/"+requestID+"/donation", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersAndStats(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPut, "/users/ada@example.com", map[string]string{"name": "Ada", "image": "a.png"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[types.UpdateResult](t, rec).UpsertedCount)

	rec = ts.do(http.MethodPut, "/users/ada@example.com", map[string]string{"name": "Ada L."}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[types.UpdateResult](t, rec).MatchedCount)

	rec = ts.do(http.MethodPut, "/users/bob@example.com", map[string]string{"name": "Bob"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := ts.store.UpsertRequest(context.Background(), &types.FoodRequest{ID: "r1", Status: types.FoodStatusDelivered})
	require.NoError(t, err)
	_, err = ts.store.UpsertRequest(context.Background(), &types.FoodRequest{ID: "r2"})
	require.NoError(t, err)

	for _, path := range []string{"/statictic", "/statistics"} {
		rec = ts.do(http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, types.Stats{Users: 2, Delivered: 1}, decode[types.Stats](t, rec))
	}
}

func multipartImage(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return body, mw.FormDataContentType()
}

func TestImageUpload(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	body, contentType := multipartImage(t, "apples.png", png)

	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	ts.svc.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[imageResponse](t, rec)
	assert.True(t, strings.HasPrefix(got.Key, "foods/"))
	assert.True(t, strings.HasSuffix(got.Key, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+got.Key, got.URL)
	assert.Equal(t, "image/png", ts.images.contentType)

	body, contentType = multipartImage(t, "notes.txt", []byte("just some text"))
	req = httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	ts.svc.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Len(t, ts.images.keys, 1)
}

func (ts *testServer) addFoodWithImage(name, image string) string {
	ts.t.Helper()

	res, err := ts.store.InsertFood(context.Background(), &types.Food{
		Name:            name,
		Image:           image,
		Quantity:        1,
		ExpiredDateTime: time.Now().Add(time.Hour),
		Donator:         types.Donator{Name: "Donor", Email: "donor@example.com"},
	})
	require.NoError(ts.t, err)
	return res.InsertedID
}

func TestReplacedImageIsDeleted(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")
	id := ts.addFoodWithImage("Bread", "https://cdn.example.com/foods/old.png")

	rec := ts.do(http.MethodPut, "/availableFood/"+id, map[string]any{
		"foodName":  "Bread",
		"foodImage": "https://cdn.example.com/foods/old.png",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ts.images.deleted)

	rec = ts.do(http.MethodPut, "/food/update/"+id, map[string]any{
		"foodName":  "Bread",
		"foodImage": "https://cdn.example.com/foods/new.png",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"foods/old.png"}, ts.images.deleted)
}

func TestDeletedFoodReleasesImage(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("donor@example.com")

	hosted := ts.addFoodWithImage("Soup", "https://cdn.example.com/foods/soup.png")
	external := ts.addFoodWithImage("Rice", "https://i.ibb.co/rice.png")

	rec := ts.do(http.MethodDelete, "/availableFood/"+hosted, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodDelete, "/availableFood/"+external, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"foods/soup.png"}, ts.images.deleted)

	rec = ts.do(http.MethodDelete, "/availableFood/"+hosted, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, ts.images.deleted, 1)
}

func TestRequestedFoodKeepsImage(t *testing.T) {
	ts := newTestServer(t)
	donor := ts.login("donor@example.com")
	recipient := ts.login("recipient@example.com")
	id := ts.addFoodWithImage("Soup", "https://cdn.example.com/foods/soup.png")

	rec := ts.do(http.MethodPost, "/requestedFood", map[string]any{"food": map[string]any{"_id": id}}, recipient)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodDelete, "/availableFood/"+id, nil, donor)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[types.DeleteResult](t, rec).DeletedCount)
	assert.Empty(t, ts.images.deleted)
}

func TestOptionalRoutesDisabled(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := memstore.New()

	svc, err := New(testConfig(), logger, store, store, store, nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/images", nil)
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrailingSlashRedirect(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/availableFood/?quantity=1", nil, nil)
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/availableFood?quantity=1", rec.Header().Get("Location"))
}

func TestTrailingSlashRedirectStaysOnHost(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path     string
		location string
	}{
		{path: "//evil.example/", location: "/evil.example"},
		{path: "///evil.example/", location: "/evil.example"},
		{path: "//evil.example/foods/?quantity=1", location: "/evil.example/foods?quantity=1"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := ts.do(http.MethodGet, tt.path, nil, nil)
			assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestCORSAllowsCredentialedOrigin(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/availableFood", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.svc.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/availableFood", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	ts.svc.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
