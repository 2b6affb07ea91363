package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/middleware"
	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/repository"
	"github.com/iliyamo/dog-playground-booking/internal/service"
	"github.com/iliyamo/dog-playground-booking/internal/utils"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeBooker struct {
	cfg       admission.Config
	err       error
	booked    []service.BookingRequest
	slotsFor  admission.Category
	slotsDate time.Time
}

func (f *fakeBooker) Config() admission.Config { return f.cfg }

func (f *fakeBooker) SlotStatuses(_ context.Context, _ uint64, date time.Time, cat admission.Category) ([]admission.SlotView, error) {
	f.slotsFor, f.slotsDate = cat, date
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg.BuildSlots(map[int][]admission.Category{10: {admission.Small}}, cat), nil
}

func (f *fakeBooker) Book(_ context.Context, req service.BookingRequest) (model.Booking, error) {
	if f.err != nil {
		return model.Booking{}, f.err
	}
	f.booked = append(f.booked, req)
	k := service.NewSlotKey(req.PlaygroundID, req.Date, req.Hour)
	return model.Booking{ID: 77, PlaygroundID: req.PlaygroundID, DogID: req.DogID,
		StartTime: k.Start(), EndTime: k.End(), Status: model.BookingConfirmed}, nil
}

type fakePlaygrounds struct {
	rows    map[uint64]model.Playground
	filters []model.PlaygroundFilter
}

func (f *fakePlaygrounds) ListMarkers(_ context.Context, fl model.PlaygroundFilter) ([]model.PlaygroundMarker, error) {
	f.filters = append(f.filters, fl)
	return []model.PlaygroundMarker{{ID: 1, Lat: 55.7, Lon: 37.6}}, nil
}

func (f *fakePlaygrounds) Search(_ context.Context, fl model.PlaygroundFilter) ([]model.PlaygroundSummary, error) {
	f.filters = append(f.filters, fl)
	return []model.PlaygroundSummary{}, nil
}

func (f *fakePlaygrounds) Districts(context.Context) ([]string, error) {
	return []string{"Arbat", "Basmanny"}, nil
}

func (f *fakePlaygrounds) GetByID(_ context.Context, id uint64) (model.Playground, error) {
	p, ok := f.rows[id]
	if !ok {
		return model.Playground{}, repository.ErrPlaygroundNotFound
	}
	return p, nil
}

func (f *fakePlaygrounds) Stats(context.Context) (model.PlaygroundStats, error) {
	return model.PlaygroundStats{Database: "dogpark", Tables: []string{"playgrounds"}, Playgrounds: 3}, nil
}

type fakeDogs struct {
	mu   sync.Mutex
	dogs map[uint64]model.Dog
	next uint64
}

func (f *fakeDogs) ListAll(context.Context) ([]model.Dog, error) {
	out := []model.Dog{}
	for _, d := range f.dogs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDogs) ListByUser(_ context.Context, uid uint64) ([]model.Dog, error) {
	out := []model.Dog{}
	for _, d := range f.dogs {
		if d.UserID == uid {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDogs) GetByID(_ context.Context, id uint64) (model.Dog, error) {
	d, ok := f.dogs[id]
	if !ok {
		return model.Dog{}, repository.ErrDogNotFound
	}
	return d, nil
}

func (f *fakeDogs) Create(_ context.Context, uid uint64, nd model.NewDog) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.dogs[f.next] = model.Dog{ID: f.next, UserID: uid, Name: nd.Name, Breed: nd.Breed, CategoryCode: nd.CategoryCode}
	return f.next, nil
}

type fakeBookings struct {
	cancelErr error
	rows      []model.BookingDetail
}

func (f *fakeBookings) ListByUser(context.Context, uint64) ([]model.BookingDetail, error) {
	return f.rows, nil
}

func (f *fakeBookings) Cancel(context.Context, uint64, uint64) error { return f.cancelErr }

type fakeUsers struct {
	byName    map[string]model.User
	createErr error
	created   []model.NewDog
}

func (f *fakeUsers) CreateWithDog(_ context.Context, username, email, password string, cost int, dog model.NewDog) (uint64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := uint64(len(f.byName) + 1)
	f.byName[username] = model.User{ID: id, Username: username, Email: email, PasswordHash: hash}
	f.created = append(f.created, dog)
	return id, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byName {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

type fakeTokens struct {
	stored  map[string]uint64
	revoked []string
	allFor  []uint64
}

func (f *fakeTokens) StoreRefresh(_ context.Context, uid uint64, hash string, _ time.Time) error {
	f.stored[hash] = uid
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	uid, ok := f.stored[hash]
	if !ok {
		return 0, repository.ErrRefreshInvalid
	}
	return uid, nil
}

func (f *fakeTokens) Rotate(_ context.Context, oldHash, newHash string, _ time.Time) (uint64, error) {
	uid, ok := f.stored[oldHash]
	if !ok {
		return 0, repository.ErrRefreshInvalid
	}
	delete(f.stored, oldHash)
	f.stored[newHash] = uid
	return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.revoked = append(f.revoked, hash)
	delete(f.stored, hash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, uid uint64) error {
	f.allFor = append(f.allFor, uid)
	return nil
}

// call runs h against a request with a JSON body, optionally as user uid.
func call(h echo.HandlerFunc, method, target, body string, uid uint64, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if uid != 0 {
		c.Set(middleware.CtxUserID, uid)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decode(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

