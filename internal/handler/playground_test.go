package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/service"
)

func strp(s string) *string { return &s }

func newPlaygroundHandler(t *testing.T) (*PlaygroundHandler, *fakeBooker, *fakePlaygrounds) {
	t.Helper()
	b := &fakeBooker{cfg: admission.NewConfig()}
	p := &fakePlaygrounds{rows: map[uint64]model.Playground{
		3: {
			ID:       3,
			District: strp("Arbat"),
			ParkName: strp("{global_id=4331863, value=Сокольники}"),
			PhotoID:  strp("photo:abc-123\nphoto:def-456"),
		},
	}}
	d := &fakeDogs{dogs: map[uint64]model.Dog{
		5: {ID: 5, UserID: 42, Name: "Rex", CategoryCode: "HIGH_RISK"},
		6: {ID: 6, UserID: 42, Name: "Ghost", CategoryCode: "WOLF"},
	}}
	h := NewPlaygroundHandler(p, d, b, moscow(t), quiet)
	h.Now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return h, b, p
}

func TestDetails_DecoratesRowAndReturnsTwentyFourSlots(t *testing.T) {
	h, b, _ := newPlaygroundHandler(t)

	rec := call(h.Details, http.MethodGet, "/api/playgrounds/3/details?category=small", "", 0, "id", "3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		ID                uint64               `json:"id"`
		ParkName          string               `json:"park_name"`
		PhotoURL          string               `json:"photo_url"`
		Date              string               `json:"date"`
		RequestedCategory string               `json:"requested_category"`
		Slots             []admission.SlotView `json:"slots"`
	}
	require.NoError(t, decode(rec, &got))
	assert.Equal(t, uint64(3), got.ID)
	assert.Equal(t, "Сокольники", got.ParkName)
	assert.Equal(t, "https://op.mos.ru/MEDIA/showFile?id=abc-123", got.PhotoURL)
	assert.Equal(t, "2026-05-01", got.Date)
	assert.Equal(t, "SMALL", got.RequestedCategory)
	require.Len(t, got.Slots, 24)
	assert.Equal(t, admission.StatusJoinable, got.Slots[10].Status)
	assert.Equal(t, admission.Small, b.slotsFor)
}

func TestDetails_CategoryResolution(t *testing.T) {
	cases := []struct {
		query string
		want  admission.Category
	}{
		{"", admission.Standard},
		{"?category=active", admission.Active},
		{"?category=giant", admission.Standard},
		{"?dog_id=5&category=small", admission.HighRisk},
		{"?dog_id=99&category=small", admission.Small},
		{"?dog_id=6&category=active", admission.Active},
		{"?dog_id=abc", admission.Standard},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			h, b, _ := newPlaygroundHandler(t)
			rec := call(h.Details, http.MethodGet, "/api/playgrounds/3/details"+tc.query, "", 0, "id", "3")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, b.slotsFor)
		})
	}
}

func TestDetails_DateParameter(t *testing.T) {
	h, b, _ := newPlaygroundHandler(t)

	rec := call(h.Details, http.MethodGet, "/api/playgrounds/3/details?date=2026-06-15", "", 0, "id", "3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-06-15", b.slotsDate.Format(time.DateOnly))
	assert.Equal(t, "Europe/Moscow", b.slotsDate.Location().String())

	rec = call(h.Details, http.MethodGet, "/api/playgrounds/3/details?date=15-06-2026", "", 0, "id", "3")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetails_NotFoundAndIntegrity(t *testing.T) {
	h, b, _ := newPlaygroundHandler(t)

	rec := call(h.Details, http.MethodGet, "/api/playgrounds/8/details", "", 0, "id", "8")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(h.Details, http.MethodGet, "/api/playgrounds/0/details", "", 0, "id", "0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	b.err = fmt.Errorf("%w: hour 9", service.ErrIntegrity)
	rec = call(h.Details, http.MethodGet, "/api/playgrounds/3/details", "", 0, "id", "3")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"data integrity error"}`, rec.Body.String())

	b.err = errors.New("db down")
	rec = call(h.Details, http.MethodGet, "/api/playgrounds/3/details", "", 0, "id", "3")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearch_RequiresDistrict(t *testing.T) {
	h, _, p := newPlaygroundHandler(t)

	rec := call(h.Search, http.MethodGet, "/api/playgrounds/search?district=%20%20", "", 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, p.filters)

	rec = call(h.Search, http.MethodGet, "/api/playgrounds/search?district=%20Arbat%20&lighting=true&fencing=1&elements=false", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, p.filters, 1)
	assert.Equal(t, model.PlaygroundFilter{District: "Arbat", Lighting: true, Fencing: true}, p.filters[0])
}

func TestList_FilterFlagsOnForAnyNonFalseValue(t *testing.T) {
	cases := []struct {
		query string
		on    bool
	}{
		{"", false},
		{"lighting=", false},
		{"lighting=false", false},
		{"lighting=0", false},
		{"lighting=true", true},
		{"lighting=1", true},
		{"lighting=on", true},
		{"lighting=yes", true},
		{"lighting=%D0%B4%D0%B0", true},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			h, _, p := newPlaygroundHandler(t)
			rec := call(h.List, http.MethodGet, "/api/playgrounds?"+tc.query, "", 0)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, p.filters, 1)
			assert.Equal(t, tc.on, p.filters[0].Lighting)
		})
	}
}

func TestList_DistrictsCategoriesDiagnostics(t *testing.T) {
	h, _, p := newPlaygroundHandler(t)

	rec := call(h.List, http.MethodGet, "/api/playgrounds?elements=true", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"lat":55.7,"lon":37.6}]`, rec.Body.String())
	assert.True(t, p.filters[0].Elements)

	rec = call(h.Districts, http.MethodGet, "/api/districts", "", 0)
	assert.JSONEq(t, `["Arbat","Basmanny"]`, rec.Body.String())

	rec = call(h.Categories, http.MethodGet, "/api/categories", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var labels []map[string]any
	require.NoError(t, decode(rec, &labels))
	require.Len(t, labels, 4)
	assert.Equal(t, "SMALL", labels[0]["code"])

	rec = call(h.Diagnostics, http.MethodGet, "/api/diagnostics", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"playgrounds_total":3`)
}
