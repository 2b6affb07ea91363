package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dog-playground-booking/internal/model"
)

func Test_ListMarkers_AppliesFilters(t *testing.T) {
	// arrange
	db, mock := newMockDB(t)
	repo := NewPlaygroundRepo(db)
	mock.ExpectQuery(`FROM .playgrounds. WHERE .*TRIM\(.district.\) = \?.*.lighting. = \?.*.fencing. = \?.*.elements. IS NOT NULL`).
		WithArgs("Арбат", "да", "да", "", "[]").
		WillReturnRows(sqlmock.NewRows([]string{"id", "lat", "lon"}).AddRow(1, 55.75, 37.59))

	// act
	got, err := repo.ListMarkers(context.Background(), model.PlaygroundFilter{
		District: "  Арбат ", Lighting: true, Fencing: true, Elements: true,
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []model.PlaygroundMarker{{ID: 1, Lat: 55.75, Lon: 37.59}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_ListMarkers_NoFilterStillRequiresCoordinates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlaygroundRepo(db)
	mock.ExpectQuery(`.lat. IS NOT NULL.*.lon. IS NOT NULL`).
		WithoutArgs().
		WillReturnRows(sqlmock.NewRows([]string{"id", "lat", "lon"}))

	got, err := repo.ListMarkers(context.Background(), model.PlaygroundFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_Search_RequiresDistrictAndCleansNames(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlaygroundRepo(db)

	_, err := repo.Search(context.Background(), model.PlaygroundFilter{District: "  "})
	assert.Error(t, err)

	raw := "{global_id=1, value=Парк Горького}"
	mock.ExpectQuery(`ORDER BY .id. ASC`).
		WithArgs("Якиманка").
		WillReturnRows(sqlmock.NewRows([]string{"id", "park_name", "address", "district", "lighting", "fencing", "elements", "lat", "lon"}).
			AddRow(4, raw, "ул. Крымский Вал", "Якиманка", "да", nil, nil, 55.73, 37.60))

	got, err := repo.Search(context.Background(), model.PlaygroundFilter{District: "Якиманка"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].ParkName)
	assert.Equal(t, "Парк Горького", *got[0].ParkName)
	assert.Nil(t, got[0].Fencing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlaygroundRepo(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM playgrounds")).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrPlaygroundNotFound)
}

func Test_Districts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlaygroundRepo(db)
	mock.ExpectQuery("SELECT DISTINCT TRIM\\(district\\)").
		WillReturnRows(sqlmock.NewRows([]string{"district"}).AddRow("Арбат").AddRow("Якиманка"))

	got, err := repo.Districts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Арбат", "Якиманка"}, got)
}
