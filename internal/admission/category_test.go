package admission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
)

func Test_ParseCategory_KnownCodes(t *testing.T) {
	for _, cat := range admission.Categories() {
		got, err := admission.ParseCategory(cat.String())
		require.NoError(t, err)
		assert.Equal(t, cat, got)
	}

	got, err := admission.ParseCategory("  high_risk ")
	require.NoError(t, err)
	assert.Equal(t, admission.HighRisk, got)
}

func Test_ParseCategory_UnknownCodeIsIntegrityError(t *testing.T) {
	for _, code := range []string{"", "GIANT", "SMALLER", "HIGH RISK"} {
		_, err := admission.ParseCategory(code)
		assert.ErrorIs(t, err, admission.ErrUnknownCategory, code)
	}
}

func Test_ParseCategories_StopsAtFirstUnknown(t *testing.T) {
	cats, err := admission.ParseCategories([]string{"SMALL", "ACTIVE"})
	require.NoError(t, err)
	assert.Equal(t, []admission.Category{admission.Small, admission.Active}, cats)

	_, err = admission.ParseCategories([]string{"SMALL", "WOLF"})
	assert.ErrorIs(t, err, admission.ErrUnknownCategory)
}

func Test_Config_LabelsAndHours(t *testing.T) {
	cfg := admission.NewConfig()

	hours := cfg.Hours()
	require.Len(t, hours, 24)
	hours[0] = 99
	assert.Equal(t, 0, cfg.Hours()[0])

	assert.True(t, cfg.ValidHour(0))
	assert.True(t, cfg.ValidHour(23))
	assert.False(t, cfg.ValidHour(24))
	assert.False(t, cfg.ValidHour(-1))

	labels := cfg.Labels()
	require.Len(t, labels, 4)
	assert.Equal(t, admission.Small, labels[0].Code)
	assert.Equal(t, "Декоративные", labels[0].Label)
	assert.Equal(t, "Служебные / Бойцовские", cfg.Label(admission.HighRisk))
	assert.Equal(t, 2, cfg.LimitFor(admission.HighRisk))
	assert.Equal(t, 8, cfg.LimitFor(admission.Active))
}
