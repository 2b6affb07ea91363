package queue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_HandleMessage_AppendsOneLinePerEvent(t *testing.T) {
	// arrange
	dir := filepath.Join(t.TempDir(), "logs")
	ev := BookingConfirmedEvent{
		EventID:      "e-1",
		BookingID:    7,
		PlaygroundID: 3,
		DogID:        11,
		DogCategory:  "SMALL",
		StartTime:    "2026-10-19T09:00:00+03:00",
		EndTime:      "2026-10-19T10:00:00+03:00",
		ConfirmedAt:  "2026-10-18T12:00:00Z",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	// act
	require.NoError(t, HandleMessage(dir, body))
	require.NoError(t, HandleMessage(dir, body))

	// assert
	raw, err := os.ReadFile(filepath.Join(dir, "booking.log"))
	require.NoError(t, err)
	assert.Equal(t, FormatEvent(ev)+FormatEvent(ev), string(raw))
	assert.Contains(t, string(raw), "booking_id=7 | event_id=e-1 | playground_id=3 | dog_id=11 | category=SMALL")
}

func Test_HandleMessage_RejectsGarbage(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, HandleMessage(dir, []byte("not json")))
	assert.Error(t, HandleMessage(dir, []byte(`{"event_id":"x"}`)))

	_, err := os.Stat(filepath.Join(dir, "booking.log"))
	assert.True(t, os.IsNotExist(err))
}
