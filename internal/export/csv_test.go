package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"biolink/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribersCSV(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("X", 3600))
	out := SubscribersCSV([]model.Subscriber{
		{Email: "a@example.com", Name: "Ann", CreatedAt: at},
		{Email: "b@example.com", Name: `Bob "the builder", Jr`, CreatedAt: at},
	})

	want := "email,name,created_at\n" +
		`"a@example.com","Ann","2026-03-01T11:30:00Z"` + "\n" +
		`"b@example.com","Bob ""the builder"", Jr","2026-03-01T11:30:00Z"` + "\n"
	assert.Equal(t, want, string(out))

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, `Bob "the builder", Jr`, records[2][1])
}

func TestSubscribersCSVHeaderOnly(t *testing.T) {
	assert.Equal(t, "email,name,created_at\n", string(SubscribersCSV(nil)))
}

func TestDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="subscribers.csv"`, Disposition())
}
