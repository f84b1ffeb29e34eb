// Package export renders subscriber lists as downloadable CSV.
package export

import (
	"strings"
	"time"

	"biolink/internal/model"
)

const (
	Filename    = "subscribers.csv"
	ContentType = "text/csv; charset=utf-8"
	header      = "email,name,created_at"
)

// SubscribersCSV builds the whole payload in memory. Every value is quoted
// and embedded quotes are doubled.
func SubscribersCSV(subs []model.Subscriber) []byte {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, s := range subs {
		b.WriteString(quote(s.Email))
		b.WriteByte(',')
		b.WriteString(quote(s.Name))
		b.WriteByte(',')
		b.WriteString(quote(s.CreatedAt.UTC().Format(time.RFC3339)))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// Disposition is the Content-Disposition header value for the download.
func Disposition() string {
	return `attachment; filename="` + Filename + `"`
}
