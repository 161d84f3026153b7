// Package migrations embeds the goose SQL migrations so the API binary,
// the migrate command and integration tests share one schema source.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
