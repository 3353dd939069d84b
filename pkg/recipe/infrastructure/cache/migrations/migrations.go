// Package migrations embeds the package cache schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
