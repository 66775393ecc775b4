// Package migrations embeds the versioned SQL migration files described in
// §6.2. Generalizes the teacher's ent-codegen embedding convention
// (db/ent/generate.go) to hand-written, numbered SQL files, the way
// §4.1 calls for ("the highest-numbered one is canonical for fresh
// installs").
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
