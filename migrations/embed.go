// migrations содержит SQL-миграции схемы, встраиваемые в бинарь
// и применяемые goose на старте сервиса.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
