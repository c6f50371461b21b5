package migrate_test

import "github.com/shopfront/retail-backend/pkg/migrate"

var migrateValidate = migrate.ValidateDir
