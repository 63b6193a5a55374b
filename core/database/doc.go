// Package database opens the GORM connection used for run history.
//
// Connect selects the dialect from Config.Driver: "mysql" for a shared server,
// "sqlite" for a local file (or ":memory:" in tests). The connection is
// verified with a ping bounded by TimeoutSeconds.
//
// GetTableColumns and MissingColumns inspect an existing table, which the
// check command uses to report schema drift without migrating.
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logg.Warn("History disabled", zap.Error(err))
//	}
package database
