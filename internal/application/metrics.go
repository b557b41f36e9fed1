package application

import "expvar"

// Exposed on /debug/vars.
var (
	accountsCreated = expvar.NewInt("accounts_created")
	accountsUpdated = expvar.NewInt("accounts_updated")
	accountFailures = expvar.NewInt("account_failures")
)
