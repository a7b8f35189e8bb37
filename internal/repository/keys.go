package repository

// Persistence keys shared by every backend.
const (
	// KeyAccounts holds the serialized account registry.
	KeyAccounts = "users"
	// KeyActiveAccount holds the username of the logged-in account.
	KeyActiveAccount = "currentUser"

	casesKeyPrefix   = "cases_"
	limiterKeyPrefix = "loginFailures_"
)

// CasesKey returns the key of an account's case partition.
func CasesKey(account string) string { return casesKeyPrefix + account }

// LimiterKey returns the key holding the failed-login state of username.
func LimiterKey(username string) string { return limiterKeyPrefix + username }
