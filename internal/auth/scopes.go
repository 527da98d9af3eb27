package auth

// Scopes checked by the journal API.
const (
	ScopeJournalRead  = "journal:read"
	ScopeJournalWrite = "journal:write"
)
