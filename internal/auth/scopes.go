package auth

// OAuth scopes understood by the daywell API.
const (
	ScopeActivitiesWrite     = "activities:write"
	ScopeActivitiesRead      = "activities:read"
	ScopeSuggestionsGenerate = "suggestions:generate"
)
