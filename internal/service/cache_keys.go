package service

// Cache keys of the composed-result cache
const (
	// KeyPersonalized holds the full personalized section list.
	// There is a single local profile, so one key covers every caller.
	KeyPersonalized = "personalized-recommendations"
)

// RecommendationCacheKeys returns every key ClearCache invalidates
func RecommendationCacheKeys() []string {
	return []string{KeyPersonalized}
}
