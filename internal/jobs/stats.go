package jobs

// EntityError records one per-entity failure in a job's statistics. The
// sentinel entity "ALL" marks a failure that short-circuited the whole run,
// such as a client that could not be constructed.
type EntityError struct {
	Entity string `json:"entity"`
	Error  string `json:"error"`
}

const allEntities = "ALL"

// NewsStats summarizes one news job invocation.
type NewsStats struct {
	EntitiesProcessed int           `json:"entities_processed"`
	EntitiesFailed    int           `json:"entities_failed"`
	ArticlesFetched   int           `json:"total_articles_fetched"`
	ArticlesInserted  int           `json:"total_articles_inserted"`
	Errors            []EntityError `json:"errors"`
}

// Metadata renders the stats as the audit record's metadata map.
func (s NewsStats) Metadata() map[string]any {
	return map[string]any{
		"entities_processed":      s.EntitiesProcessed,
		"entities_failed":         s.EntitiesFailed,
		"total_articles_fetched":  s.ArticlesFetched,
		"total_articles_inserted": s.ArticlesInserted,
		"errors":                  s.Errors,
	}
}

// StoriesStats summarizes one stories job invocation.
type StoriesStats struct {
	TotalEntities        int           `json:"total_entities"`
	Successful           int           `json:"successful"`
	Failed               int           `json:"failed"`
	TotalStories         int           `json:"total_stories"`
	StoriesWithReddit    int           `json:"stories_with_reddit"`
	StoriesWithoutReddit int           `json:"stories_without_reddit"`
	PointsStored         int           `json:"timeseries_points_stored"`
	Errors               []EntityError `json:"errors"`
}

func (s StoriesStats) Metadata() map[string]any {
	return map[string]any{
		"total_entities":           s.TotalEntities,
		"successful":               s.Successful,
		"failed":                   s.Failed,
		"total_stories":            s.TotalStories,
		"stories_with_reddit":      s.StoriesWithReddit,
		"stories_without_reddit":   s.StoriesWithoutReddit,
		"timeseries_points_stored": s.PointsStored,
		"errors":                   s.Errors,
	}
}
