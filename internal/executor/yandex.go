package executor

// ScraperYandex is the scraper_type tag for Yandex Business jobs.
const ScraperYandex = "yandex"

// Yandex operation tags.
const (
	YandexOperationStatistics  = "statistics"
	YandexOperationCompetitors = "competitors"
	YandexOperationReviews     = "reviews"
)

// RegisterYandex wires the Yandex operations into the dispatch table. Yandex
// is the site that raises captcha challenges; those surface through the
// collaborator error and are classified by siteOperation.
func RegisterYandex(r *Registry, client SiteClient) error {
	for _, op := range []string{YandexOperationStatistics, YandexOperationCompetitors, YandexOperationReviews} {
		if err := r.Register(ScraperYandex, op, siteOperation(client, op)); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPairs lists every (scraper, operation) pair the system dispatches.
// Startup validation checks the registry against this list.
func DefaultPairs() []Key {
	return []Key{
		{Scraper: ScraperGIS, Operation: GISOperationStatistics},
		{Scraper: ScraperGIS, Operation: GISOperationReviews},
		{Scraper: ScraperYandex, Operation: YandexOperationStatistics},
		{Scraper: ScraperYandex, Operation: YandexOperationCompetitors},
		{Scraper: ScraperYandex, Operation: YandexOperationReviews},
	}
}
