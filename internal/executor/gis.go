package executor

import (
	"context"
	"errors"
	"fmt"
)

// ScraperGIS is the scraper_type tag for 2GIS jobs.
const ScraperGIS = "gis"

// GIS operation tags.
const (
	GISOperationStatistics = "statistics"
	GISOperationReviews    = "reviews"
)

// RegisterGIS wires the 2GIS operations into the dispatch table.
func RegisterGIS(r *Registry, client SiteClient) error {
	if err := r.Register(ScraperGIS, GISOperationStatistics, siteOperation(client, GISOperationStatistics)); err != nil {
		return err
	}
	return r.Register(ScraperGIS, GISOperationReviews, siteOperation(client, GISOperationReviews))
}

// siteOperation builds the executor for one site operation: validate params,
// run the collaborator, classify the result.
func siteOperation(client SiteClient, operation string) Func {
	return func(ctx context.Context, jobID string, params map[string]string) (*Outcome, error) {
		if params["target_id"] == "" {
			return nil, fmt.Errorf("'target_id' is required in job params for %s", operation)
		}

		payload, rows, err := client.Run(ctx, operation, params)
		if err != nil {
			var captcha interface {
				error
				ChallengeURL() string
			}
			if errors.As(err, &captcha) {
				return &Outcome{
					Status:       StatusCaptchaRequired,
					ChallengeURL: captcha.ChallengeURL(),
					Error:        captcha.Error(),
				}, nil
			}
			return nil, err
		}

		if rows == 0 || EmptyPayload(payload) {
			return &Outcome{
				Status:  StatusWarning,
				Payload: payload,
				Note:    fmt.Sprintf("operation %s returned no rows", operation),
			}, nil
		}

		return &Outcome{
			Status:  StatusSuccess,
			Payload: payload,
		}, nil
	}
}
