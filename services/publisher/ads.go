package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"

	"milos55/reklamiworker/internal/ad"
	"milos55/reklamiworker/metrics"
	"milos55/reklamiworker/pkg/errors"
)

// AdField holds the base64 encoded JSON display projection of an ad
const AdField = "b64_ad"

// PublishAds publishes the display projection of every ad, sharded by link.
// It keeps going after a failed ad and returns the number published.
func PublishAds(ctx context.Context, p Publisher, runID string, ads []*ad.Ad) (int, error) {
	var errs []error
	published := 0
	for _, a := range ads {
		payload, err := json.Marshal(a.Display())
		if err != nil {
			errs = append(errs, errors.NewPublisher(a.Store, "encode "+a.Link, err))
			continue
		}
		err = p.Publish(ctx, a.Link, map[string]interface{}{
			"store":  a.Store,
			"run_id": runID,
			AdField:  base64.StdEncoding.EncodeToString(payload),
		})
		if err != nil {
			metrics.PublishedTotal.WithLabelValues(a.Store, "error").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.PublishedTotal.WithLabelValues(a.Store, "ok").Inc()
		published++
	}
	return published, stderrors.Join(errs...)
}

// DecodeAd reverses the AdField encoding
func DecodeAd(value string) (ad.Display, error) {
	var d ad.Display
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return d, err
	}
	err = json.Unmarshal(raw, &d)
	return d, err
}
