package db

import (
	"context"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

const sitesBase = `
    SELECT ext_site_id, ext_site_name, nztmx, nztmy
    FROM hydro.external_site`

// Sites returns site register rows. A nil ids slice returns every site; an
// empty one returns none without querying.
func (s *Store) Sites(ctx context.Context, ids []string) ([]pipeline.SiteRecord, error) {
	if emptySet(ids) {
		return []pipeline.SiteRecord{}, nil
	}

	var w where
	in(&w, "ext_site_id", ids)

	rows, err := s.pool.Query(ctx, sitesBase+w.String()+" ORDER BY ext_site_id", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := make([]pipeline.SiteRecord, 0)
	for rows.Next() {
		var site pipeline.SiteRecord
		if err := rows.Scan(&site.ID, &site.Name, &site.NZTMX, &site.NZTMY); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}
