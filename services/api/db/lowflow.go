package db

import (
	"context"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

const restrictionsSQL = `
    SELECT site, date, site_type, flow_method, days_since_flow_est, flow, crc_count, min_trig, max_trig, restr_category
    FROM hydro.low_flow_restr_site
    WHERE date BETWEEN $1 AND $2
    ORDER BY site, date
`

// Restrictions returns daily site restriction rows dated within r.
func (s *Store) Restrictions(ctx context.Context, r pipeline.DateRange) ([]pipeline.Restriction, error) {
	rows, err := s.pool.Query(ctx, restrictionsSQL, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pipeline.Restriction, 0)
	for rows.Next() {
		var rs pipeline.Restriction
		if err := rows.Scan(
			&rs.SiteID,
			&rs.Date,
			&rs.SiteType,
			&rs.DataSource,
			&rs.DaysSinceEstimate,
			&rs.Flow,
			&rs.CrcCount,
			&rs.MinTrigger,
			&rs.MaxTrigger,
			&rs.Category,
		); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

const bandsBase = `
    SELECT site, date, band_num, band_name, site_type, flow, min_trig, max_trig, band_allo
    FROM hydro.low_flow_restr_site_band`

// Bands returns restriction band rows ordered by date.
func (s *Store) Bands(ctx context.Context, q pipeline.BandQuery) ([]pipeline.Band, error) {
	if emptySet(q.Sites) || emptySet(q.BandNums) {
		return []pipeline.Band{}, nil
	}

	var w where
	in(&w, "site", q.Sites)
	in(&w, "band_num", q.BandNums)
	w.between("date", q.Range)

	rows, err := s.pool.Query(ctx, bandsBase+w.String()+" ORDER BY date, site, band_num", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pipeline.Band, 0)
	for rows.Next() {
		var b pipeline.Band
		if err := rows.Scan(
			&b.SiteID,
			&b.Date,
			&b.BandNum,
			&b.BandName,
			&b.SiteType,
			&b.Flow,
			&b.MinTrigger,
			&b.MaxTrigger,
			&b.BandAllocation,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const consentBandsSQL = `
    SELECT site, band_num, date, crc
    FROM hydro.low_flow_restr_site_band_crc
    WHERE site = ANY($1) AND date BETWEEN $2 AND $3
    ORDER BY site, band_num, date, crc
`

// ConsentBands returns consent/band links for the sites dated within r.
func (s *Store) ConsentBands(ctx context.Context, siteIDs []string, r pipeline.DateRange) ([]pipeline.ConsentBand, error) {
	out := make([]pipeline.ConsentBand, 0)
	if len(siteIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, consentBandsSQL, siteIDs, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b pipeline.ConsentBand
		if err := rows.Scan(&b.SiteID, &b.BandNum, &b.Date, &b.Consent); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const consentWapsSQL = `
    SELECT DISTINCT crc, wap
    FROM hydro.crc_wap_allo
    WHERE crc = ANY($1) AND wap = ANY($2)
    ORDER BY crc, wap
`

// ConsentWaps returns the distinct consent/abstraction point links among the
// given consents and points.
func (s *Store) ConsentWaps(ctx context.Context, consents, waps []string) ([]pipeline.ConsentWap, error) {
	out := make([]pipeline.ConsentWap, 0)
	if len(consents) == 0 || len(waps) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, consentWapsSQL, consents, waps)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l pipeline.ConsentWap
		if err := rows.Scan(&l.Consent, &l.Wap); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
