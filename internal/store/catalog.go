package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agenthands/boqmatch/internal/core/model"
)

const (
	upsertEntrySQL = `
INSERT INTO catalog_entries (id, canonical_name, category)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET canonical_name = excluded.canonical_name, category = excluded.category`

	upsertOfferSQL = `
INSERT INTO vendor_offers (offer_id, vendor_id, vendor_name, company, catalog_entry_id, price, unit,
    stock, lead_time_days, rating, available, approval_status, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(offer_id) DO UPDATE SET
    vendor_id = excluded.vendor_id,
    vendor_name = excluded.vendor_name,
    company = excluded.company,
    catalog_entry_id = excluded.catalog_entry_id,
    price = excluded.price,
    unit = excluded.unit,
    stock = excluded.stock,
    lead_time_days = excluded.lead_time_days,
    rating = excluded.rating,
    available = excluded.available,
    approval_status = excluded.approval_status,
    updated_at = CURRENT_TIMESTAMP`

	selectEntriesSQL = `SELECT id, canonical_name, category FROM catalog_entries ORDER BY id`
	selectAliasesSQL = `SELECT entry_id, alias FROM catalog_aliases ORDER BY entry_id, position`
	selectOffersSQL  = `
SELECT offer_id, vendor_id, vendor_name, company, catalog_entry_id, price, unit,
       stock, lead_time_days, rating, available, approval_status
FROM vendor_offers ORDER BY offer_id`
)

func (s *Store) Name() string {
	return "sqlite:" + s.path
}

// Save upserts entries and offers in one transaction. An entry's aliases
// are replaced as a whole.
func (s *Store) Save(ctx context.Context, entries []model.CatalogEntry, offers []model.OfferRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, upsertEntrySQL, e.ID, e.CanonicalName, e.Category); err != nil {
			return fmt.Errorf("failed to save catalog entry %s: %w", e.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_aliases WHERE entry_id = ?`, e.ID); err != nil {
			return fmt.Errorf("failed to clear aliases of %s: %w", e.ID, err)
		}
		for i, alias := range e.Aliases {
			if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_aliases (entry_id, position, alias) VALUES (?, ?, ?)`, e.ID, i, alias); err != nil {
				return fmt.Errorf("failed to save alias of %s: %w", e.ID, err)
			}
		}
	}

	for _, o := range offers {
		_, err := tx.ExecContext(ctx, upsertOfferSQL,
			o.OfferID, o.VendorID, o.VendorName, o.Company, o.CatalogEntryID,
			nullable(o.Price), o.Unit, nullable(o.Stock), nullable(o.LeadTimeDays),
			nullable(o.Rating), nullable(o.Available), o.ApprovalStatus)
		if err != nil {
			return fmt.Errorf("failed to save vendor offer %s: %w", o.OfferID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// Load reads the whole catalog inside one read transaction so entries and
// offers come from the same state of the database.
func (s *Store) Load(ctx context.Context) ([]model.CatalogEntry, []model.OfferRecord, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entries, err := loadEntries(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	offers, err := loadOffers(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	return entries, offers, nil
}

func loadEntries(ctx context.Context, tx *sql.Tx) ([]model.CatalogEntry, error) {
	rows, err := tx.QueryContext(ctx, selectEntriesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []model.CatalogEntry
	index := make(map[string]int)
	for rows.Next() {
		var e model.CatalogEntry
		if err := rows.Scan(&e.ID, &e.CanonicalName, &e.Category); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog entries: %w", err)
	}

	aliasRows, err := tx.QueryContext(ctx, selectAliasesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer aliasRows.Close()
	for aliasRows.Next() {
		var entryID, alias string
		if err := aliasRows.Scan(&entryID, &alias); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		if i, ok := index[entryID]; ok {
			entries[i].Aliases = append(entries[i].Aliases, alias)
		}
	}
	if err := aliasRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read aliases: %w", err)
	}
	return entries, nil
}

func loadOffers(ctx context.Context, tx *sql.Tx) ([]model.OfferRecord, error) {
	rows, err := tx.QueryContext(ctx, selectOffersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor offers: %w", err)
	}
	defer rows.Close()

	var offers []model.OfferRecord
	for rows.Next() {
		var (
			o         model.OfferRecord
			price     sql.NullFloat64
			stock     sql.NullInt64
			lead      sql.NullInt64
			rating    sql.NullFloat64
			available sql.NullBool
		)
		err := rows.Scan(&o.OfferID, &o.VendorID, &o.VendorName, &o.Company, &o.CatalogEntryID,
			&price, &o.Unit, &stock, &lead, &rating, &available, &o.ApprovalStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor offer: %w", err)
		}
		if price.Valid {
			o.Price = &price.Float64
		}
		if stock.Valid {
			v := int(stock.Int64)
			o.Stock = &v
		}
		if lead.Valid {
			v := int(lead.Int64)
			o.LeadTimeDays = &v
		}
		if rating.Valid {
			o.Rating = &rating.Float64
		}
		if available.Valid {
			o.Available = &available.Bool
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vendor offers: %w", err)
	}
	return offers, nil
}

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
