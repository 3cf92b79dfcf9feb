package driver

const (
	ListCatalogEntriesQuery = `
		MATCH (e:CatalogEntry)
		RETURN e.id AS id,
			e.canonical_name AS canonical_name,
			e.category AS category,
			e.aliases AS aliases
		ORDER BY e.id
	`

	ListVendorOffersQuery = `
		MATCH (v:Vendor)-[o:OFFERS]->(e:CatalogEntry)
		RETURN o.offer_id AS offer_id,
			v.id AS vendor_id,
			v.name AS vendor_name,
			v.company AS company,
			e.id AS catalog_entry_id,
			o.price AS price,
			o.unit AS unit,
			o.stock AS stock,
			o.lead_time_days AS lead_time_days,
			o.rating AS rating,
			o.available AS available,
			o.approval_status AS approval_status
		ORDER BY o.offer_id
	`

	SaveCatalogEntryQuery = `
		MERGE (e:CatalogEntry {id: $id})
		SET e.canonical_name = $canonical_name,
			e.category = $category,
			e.aliases = $aliases
		RETURN e.id AS id
	`

	SaveVendorOfferQuery = `
		MATCH (e:CatalogEntry {id: $catalog_entry_id})
		MERGE (v:Vendor {id: $vendor_id})
		SET v.name = $vendor_name,
			v.company = $company
		MERGE (v)-[o:OFFERS {offer_id: $offer_id}]->(e)
		SET o.price = $price,
			o.unit = $unit,
			o.stock = $stock,
			o.lead_time_days = $lead_time_days,
			o.rating = $rating,
			o.available = $available,
			o.approval_status = $approval_status
		RETURN o.offer_id AS offer_id
	`
)
