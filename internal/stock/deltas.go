package stock

// DiffDeltas nets a document's old stock effect against its new one, keyed by
// (product, warehouse). The result is the single delta set that moves the
// ledger from the old state to the new state; zero-net rows are dropped.
func DiffDeltas(old, updated []Delta) []Delta {
	type key struct {
		product, warehouse [16]byte
	}
	merged := make(map[key]Delta)
	order := make([]key, 0, len(old)+len(updated))

	add := func(d Delta, sign int64) {
		k := key{product: d.ProductID, warehouse: d.WarehouseID}
		existing, ok := merged[k]
		if !ok {
			order = append(order, k)
			existing = Delta{
				ProductID:       d.ProductID,
				WarehouseID:     d.WarehouseID,
				PiecesPerBox:    d.PiecesPerBox,
				CreateIfMissing: d.CreateIfMissing,
			}
		}
		existing.Pieces += sign * d.Pieces
		if d.CreateIfMissing {
			existing.CreateIfMissing = true
		}
		if existing.PiecesPerBox == 0 {
			existing.PiecesPerBox = d.PiecesPerBox
		}
		merged[k] = existing
	}

	for _, d := range old {
		add(d, -1)
	}
	for _, d := range updated {
		add(d, 1)
	}

	out := make([]Delta, 0, len(order))
	for _, k := range order {
		d := merged[k]
		if d.Pieces == 0 {
			continue
		}
		out = append(out, d)
	}
	return out
}
