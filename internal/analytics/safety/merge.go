package safety

import "cosmetic-insights/internal/analytics/ranking"

// Merge combines the report built from OCR text with the report built from a
// barcode lookup.
//
// When only one report is present, or the other one is empty, it is returned
// as is. Otherwise the ingredient lists are concatenated OCR first, duplicates are
// removed by normalized name, and the barcode evaluation replaces the OCR one
// in place. Aggregates are recomputed over the merged list and the barcode
// product info takes precedence.
func Merge(ocr, barcode *ProductSafetyReport) *ProductSafetyReport {
	switch {
	case ocr == nil && barcode == nil:
		r := &ProductSafetyReport{Ingredients: []IngredientEvaluation{}}
		finalize(r)
		return r
	case ocr == nil:
		return barcode
	case barcode == nil, barcode.empty():
		return ocr
	case ocr.empty():
		return barcode
	}

	merged := &ProductSafetyReport{
		Ingredients:    make([]IngredientEvaluation, 0, len(ocr.Ingredients)+len(barcode.Ingredients)),
		LookupFailures: ocr.LookupFailures + barcode.LookupFailures,
		Source:         SourceMerged,
	}

	position := make(map[string]int, cap(merged.Ingredients))
	add := func(ev IngredientEvaluation, override bool) {
		key := ranking.NormalizeKey(ev.Name)
		if i, ok := position[key]; ok {
			if override {
				merged.Ingredients[i] = ev
			}
			return
		}
		position[key] = len(merged.Ingredients)
		merged.Ingredients = append(merged.Ingredients, ev)
	}
	for _, ev := range ocr.Ingredients {
		add(ev, false)
	}
	for _, ev := range barcode.Ingredients {
		add(ev, true)
	}

	merged.ProductInfo = ocr.ProductInfo
	if barcode.ProductInfo != nil {
		merged.ProductInfo = barcode.ProductInfo
	}

	finalize(merged)
	return merged
}

func (r *ProductSafetyReport) empty() bool {
	return len(r.Ingredients) == 0 && r.ProductInfo == nil && r.LookupFailures == 0
}
