package entity

import "time"

// ShelfLifeDays vida útil fija de una unidad de sangre total desde la colecta.
const ShelfLifeDays = 42

// Day trunca t a la medianoche UTC de su fecha calendario.
// Todas las comparaciones de vencimiento del ledger se hacen a nivel de día.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ExpiryFor calcula la fecha de vencimiento: fecha de colecta + shelfLifeDays.
func ExpiryFor(collection time.Time, shelfLifeDays int) time.Time {
	return Day(collection).AddDate(0, 0, shelfLifeDays)
}
