package models

import "github.com/lib/pq"

// stringArray encodes a Go slice as a Postgres text[] parameter for = ANY($n).
func stringArray(values []string) interface{} {
	return pq.Array(values)
}
