// Package geo holds the static Algerian municipality reference dataset.
// It is platform-global, read-only, and loaded once; shipping states are
// keyed by wilaya code so the two datasets join on the same id.
package geo

import (
	"embed"
	"encoding/csv"
	"strconv"
	"sync"
)

//go:embed dz_municipalities.csv
var dataFS embed.FS

// Municipality is one commune, grouped under its wilaya (shipping state).
type Municipality struct {
	ID        int64  `json:"id"`
	Name      string `json:"municipality_name"`
	NameASCII string `json:"municipality_name_ascii"`
	Daira     string `json:"daira_name"`
	StateID   int64  `json:"state_id"`
	StateName string `json:"state_name"`
}

var (
	loadOnce sync.Once
	byState  map[int64][]Municipality
)

// CSV schema:
// id,commune_name,commune_name_ascii,daira_name,daira_name_ascii,wilaya_code,wilaya_name,wilaya_name_ascii
func load() {
	f, err := dataFS.Open("dz_municipalities.csv")
	if err != nil {
		panic("geo: embedded dataset missing: " + err.Error())
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 8
	rows, err := r.ReadAll()
	if err != nil {
		panic("geo: embedded dataset malformed: " + err.Error())
	}

	byState = make(map[int64][]Municipality)
	for i, rec := range rows {
		if i == 0 {
			continue // header
		}
		id, err1 := strconv.ParseInt(rec[0], 10, 64)
		stateID, err2 := strconv.ParseInt(rec[5], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		byState[stateID] = append(byState[stateID], Municipality{
			ID:        id,
			Name:      rec[1],
			NameASCII: rec[2],
			Daira:     rec[3],
			StateID:   stateID,
			StateName: rec[6],
		})
	}
}

// ByStateID returns the municipalities of one wilaya, or nil when unknown.
func ByStateID(stateID int64) []Municipality {
	loadOnce.Do(load)
	return byState[stateID]
}

// Find returns the municipality with the given id inside a wilaya.
func Find(stateID, id int64) (Municipality, bool) {
	for _, m := range ByStateID(stateID) {
		if m.ID == id {
			return m, true
		}
	}
	return Municipality{}, false
}
