// Command loadref is the one-shot reference-data loader: it reads the
// airports CSV and upserts it into the airports table via
// AirportRepository.UpsertBatch. The boundary/sectors/callsigns files are
// read directly off disk by the running service (internal/airspace) and
// need no database step; this binary only seeds the one reference table
// the service reads through GORM. Split into its own cmd/ binary the way
// the teacher splits one-shot maintenance tasks (cmd/api_key_gen/main.go)
// out of cmd/server.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/vatpac-net/ingestd/internal/config"
	"github.com/vatpac-net/ingestd/internal/db"
	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/repositories"
)

func main() {
	path := flag.String("airports-csv", "", "path to the airports CSV (defaults to AIRPORTS_CSV_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loadref: loading config: %v", err)
	}

	csvPath := *path
	if csvPath == "" {
		csvPath = cfg.AirportsCSVPath
	}

	airports, err := readAirportsCSV(csvPath)
	if err != nil {
		log.Fatalf("loadref: reading %s: %v", csvPath, err)
	}

	ormDB, err := db.InitPostgresORM(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("loadref: connecting to postgres: %v", err)
	}

	repo := repositories.NewAirportRepository(ormDB)
	if err := repo.UpsertBatch(context.Background(), airports); err != nil {
		log.Fatalf("loadref: upserting airports: %v", err)
	}

	log.Printf("loadref: upserted %d airport rows from %s", len(airports), csvPath)
}

// readAirportsCSV parses a header row of
// icao,name,latitude,longitude,elevation_ft,country,region,active (the
// trailing columns optional) into dbmodels.Airport rows, skipping any
// record that fails to parse rather than aborting the whole load.
func readAirportsCSV(path string) ([]dbmodels.Airport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out []dbmodels.Airport
	first := true
	lineNum := 0
	for {
		rec, err := r.Read()
		lineNum++
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			if _, ok := err.(*csv.ParseError); ok {
				continue
			}
			return nil, err
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "icao") {
				continue
			}
		}
		if len(rec) < 4 {
			log.Printf("loadref: skipping line %d: need at least icao,name,latitude,longitude", lineNum)
			continue
		}

		icao := strings.ToUpper(strings.TrimSpace(rec[0]))
		name := strings.TrimSpace(rec[1])
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			log.Printf("loadref: skipping %s: invalid latitude: %v", icao, err)
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		if err != nil {
			log.Printf("loadref: skipping %s: invalid longitude: %v", icao, err)
			continue
		}

		airport := dbmodels.Airport{
			ICAO:      icao,
			Name:      name,
			Latitude:  lat,
			Longitude: lon,
			Active:    true,
		}
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			if elev, err := strconv.ParseInt(strings.TrimSpace(rec[4]), 10, 64); err == nil {
				airport.Elevation = sql.NullInt64{Int64: elev, Valid: true}
			}
		}
		if len(rec) > 5 {
			airport.Country = strings.TrimSpace(rec[5])
		}
		if len(rec) > 6 {
			airport.Region = strings.TrimSpace(rec[6])
		}
		if len(rec) > 7 {
			if active, err := strconv.ParseBool(strings.TrimSpace(rec[7])); err == nil {
				airport.Active = active
			}
		}

		out = append(out, airport)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no parsable airport rows")
	}
	return out, nil
}
