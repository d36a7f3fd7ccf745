package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/wbrown/janus-filter/filter"
	"github.com/wbrown/janus-filter/filter/inspect"
	"github.com/wbrown/janus-filter/filter/store"
)

func main() {
	var schemePath string
	var recordsPath string
	var dbPath string
	var recordID string
	var maxWidth int

	flag.StringVar(&schemePath, "scheme", "", "scheme definition file (JSON: field name -> type)")
	flag.StringVar(&recordsPath, "records", "", "records file (JSON: record id -> field values)")
	flag.StringVar(&dbPath, "db", "", "record store path (ingests -records when given, reads otherwise)")
	flag.StringVar(&recordID, "record", "", "show a single record by id")
	flag.IntVar(&maxWidth, "maxwidth", 50, "maximum value column width")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -scheme scheme.json [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populates one execution context per record and prints its field table.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -scheme scheme.json -records requests.json       # Show records from a file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -scheme scheme.json -records requests.json -db r.db  # Ingest and show\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -scheme scheme.json -db r.db                     # Show stored records\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -scheme scheme.json -db r.db -record req-42      # Show one record\n", os.Args[0])
	}
	flag.Parse()

	if schemePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if recordsPath == "" && dbPath == "" {
		log.Fatal("one of -records or -db is required")
	}

	schemeData, err := os.ReadFile(schemePath)
	if err != nil {
		log.Fatalf("failed to read scheme: %v", err)
	}
	scheme, err := filter.ParseScheme(schemeData)
	if err != nil {
		log.Fatalf("invalid scheme: %v", err)
	}

	formatter := inspect.NewTableFormatter()
	formatter.MaxWidth = maxWidth

	records, err := loadRecords(recordsPath, dbPath)
	if err != nil {
		log.Fatal(err)
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	shown := 0
	for _, id := range ids {
		if recordID != "" && id != recordID {
			continue
		}
		shown++
		fmt.Printf("%s %s\n", color.GreenString("==="), color.CyanString(id))

		ctx := filter.NewExecutionContext(scheme)
		if err := store.PopulateContext(ctx, records[id]); err != nil {
			fmt.Printf("%s %v\n\n", color.RedString("error:"), err)
			continue
		}
		fmt.Println(formatter.FormatContext(ctx))
	}

	if recordID != "" && shown == 0 {
		log.Fatalf("record %q not found", recordID)
	}
}

// loadRecords reads records from a JSON file, a record store, or both.
// When both are given the file is ingested into the store first, so the
// store ends up holding everything that gets displayed.
func loadRecords(recordsPath, dbPath string) (map[string]store.Record, error) {
	records := make(map[string]store.Record)

	if recordsPath != "" {
		data, err := os.ReadFile(recordsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read records: %w", err)
		}
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid records file: %w", err)
		}
	}

	if dbPath == "" {
		return records, nil
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	for id, record := range records {
		if err := s.Put(id, record); err != nil {
			return nil, err
		}
	}

	all := make(map[string]store.Record)
	err = s.Each(func(id string, record store.Record) error {
		all[id] = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
