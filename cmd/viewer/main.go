// Command viewer dumps the contents of a badger store as a table, read-only,
// even while the server holds the lock.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, user:, channel:, req:)")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Timestamp", "Entity", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Back-pointer entries hold a primary key, not a record.
			if strings.HasPrefix(key, "msgid:") || strings.HasPrefix(key, "reqid:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(rowOf(key, v))
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
	fmt.Printf("\n%d entries under %q\n", count, *prefix)
}

// rowOf extracts display columns from a stored record without committing to
// its full schema. Unknown shapes fall back to raw size.
func rowOf(key string, val []byte) []string {
	var record map[string]any
	if err := json.Unmarshal(val, &record); err != nil {
		return []string{key, "-", "-", fmt.Sprintf("%d bytes", len(val))}
	}

	ts := "-"
	if raw, ok := record["createdAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			ts = t.Format("2006-01-02 15:04:05")
		}
	}

	entity := "-"
	for _, field := range []string{"id", "username", "name"} {
		if v, ok := record[field].(string); ok && v != "" {
			entity = v
			break
		}
	}

	detail := "-"
	for _, field := range []string{"text", "email", "status"} {
		if v, ok := record[field].(string); ok && v != "" {
			detail = v
			break
		}
	}
	if len(detail) > 60 {
		detail = detail[:57] + "..."
	}

	return []string{key, ts, entity, detail}
}
