package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

// InspectRow is one storage entry rendered by the inspector page.
type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Detail    string
}

// StatsProvider feeds the live counters shown above the table.
type StatsProvider func() map[string]any

// PageData is the template payload for inspect.html.
type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes a read-only view of the store on /inspect.
// Not meant to be reachable beyond localhost.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, stats StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if stats != nil {
			data.Stats = stats()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, rowOf(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		address := fmt.Sprintf("localhost:%d", port)
		log.Info("Debug inspector listening", "url", "http://"+address+"/inspect")
		if err := http.ListenAndServe(address, mux); err != nil {
			log.Warn("Debug inspector stopped", "error", err)
		}
	}()
}

// rowOf summarizes one entry. Keys follow the "{namespace}:{...}:{id}"
// convention of the repositories; values are JSON documents or raw
// back-pointers.
func rowOf(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Type:      strings.ToUpper(parts[0]),
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	if len(parts) > 1 {
		row.EntityID = shorten(parts[len(parts)-1])
	}
	if parts[0] == "msg" && len(parts) == 4 {
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
	}

	var doc map[string]any
	if err := json.Unmarshal(val, &doc); err != nil {
		row.Detail = shorten(string(val))
		return row
	}
	for _, field := range []string{"text", "username", "name", "email", "status"} {
		if s, ok := doc[field].(string); ok && s != "" {
			row.Detail = shorten(s)
			break
		}
	}
	return row
}

func shorten(s string) string {
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}
