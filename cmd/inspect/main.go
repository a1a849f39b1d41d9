// Command inspect dumps one collection of the chat store for offline
// debugging. The store must not be open in another process.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var collectionPrefixes = map[string]string{
	"users":    "user:",
	"sessions": "session:",
	"messages": "msg:",
}

func main() {
	dbPath := flag.String("db", "./data/chat", "Path to badger DB")
	collection := flag.String("collection", "messages", "Collection to dump: users|sessions|messages")
	flag.Parse()

	prefix, ok := collectionPrefixes[*collection]
	if !ok {
		log.Fatalf("Unknown collection %q", *collection)
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	color.Bold.Printf("Collection %s\n", *collection)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "ID", "Username", "Content", "Timestamp"})
	table.SetAutoWrapText(false)
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

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				var record map[string]any
				if err := json.Unmarshal(v, &record); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
					return nil
				}
				table.Append(toRow(key, record))
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
	color.Gray.Printf("%d record(s)\n", count)
}

func toRow(key string, record map[string]any) []string {
	username := str(record["username"])
	if username == "" {
		if author, ok := record["author"].(map[string]any); ok {
			username = str(author["username"])
		}
		if user, ok := record["user"].(map[string]any); ok {
			username = str(user["username"])
		}
	}

	timestamp := ""
	if sentAt, ok := record["sent_at"].(float64); ok {
		timestamp = time.Unix(0, int64(sentAt)).UTC().Format(time.RFC3339)
	} else if createdAt, ok := record["created_at"].(float64); ok {
		timestamp = time.Unix(int64(createdAt), 0).UTC().Format(time.RFC3339)
	}

	return []string{key, str(record["id"]), username, str(record["content"]), timestamp}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
