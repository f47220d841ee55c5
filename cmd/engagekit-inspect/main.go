// engagekit-inspect dumps the contents of a vote ledger for debugging.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"engagekit/pkg/models"
	"engagekit/pkg/store"
)

func main() {
	var p string
	flag.StringVar(&p, "path", "", "ledger DB path to inspect")
	flag.Parse()
	if p == "" {
		fmt.Fprintln(os.Stderr, "--path required")
		os.Exit(2)
	}

	st, err := store.Open(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open ledger: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	count := 0
	err = st.ScanPrefix("vote:", func(key string, value []byte) error {
		var v models.Vote
		if jerr := json.Unmarshal(value, &v); jerr != nil {
			fmt.Printf("%s\t<corrupt: %v>\n", key, jerr)
			return nil
		}
		fmt.Printf("%s\toption=%s created=%d claim=%s\n", key, v.OptionID, v.CreatedAt, v.ClaimURL)
		count++
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}

	if data, found, _ := st.Get("state:paused"); found {
		fmt.Printf("state:paused\t%s\n", string(data))
	}
	fmt.Printf("%d vote(s)\n", count)
}
