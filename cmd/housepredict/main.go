// Command housepredict serves and runs house price predictions.
//
//	housepredict serve --config config.yaml
//	housepredict predict --size 1200 --rooms 3 --location 5 --age 10
//	housepredict batch houses.csv
//	housepredict evaluate labelled.csv
//	housepredict health
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
